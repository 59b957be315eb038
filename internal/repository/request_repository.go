package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

const requestSelect = `SELECT id, created, event_id, requester_id, status FROM requests`

func scanRequest(row pgx.Row) (*model.ParticipationRequest, error) {
	var (
		r      model.ParticipationRequest
		status string
	)
	if err := row.Scan(&r.ID, &r.Created, &r.EventID, &r.Requester, &status); err != nil {
		return nil, err
	}
	r.Status = model.RequestStatus(status)
	return &r, nil
}

func collectRequests(rows pgx.Rows) ([]model.ParticipationRequest, error) {
	defer rows.Close()
	var out []model.ParticipationRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// RequestTx is the unit of work opened by RequestRepository.WithEventLock.
// Every method runs inside the transaction that holds the event row lock, so
// the confirmed counter and the request statuses always change together.
type RequestTx interface {
	// Event returns the locked event as of the last counter update.
	Event() model.Event
	// HasActiveRequest reports whether the requester holds a non-canceled request.
	HasActiveRequest(ctx context.Context, requesterID int64) (bool, error)
	// Insert stores a new request for the locked event and sets its id.
	Insert(ctx context.Context, req *model.ParticipationRequest) error
	// LockRequests loads and locks the named requests of the locked event.
	LockRequests(ctx context.Context, ids []int64) ([]model.ParticipationRequest, error)
	// SetStatus moves the named requests to status.
	SetStatus(ctx context.Context, status model.RequestStatus, ids ...int64) error
	// AddConfirmed applies confirmed_requests += delta, failing with
	// ErrLimitReached instead of exceeding the participant limit.
	AddConfirmed(ctx context.Context, delta int) error
}

// RequestRepository handles persistence for participation requests.
type RequestRepository struct {
	db *pgxpool.Pool
}

// NewRequestRepository constructs a RequestRepository.
func NewRequestRepository(db *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{db: db}
}

// WithEventLock runs fn in a transaction holding an exclusive lock on the
// event row.
//
// ─────────────────────────────────────────────────────────────────────────────
// Two initiators confirming the last free seat, or a confirmation racing a
// cancellation, would each read the same confirmed_requests value and both
// write back a stale result. SELECT … FOR UPDATE makes every other
// WithEventLock (and EventRepository.Update) on the same event wait until we
// COMMIT or ROLLBACK, so the limit check, the counter update and the status
// change are one serialised step. The capacity guard is repeated in the
// UPDATE itself and in the events_capacity CHECK constraint.
// ─────────────────────────────────────────────────────────────────────────────
//
// fn's error aborts the transaction and is returned unchanged.
func (r *RequestRepository) WithEventLock(ctx context.Context, eventID int64, fn func(RequestTx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	event, err := scanEvent(tx.QueryRow(ctx, eventSelect+` WHERE e.id = $1 FOR UPDATE OF e`, eventID))
	if err != nil {
		return notFound(err)
	}

	if err = fn(&lockedEvent{tx: tx, event: *event}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// FindByRequester returns the request only if it belongs to userID.
func (r *RequestRepository) FindByRequester(ctx context.Context, userID, requestID int64) (*model.ParticipationRequest, error) {
	req, err := scanRequest(r.db.QueryRow(ctx,
		requestSelect+` WHERE id = $1 AND requester_id = $2`, requestID, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return req, nil
}

// ListByRequester returns all requests made by userID, oldest first.
func (r *RequestRepository) ListByRequester(ctx context.Context, userID int64) ([]model.ParticipationRequest, error) {
	rows, err := r.db.Query(ctx, requestSelect+` WHERE requester_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests by requester: %w", err)
	}
	return collectRequests(rows)
}

// ListByEvent returns all requests for eventID, oldest first.
func (r *RequestRepository) ListByEvent(ctx context.Context, eventID int64) ([]model.ParticipationRequest, error) {
	rows, err := r.db.Query(ctx, requestSelect+` WHERE event_id = $1 ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests by event: %w", err)
	}
	return collectRequests(rows)
}

type lockedEvent struct {
	tx    pgx.Tx
	event model.Event
}

func (l *lockedEvent) Event() model.Event { return l.event }

func (l *lockedEvent) HasActiveRequest(ctx context.Context, requesterID int64) (bool, error) {
	var exists bool
	err := l.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM requests WHERE event_id = $1 AND requester_id = $2 AND status <> $3)`,
		l.event.ID, requesterID, string(model.RequestCanceled),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return exists, nil
}

func (l *lockedEvent) Insert(ctx context.Context, req *model.ParticipationRequest) error {
	req.EventID = l.event.ID
	err := l.tx.QueryRow(ctx,
		`INSERT INTO requests (created, event_id, requester_id, status)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		req.Created, req.EventID, req.Requester, string(req.Status),
	).Scan(&req.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (l *lockedEvent) LockRequests(ctx context.Context, ids []int64) ([]model.ParticipationRequest, error) {
	rows, err := l.tx.Query(ctx,
		requestSelect+` WHERE event_id = $1 AND id = ANY($2) ORDER BY id FOR UPDATE`,
		l.event.ID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("lock requests: %w", err)
	}
	return collectRequests(rows)
}

func (l *lockedEvent) SetStatus(ctx context.Context, status model.RequestStatus, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := l.tx.Exec(ctx,
		`UPDATE requests SET status = $1 WHERE event_id = $2 AND id = ANY($3)`,
		string(status), l.event.ID, ids,
	)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	return nil
}

func (l *lockedEvent) AddConfirmed(ctx context.Context, delta int) error {
	if delta == 0 {
		return nil
	}
	var confirmed int
	err := l.tx.QueryRow(ctx,
		`UPDATE events SET confirmed_requests = confirmed_requests + $2
		 WHERE id = $1
		   AND confirmed_requests + $2 >= 0
		   AND (participant_limit = 0 OR confirmed_requests + $2 <= participant_limit)
		 RETURNING confirmed_requests`,
		l.event.ID, delta,
	).Scan(&confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLimitReached
		}
		return fmt.Errorf("update confirmed_requests: %w", err)
	}
	l.event.ConfirmedRequests = confirmed
	return nil
}

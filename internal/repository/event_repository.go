package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

const eventSelect = `SELECT e.id, e.annotation, e.description, e.title,
	c.id, c.name, u.id, u.name, l.lat, l.lon,
	e.event_date, e.created_on, e.published_on, e.paid, e.participant_limit,
	e.request_moderation, e.confirmed_requests, e.state
	FROM events e
	JOIN categories c ON c.id = e.category_id
	JOIN users u ON u.id = e.initiator_id
	JOIN locations l ON l.id = e.location_id`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e     model.Event
		state string
	)
	err := row.Scan(
		&e.ID, &e.Annotation, &e.Description, &e.Title,
		&e.Category.ID, &e.Category.Name, &e.Initiator.ID, &e.Initiator.Name,
		&e.Location.Lat, &e.Location.Lon,
		&e.EventDate, &e.CreatedOn, &e.PublishedOn, &e.Paid, &e.ParticipantLimit,
		&e.RequestModeration, &e.ConfirmedRequests, &state,
	)
	if err != nil {
		return nil, err
	}
	e.State = model.EventState(state)
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create stores the event location and the event row in one transaction and
// fills in the generated id. Category and initiator must already exist.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	locationID, err := saveLocation(ctx, tx, e.Location)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO events (annotation, description, title, category_id, initiator_id, location_id,
			event_date, created_on, published_on, paid, participant_limit, request_moderation,
			confirmed_requests, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		e.Annotation, e.Description, e.Title, e.Category.ID, e.Initiator.ID, locationID,
		e.EventDate, e.CreatedOn, e.PublishedOn, e.Paid, e.ParticipantLimit, e.RequestModeration,
		e.ConfirmedRequests, string(e.State),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// FindPublished returns the event only if it is PUBLISHED, else ErrNotFound.
func (r *EventRepository) FindPublished(ctx context.Context, id int64) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		eventSelect+` WHERE e.id = $1 AND e.state = $2`, id, string(model.EventPublished)))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// FindForOwner returns the event only if userID is its initiator, else ErrNotFound.
func (r *EventRepository) FindForOwner(ctx context.Context, id, userID int64) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		eventSelect+` WHERE e.id = $1 AND e.initiator_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// ListByInitiator returns a page of the user's events ordered by id.
func (r *EventRepository) ListByInitiator(ctx context.Context, userID int64, page model.Page) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		eventSelect+` WHERE e.initiator_id = $1 ORDER BY e.id LIMIT $2 OFFSET $3`,
		userID, page.Size, page.From,
	)
	if err != nil {
		return nil, fmt.Errorf("list events by initiator: %w", err)
	}
	return collectEvents(rows)
}

// Search returns PUBLISHED events matching f whose event date lies in
// [start, end], newest event date first. A zero page size disables paging.
func (r *EventRepository) Search(ctx context.Context, f model.EventFilter, start, end time.Time) ([]model.Event, error) {
	var c conditions
	c.add("e.state = ?", string(model.EventPublished))
	if f.Text != "" {
		p := likePattern(f.Text)
		c.add("(e.annotation ILIKE ? OR e.description ILIKE ?)", p, p)
	}
	if len(f.Categories) > 0 {
		c.add("e.category_id = ANY(?)", f.Categories)
	}
	if f.Paid != nil {
		c.add("e.paid = ?", *f.Paid)
	}
	c.add("e.event_date BETWEEN ? AND ?", start, end)
	if f.OnlyAvailable {
		c.add("(e.participant_limit = 0 OR e.confirmed_requests < e.participant_limit)")
	}

	sql := eventSelect + c.where() + ` ORDER BY e.event_date DESC, e.id`
	if f.Page.Size > 0 {
		sql += ` LIMIT ` + c.next(f.Page.Size) + ` OFFSET ` + c.next(f.Page.From)
	}
	rows, err := r.db.Query(ctx, sql, c.args...)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return collectEvents(rows)
}

// AdminSearch returns events in any state matching f, ordered by id.
func (r *EventRepository) AdminSearch(ctx context.Context, f model.AdminEventFilter) ([]model.Event, error) {
	var c conditions
	if len(f.Users) > 0 {
		c.add("e.initiator_id = ANY(?)", f.Users)
	}
	if len(f.States) > 0 {
		states := make([]string, 0, len(f.States))
		for _, s := range f.States {
			states = append(states, string(s))
		}
		c.add("e.state = ANY(?)", states)
	}
	if len(f.Categories) > 0 {
		c.add("e.category_id = ANY(?)", f.Categories)
	}
	if f.RangeStart != nil {
		c.add("e.event_date >= ?", *f.RangeStart)
	}
	if f.RangeEnd != nil {
		c.add("e.event_date <= ?", *f.RangeEnd)
	}

	sql := eventSelect + c.where() + ` ORDER BY e.id LIMIT ` + c.next(f.Page.Size) + ` OFFSET ` + c.next(f.Page.From)
	rows, err := r.db.Query(ctx, sql, c.args...)
	if err != nil {
		return nil, fmt.Errorf("admin search events: %w", err)
	}
	return collectEvents(rows)
}

// Update locks the event row, lets fn mutate the loaded event and writes the
// result back in the same transaction. fn sees the committed state of the
// row; concurrent updates and request confirmations wait on the lock.
// When onlyOwner is non-zero the event must belong to that user.
func (r *EventRepository) Update(ctx context.Context, id, onlyOwner int64, fn func(*model.Event) error) (*model.Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sql := eventSelect + ` WHERE e.id = $1 FOR UPDATE OF e`
	args := []any{id}
	if onlyOwner != 0 {
		sql = eventSelect + ` WHERE e.id = $1 AND e.initiator_id = $2 FOR UPDATE OF e`
		args = append(args, onlyOwner)
	}
	e, err := scanEvent(tx.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err)
	}

	if err := fn(e); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE locations SET lat = $2, lon = $3
		 WHERE id = (SELECT location_id FROM events WHERE id = $1)`,
		e.ID, e.Location.Lat, e.Location.Lon,
	)
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE events SET annotation = $2, description = $3, title = $4, category_id = $5,
			event_date = $6, published_on = $7, paid = $8, participant_limit = $9,
			request_moderation = $10, state = $11
		 WHERE id = $1`,
		e.ID, e.Annotation, e.Description, e.Title, e.Category.ID,
		e.EventDate, e.PublishedOn, e.Paid, e.ParticipantLimit,
		e.RequestModeration, string(e.State),
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return e, nil
}

func saveLocation(ctx context.Context, q querier, loc model.Location) (int64, error) {
	var id int64
	err := q.QueryRow(ctx,
		`INSERT INTO locations (lat, lon) VALUES ($1, $2) RETURNING id`,
		loc.Lat, loc.Lon,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert location: %w", err)
	}
	return id, nil
}

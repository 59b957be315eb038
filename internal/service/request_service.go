package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

// RequestService manages the participation request lifecycle and keeps each
// event's confirmed counter in step with its CONFIRMED requests.
type RequestService struct {
	requests RequestStore
	events   EventStore
	users    UserStore
	logger   log.FieldLogger
	now      func() time.Time
}

// NewRequestService constructs a RequestService with its dependencies.
func NewRequestService(requests RequestStore, events EventStore, users UserStore, logger log.FieldLogger) *RequestService {
	return &RequestService{
		requests: requests,
		events:   events,
		users:    users,
		logger:   logger,
		now:      utcNow,
	}
}

// AddRequest files userID's request to take part in eventID. Events without
// moderation or without a participant limit confirm it on the spot.
func (s *RequestService) AddRequest(ctx context.Context, userID, eventID int64) (model.RequestDTO, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.RequestDTO{}, reference(err, "user", userID)
	}

	req := model.ParticipationRequest{
		Created:   s.now(),
		Requester: userID,
		Status:    model.RequestPending,
	}
	err := s.requests.WithEventLock(ctx, eventID, func(tx repository.RequestTx) error {
		e := tx.Event()
		if e.State != model.EventPublished {
			return apperr.Conflict("cannot participate in an unpublished event")
		}
		if e.IsFull() {
			return apperr.Conflict("event with id=%d has reached its participant limit", eventID)
		}
		if e.Initiator.ID == userID {
			return apperr.Conflict("initiator cannot request participation in their own event")
		}

		dup, err := tx.HasActiveRequest(ctx, userID)
		if err != nil {
			return err
		}
		if dup {
			return apperr.Conflict("user with id=%d already has a request for event with id=%d", userID, eventID)
		}

		if e.AutoConfirms() {
			if err := tx.AddConfirmed(ctx, 1); err != nil {
				return limitConflict(err, eventID)
			}
			req.Status = model.RequestConfirmed
		}

		if err := tx.Insert(ctx, &req); err != nil {
			if errors.Is(err, repository.ErrDuplicateRequest) {
				return apperr.Conflict("user with id=%d already has a request for event with id=%d", userID, eventID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return model.RequestDTO{}, notFound(err, "add request", "event with id=%d was not found", eventID)
	}

	s.logger.WithFields(log.Fields{
		"request_id": req.ID,
		"event_id":   eventID,
		"user_id":    userID,
		"status":     req.Status,
	}).Info("participation request created")
	return model.NewRequestDTO(req), nil
}

// CancelRequest withdraws the requester's own request. Cancelling a
// CONFIRMED request frees its seat.
func (s *RequestService) CancelRequest(ctx context.Context, userID, requestID int64) (model.RequestDTO, error) {
	found, err := s.requests.FindByRequester(ctx, userID, requestID)
	if err != nil {
		return model.RequestDTO{}, notFound(err, "cancel request", "request with id=%d was not found", requestID)
	}

	var out model.ParticipationRequest
	err = s.requests.WithEventLock(ctx, found.EventID, func(tx repository.RequestTx) error {
		locked, err := tx.LockRequests(ctx, []int64{requestID})
		if err != nil {
			return err
		}
		if len(locked) != 1 {
			return repository.ErrNotFound
		}
		out = locked[0]
		if out.Status == model.RequestCanceled {
			return nil
		}
		if out.Status == model.RequestConfirmed {
			if err := tx.AddConfirmed(ctx, -1); err != nil {
				return fmt.Errorf("release seat: %w", err)
			}
		}
		if err := tx.SetStatus(ctx, model.RequestCanceled, requestID); err != nil {
			return err
		}
		out.Status = model.RequestCanceled
		return nil
	})
	if err != nil {
		return model.RequestDTO{}, notFound(err, "cancel request", "request with id=%d was not found", requestID)
	}

	s.logger.WithFields(log.Fields{"request_id": requestID, "user_id": userID}).Info("participation request canceled")
	return model.NewRequestDTO(out), nil
}

// ListByRequester returns every request userID has made.
func (s *RequestService) ListByRequester(ctx context.Context, userID int64) ([]model.RequestDTO, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, "list requests", "user with id=%d was not found", userID)
	}
	reqs, err := s.requests.ListByRequester(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return model.NewRequestDTOs(reqs), nil
}

// ListForEvent returns the requests filed for one of userID's events.
func (s *RequestService) ListForEvent(ctx context.Context, userID, eventID int64) ([]model.RequestDTO, error) {
	if _, err := s.events.FindForOwner(ctx, eventID, userID); err != nil {
		return nil, notFound(err, "list event requests", "event with id=%d was not found", eventID)
	}
	reqs, err := s.requests.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event requests: %w", err)
	}
	return model.NewRequestDTOs(reqs), nil
}

// UpdateStatuses is the initiator's bulk moderation of requests for eventID.
//
// On a moderated, capped event every listed request must be PENDING; each
// confirmation takes one seat and the batch fails with a conflict as soon as
// the limit would be exceeded. On events that confirm automatically the call
// force-confirms: PENDING and REJECTED requests become CONFIRMED, already
// CONFIRMED requests are reported without being counted again, and a
// CANCELED request fails the batch. The whole batch is applied atomically.
func (s *RequestService) UpdateStatuses(ctx context.Context, userID, eventID int64, in model.StatusUpdateRequest) (model.StatusUpdateResult, error) {
	if in.Status != model.RequestConfirmed && in.Status != model.RequestRejected {
		return model.StatusUpdateResult{}, apperr.Validation("status must be %s or %s, got %q",
			model.RequestConfirmed, model.RequestRejected, in.Status)
	}
	ids := uniqueIDs(in.RequestIDs)
	if len(ids) == 0 {
		return model.StatusUpdateResult{}, apperr.Validation("requestIds must not be empty")
	}

	var confirmed, rejected []model.ParticipationRequest
	err := s.requests.WithEventLock(ctx, eventID, func(tx repository.RequestTx) error {
		confirmed, rejected = nil, nil
		e := tx.Event()
		if e.Initiator.ID != userID {
			return repository.ErrNotFound
		}

		reqs, err := tx.LockRequests(ctx, ids)
		if err != nil {
			return err
		}
		if len(reqs) != len(ids) {
			return apperr.NotFound("some of requests %v were not found for event with id=%d", ids, eventID)
		}

		if e.AutoConfirms() {
			confirmed, err = forceConfirm(ctx, tx, reqs, eventID)
			return err
		}
		if e.IsFull() {
			return apperr.Conflict("event with id=%d has reached its participant limit", eventID)
		}
		for _, r := range reqs {
			if r.Status != model.RequestPending {
				return apperr.Validation("request with id=%d must be %s, current status is %s", r.ID, model.RequestPending, r.Status)
			}
		}

		if in.Status == model.RequestRejected {
			if err := tx.SetStatus(ctx, model.RequestRejected, ids...); err != nil {
				return err
			}
			rejected = withStatus(reqs, model.RequestRejected)
			return nil
		}
		for _, r := range reqs {
			if err := tx.AddConfirmed(ctx, 1); err != nil {
				return limitConflict(err, eventID)
			}
			r.Status = model.RequestConfirmed
			confirmed = append(confirmed, r)
		}
		return tx.SetStatus(ctx, model.RequestConfirmed, ids...)
	})
	if err != nil {
		return model.StatusUpdateResult{}, notFound(err, "update request statuses", "event with id=%d was not found", eventID)
	}

	s.logger.WithFields(log.Fields{
		"event_id":  eventID,
		"confirmed": len(confirmed),
		"rejected":  len(rejected),
	}).Info("participation requests moderated")
	return model.StatusUpdateResult{
		ConfirmedRequests: model.NewRequestDTOs(confirmed),
		RejectedRequests:  model.NewRequestDTOs(rejected),
	}, nil
}

func forceConfirm(ctx context.Context, tx repository.RequestTx, reqs []model.ParticipationRequest, eventID int64) ([]model.ParticipationRequest, error) {
	var promote []int64
	for _, r := range reqs {
		switch r.Status {
		case model.RequestCanceled:
			return nil, apperr.Validation("request with id=%d is canceled", r.ID)
		case model.RequestPending, model.RequestRejected:
			promote = append(promote, r.ID)
		}
	}
	if err := tx.AddConfirmed(ctx, len(promote)); err != nil {
		return nil, limitConflict(err, eventID)
	}
	if err := tx.SetStatus(ctx, model.RequestConfirmed, promote...); err != nil {
		return nil, err
	}
	return withStatus(reqs, model.RequestConfirmed), nil
}

func withStatus(reqs []model.ParticipationRequest, status model.RequestStatus) []model.ParticipationRequest {
	out := make([]model.ParticipationRequest, len(reqs))
	for i, r := range reqs {
		r.Status = status
		out[i] = r
	}
	return out
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func limitConflict(err error, eventID int64) error {
	if errors.Is(err, repository.ErrLimitReached) {
		return apperr.Conflict("event with id=%d has reached its participant limit", eventID)
	}
	return err
}

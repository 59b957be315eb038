// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

// EventStore persists events. *repository.EventRepository satisfies it.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	FindPublished(ctx context.Context, id int64) (*model.Event, error)
	FindForOwner(ctx context.Context, id, userID int64) (*model.Event, error)
	ListByInitiator(ctx context.Context, userID int64, page model.Page) ([]model.Event, error)
	Search(ctx context.Context, f model.EventFilter, start, end time.Time) ([]model.Event, error)
	AdminSearch(ctx context.Context, f model.AdminEventFilter) ([]model.Event, error)
	Update(ctx context.Context, id, onlyOwner int64, fn func(*model.Event) error) (*model.Event, error)
}

// RequestStore persists participation requests. *repository.RequestRepository
// satisfies it.
type RequestStore interface {
	WithEventLock(ctx context.Context, eventID int64, fn func(repository.RequestTx) error) error
	FindByRequester(ctx context.Context, userID, requestID int64) (*model.ParticipationRequest, error)
	ListByRequester(ctx context.Context, userID int64) ([]model.ParticipationRequest, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.ParticipationRequest, error)
}

// CategoryStore resolves category references.
type CategoryStore interface {
	GetByID(ctx context.Context, id int64) (*model.Category, error)
}

// UserStore resolves user references.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.UserShort, error)
}

// CommentStore loads the comments shown with events.
type CommentStore interface {
	ListByEvents(ctx context.Context, eventIDs []int64) (map[int64][]model.Comment, error)
}

// ViewCounter derives view counts. It never fails; unknown counts are zero.
type ViewCounter interface {
	Views(ctx context.Context, events []model.Event) map[int64]int64
}

func utcNow() time.Time { return time.Now().UTC() }

// notFound translates repository.ErrNotFound into a NotFound error with msg
// and wraps everything else.
func notFound(err error, op string, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(format, args...)
	}
	if apperr.KindOf(err) != nil {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

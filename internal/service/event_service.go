package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

const (
	initiatorLeadTime = 2 * time.Hour
	adminLeadTime     = time.Hour
	defaultSearchSpan = 1 // years
)

// EventService orchestrates event creation, moderation and read models.
type EventService struct {
	events     EventStore
	categories CategoryStore
	users      UserStore
	comments   CommentStore
	views      ViewCounter
	logger     log.FieldLogger
	now        func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events EventStore,
	categories CategoryStore,
	users UserStore,
	comments CommentStore,
	views ViewCounter,
	logger log.FieldLogger,
) *EventService {
	return &EventService{
		events:     events,
		categories: categories,
		users:      users,
		comments:   comments,
		views:      views,
		logger:     logger,
		now:        utcNow,
	}
}

// CreateEvent validates the request and stores a new PENDING event owned by userID.
func (s *EventService) CreateEvent(ctx context.Context, userID int64, req model.NewEventRequest) (model.EventFull, error) {
	now := s.now()
	if req.EventDate.IsZero() {
		return model.EventFull{}, apperr.Validation("eventDate is required")
	}
	if req.EventDate.Sub(now) < initiatorLeadTime {
		return model.EventFull{}, apperr.Validation(
			"event date must be at least %s after now, got %s", initiatorLeadTime, req.EventDate.Format(time.DateTime))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.EventFull{}, reference(err, "user", userID)
	}
	category, err := s.categories.GetByID(ctx, req.Category)
	if err != nil {
		return model.EventFull{}, reference(err, "category", req.Category)
	}

	e := model.Event{
		Annotation:        req.Annotation,
		Description:       req.Description,
		Title:             req.Title,
		Category:          *category,
		Initiator:         *user,
		Location:          *req.Location,
		EventDate:         req.EventDate.UTC(),
		CreatedOn:         now,
		RequestModeration: true,
		State:             model.EventPending,
	}
	if req.Paid != nil {
		e.Paid = *req.Paid
	}
	if req.ParticipantLimit != nil {
		e.ParticipantLimit = *req.ParticipantLimit
	}
	if req.RequestModeration != nil {
		e.RequestModeration = *req.RequestModeration
	}

	if err := s.events.Create(ctx, &e); err != nil {
		return model.EventFull{}, fmt.Errorf("create event: %w", err)
	}
	s.logger.WithFields(log.Fields{"event_id": e.ID, "initiator_id": userID}).Info("event created")
	return model.NewEventFull(e, 0, nil), nil
}

// ListByInitiator returns a page of the user's own events.
func (s *EventService) ListByInitiator(ctx context.Context, userID int64, page model.Page) ([]model.EventShort, error) {
	events, err := s.events.ListByInitiator(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	views, comments, err := s.decorate(ctx, events)
	if err != nil {
		return nil, err
	}
	return shorts(events, views, comments), nil
}

// GetByInitiator returns one of the user's own events in any state.
func (s *EventService) GetByInitiator(ctx context.Context, userID, eventID int64) (model.EventFull, error) {
	e, err := s.events.FindForOwner(ctx, eventID, userID)
	if err != nil {
		return model.EventFull{}, notFound(err, "get event", "event with id=%d was not found", eventID)
	}
	return s.full(ctx, *e)
}

// UpdateByInitiator applies an initiator's edit. Published events are frozen.
func (s *EventService) UpdateByInitiator(ctx context.Context, userID, eventID int64, u model.EventUpdate) (model.EventFull, error) {
	e, err := s.update(ctx, model.RoleInitiator, eventID, userID, u)
	if err != nil {
		return model.EventFull{}, err
	}
	return s.full(ctx, *e)
}

// UpdateByAdmin applies a moderation decision and/or field edits to a PENDING event.
func (s *EventService) UpdateByAdmin(ctx context.Context, eventID int64, u model.EventUpdate) (model.EventFull, error) {
	e, err := s.update(ctx, model.RoleAdmin, eventID, 0, u)
	if err != nil {
		return model.EventFull{}, err
	}
	return s.full(ctx, *e)
}

func (s *EventService) update(ctx context.Context, role model.Role, eventID, owner int64, u model.EventUpdate) (*model.Event, error) {
	if err := u.Check(role); err != nil {
		return nil, err
	}
	now := s.now()
	if u.EventDate != nil {
		if err := checkEventDate(role, u.EventDate.UTC(), now); err != nil {
			return nil, err
		}
		date := jsontime.New(u.EventDate.UTC())
		u.EventDate = &date
	}

	var category *model.Category
	if u.Category != nil {
		c, err := s.categories.GetByID(ctx, *u.Category)
		if err != nil {
			return nil, reference(err, "category", *u.Category)
		}
		category = c
	}

	e, err := s.events.Update(ctx, eventID, owner, func(e *model.Event) error {
		next, err := u.Transition(role, e.State)
		if err != nil {
			return err
		}
		u.Apply(e, category)
		if !e.Unlimited() && e.ParticipantLimit < e.ConfirmedRequests {
			return apperr.Conflict("participant limit %d is below the %d confirmed requests", e.ParticipantLimit, e.ConfirmedRequests)
		}
		if next == model.EventPublished && e.State != model.EventPublished {
			published := now
			e.PublishedOn = &published
		}
		e.State = next
		return nil
	})
	if err != nil {
		return nil, notFound(err, "update event", "event with id=%d was not found", eventID)
	}

	s.logger.WithFields(log.Fields{
		"event_id": e.ID,
		"role":     role.String(),
		"state":    e.State,
	}).Info("event updated")
	return e, nil
}

func checkEventDate(role model.Role, date, now time.Time) error {
	if role == model.RoleAdmin {
		if date.Before(now) {
			return apperr.Validation("event date %s is in the past", date.Format(time.DateTime))
		}
		if date.Sub(now) < adminLeadTime {
			return apperr.Validation("event date must be at least %s after now", adminLeadTime)
		}
		return nil
	}
	if date.Sub(now) < initiatorLeadTime {
		return apperr.Validation("event date must be at least %s after now", initiatorLeadTime)
	}
	return nil
}

// AdminList returns events in any state for the administrator view.
func (s *EventService) AdminList(ctx context.Context, f model.AdminEventFilter) ([]model.EventFull, error) {
	if f.RangeStart != nil && f.RangeEnd != nil && f.RangeStart.After(*f.RangeEnd) {
		return nil, apperr.Validation("rangeStart must not be after rangeEnd")
	}
	events, err := s.events.AdminSearch(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("admin search: %w", err)
	}
	views, comments, err := s.decorate(ctx, events)
	if err != nil {
		return nil, err
	}
	out := make([]model.EventFull, 0, len(events))
	for _, e := range events {
		out = append(out, model.NewEventFull(e, views[e.ID], comments[e.ID]))
	}
	return out, nil
}

// Search runs the public event search over PUBLISHED events. Without a range
// the window is now to one year ahead.
func (s *EventService) Search(ctx context.Context, f model.EventFilter) ([]model.EventShort, error) {
	start := s.now()
	if f.RangeStart != nil {
		start = f.RangeStart.UTC()
	}
	end := start.AddDate(defaultSearchSpan, 0, 0)
	if f.RangeEnd != nil {
		end = f.RangeEnd.UTC()
	}
	if start.After(end) {
		return nil, apperr.Validation("rangeStart must not be after rangeEnd")
	}

	switch f.Sort {
	case "", model.SortEventDate:
		events, err := s.events.Search(ctx, f, start, end)
		if err != nil {
			return nil, fmt.Errorf("search events: %w", err)
		}
		views, comments, err := s.decorate(ctx, events)
		if err != nil {
			return nil, err
		}
		return shorts(events, views, comments), nil
	case model.SortViews:
		return s.searchByViews(ctx, f, start, end)
	default:
		return nil, apperr.Validation("unknown sort %q", f.Sort)
	}
}

// searchByViews ranks the whole match set by views before paging, since views
// are not a column the database can order by.
func (s *EventService) searchByViews(ctx context.Context, f model.EventFilter, start, end time.Time) ([]model.EventShort, error) {
	all := f
	all.Page = model.Page{}
	events, err := s.events.Search(ctx, all, start, end)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}

	views := s.views.Views(ctx, events)
	sort.SliceStable(events, func(i, j int) bool {
		return views[events[i].ID] > views[events[j].ID]
	})
	events = paginate(events, f.Page)

	comments, err := s.comments.ListByEvents(ctx, ids(events))
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return shorts(events, views, comments), nil
}

// GetPublished returns a PUBLISHED event for the public API.
func (s *EventService) GetPublished(ctx context.Context, eventID int64) (model.EventFull, error) {
	e, err := s.events.FindPublished(ctx, eventID)
	if err != nil {
		return model.EventFull{}, notFound(err, "get event", "event with id=%d was not found", eventID)
	}
	return s.full(ctx, *e)
}

func (s *EventService) full(ctx context.Context, e model.Event) (model.EventFull, error) {
	views, comments, err := s.decorate(ctx, []model.Event{e})
	if err != nil {
		return model.EventFull{}, err
	}
	return model.NewEventFull(e, views[e.ID], comments[e.ID]), nil
}

// decorate loads view counts and comments for events concurrently.
func (s *EventService) decorate(ctx context.Context, events []model.Event) (map[int64]int64, map[int64][]model.Comment, error) {
	if len(events) == 0 {
		return nil, nil, nil
	}
	var (
		views    map[int64]int64
		comments map[int64][]model.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		views = s.views.Views(gctx, events)
		return nil
	})
	g.Go(func() error {
		c, err := s.comments.ListByEvents(gctx, ids(events))
		if err != nil {
			return fmt.Errorf("load comments: %w", err)
		}
		comments = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return views, comments, nil
}

func shorts(events []model.Event, views map[int64]int64, comments map[int64][]model.Comment) []model.EventShort {
	out := make([]model.EventShort, 0, len(events))
	for _, e := range events {
		out = append(out, model.NewEventShort(e, views[e.ID], comments[e.ID]))
	}
	return out
}

func ids(events []model.Event) []int64 {
	out := make([]int64, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func paginate[T any](items []T, p model.Page) []T {
	if p.From >= len(items) {
		return items[:0]
	}
	items = items[p.From:]
	if p.Size > 0 && p.Size < len(items) {
		items = items[:p.Size]
	}
	return items
}

// reference maps a missing referenced entity to a validation error.
func reference(err error, kind string, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Validation("%s with id=%d does not exist", kind, id)
	}
	return fmt.Errorf("load %s: %w", kind, err)
}

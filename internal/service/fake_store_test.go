package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

// fakeDB is an in-memory stand-in for Postgres. Each event has its own mutex
// playing the part of the row lock; the work done under it is staged and
// only published on success, like a transaction.
type fakeDB struct {
	mu         sync.Mutex
	rowLocks   map[int64]*sync.Mutex
	events     map[int64]model.Event
	requests   map[int64]model.ParticipationRequest
	users      map[int64]model.UserShort
	categories map[int64]model.Category
	comments   map[int64][]model.Comment
	lastEvent  int64
	lastReq    int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		rowLocks:   map[int64]*sync.Mutex{},
		events:     map[int64]model.Event{},
		requests:   map[int64]model.ParticipationRequest{},
		users:      map[int64]model.UserShort{},
		categories: map[int64]model.Category{},
		comments:   map[int64][]model.Comment{},
	}
}

func (db *fakeDB) addUser(id int64, name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[id] = model.UserShort{ID: id, Name: name}
}

func (db *fakeDB) addCategory(id int64, name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.categories[id] = model.Category{ID: id, Name: name}
}

// putEvent stores e as is, assigning an id when e.ID is zero.
func (db *fakeDB) putEvent(e model.Event) model.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e.ID == 0 {
		db.lastEvent++
		e.ID = db.lastEvent
	}
	db.events[e.ID] = e
	return e
}

func (db *fakeDB) putRequest(r model.ParticipationRequest) model.ParticipationRequest {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.lastReq++
	r.ID = db.lastReq
	db.requests[r.ID] = r
	return r
}

func (db *fakeDB) event(id int64) model.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.events[id]
}

func (db *fakeDB) request(id int64) model.ParticipationRequest {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.requests[id]
}

func (db *fakeDB) countStatus(eventID int64, status model.RequestStatus) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, r := range db.requests {
		if r.EventID == eventID && r.Status == status {
			n++
		}
	}
	return n
}

func (db *fakeDB) rowLock(id int64) *sync.Mutex {
	db.mu.Lock()
	defer db.mu.Unlock()
	l, ok := db.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		db.rowLocks[id] = l
	}
	return l
}

// EventStore

func (db *fakeDB) Create(_ context.Context, e *model.Event) error {
	*e = db.putEvent(*e)
	return nil
}

func (db *fakeDB) lookup(id int64) (*model.Event, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (db *fakeDB) FindPublished(_ context.Context, id int64) (*model.Event, error) {
	e, err := db.lookup(id)
	if err != nil || e.State != model.EventPublished {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (db *fakeDB) FindForOwner(_ context.Context, id, userID int64) (*model.Event, error) {
	e, err := db.lookup(id)
	if err != nil || e.Initiator.ID != userID {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (db *fakeDB) sortedEvents(keep func(model.Event) bool) []model.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.Event
	for _, e := range db.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (db *fakeDB) ListByInitiator(_ context.Context, userID int64, page model.Page) ([]model.Event, error) {
	out := db.sortedEvents(func(e model.Event) bool { return e.Initiator.ID == userID })
	return paginate(out, page), nil
}

func (db *fakeDB) Search(_ context.Context, f model.EventFilter, start, end time.Time) ([]model.Event, error) {
	text := strings.ToLower(f.Text)
	out := db.sortedEvents(func(e model.Event) bool {
		if e.State != model.EventPublished {
			return false
		}
		if text != "" && !strings.Contains(strings.ToLower(e.Annotation), text) &&
			!strings.Contains(strings.ToLower(e.Description), text) {
			return false
		}
		if len(f.Categories) > 0 && !containsID(f.Categories, e.Category.ID) {
			return false
		}
		if f.Paid != nil && e.Paid != *f.Paid {
			return false
		}
		if e.EventDate.Before(start) || e.EventDate.After(end) {
			return false
		}
		return !f.OnlyAvailable || !e.IsFull()
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventDate.After(out[j].EventDate) })
	return paginate(out, f.Page), nil
}

func (db *fakeDB) AdminSearch(_ context.Context, f model.AdminEventFilter) ([]model.Event, error) {
	out := db.sortedEvents(func(e model.Event) bool {
		if len(f.Users) > 0 && !containsID(f.Users, e.Initiator.ID) {
			return false
		}
		if len(f.Categories) > 0 && !containsID(f.Categories, e.Category.ID) {
			return false
		}
		if len(f.States) > 0 {
			match := false
			for _, s := range f.States {
				match = match || s == e.State
			}
			if !match {
				return false
			}
		}
		if f.RangeStart != nil && e.EventDate.Before(*f.RangeStart) {
			return false
		}
		return f.RangeEnd == nil || !e.EventDate.After(*f.RangeEnd)
	})
	return paginate(out, f.Page), nil
}

func (db *fakeDB) Update(_ context.Context, id, onlyOwner int64, fn func(*model.Event) error) (*model.Event, error) {
	l := db.rowLock(id)
	l.Lock()
	defer l.Unlock()

	e, err := db.lookup(id)
	if err != nil {
		return nil, err
	}
	if onlyOwner != 0 && e.Initiator.ID != onlyOwner {
		return nil, repository.ErrNotFound
	}
	if err := fn(e); err != nil {
		return nil, err
	}
	db.putEvent(*e)
	return e, nil
}

// RequestStore

func (db *fakeDB) WithEventLock(_ context.Context, eventID int64, fn func(repository.RequestTx) error) error {
	l := db.rowLock(eventID)
	l.Lock()
	defer l.Unlock()

	e, err := db.lookup(eventID)
	if err != nil {
		return err
	}
	tx := &fakeTx{db: db, event: *e, staged: map[int64]model.ParticipationRequest{}}
	if err := fn(tx); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	stored := db.events[eventID]
	stored.ConfirmedRequests = tx.event.ConfirmedRequests
	db.events[eventID] = stored
	for id, r := range tx.staged {
		db.requests[id] = r
	}
	return nil
}

func (db *fakeDB) FindByRequester(_ context.Context, userID, requestID int64) (*model.ParticipationRequest, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	r, ok := db.requests[requestID]
	if !ok || r.Requester != userID {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (db *fakeDB) listRequests(keep func(model.ParticipationRequest) bool) []model.ParticipationRequest {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.ParticipationRequest
	for _, r := range db.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (db *fakeDB) ListByRequester(_ context.Context, userID int64) ([]model.ParticipationRequest, error) {
	return db.listRequests(func(r model.ParticipationRequest) bool { return r.Requester == userID }), nil
}

func (db *fakeDB) ListByEvent(_ context.Context, eventID int64) ([]model.ParticipationRequest, error) {
	return db.listRequests(func(r model.ParticipationRequest) bool { return r.EventID == eventID }), nil
}

// CommentStore

func (db *fakeDB) ListByEvents(_ context.Context, ids []int64) (map[int64][]model.Comment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make(map[int64][]model.Comment, len(ids))
	for _, id := range ids {
		if cs, ok := db.comments[id]; ok {
			out[id] = cs
		}
	}
	return out, nil
}

type fakeTx struct {
	db     *fakeDB
	event  model.Event
	staged map[int64]model.ParticipationRequest
}

func (tx *fakeTx) Event() model.Event { return tx.event }

func (tx *fakeTx) current(id int64) (model.ParticipationRequest, bool) {
	if r, ok := tx.staged[id]; ok {
		return r, true
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	r, ok := tx.db.requests[id]
	return r, ok
}

func (tx *fakeTx) HasActiveRequest(_ context.Context, requesterID int64) (bool, error) {
	for _, r := range tx.staged {
		if r.Requester == requesterID && r.Status != model.RequestCanceled {
			return true, nil
		}
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for _, r := range tx.db.requests {
		if r.EventID == tx.event.ID && r.Requester == requesterID && r.Status != model.RequestCanceled {
			return true, nil
		}
	}
	return false, nil
}

func (tx *fakeTx) Insert(_ context.Context, req *model.ParticipationRequest) error {
	tx.db.mu.Lock()
	tx.db.lastReq++
	req.ID = tx.db.lastReq
	tx.db.mu.Unlock()
	req.EventID = tx.event.ID
	tx.staged[req.ID] = *req
	return nil
}

func (tx *fakeTx) LockRequests(_ context.Context, ids []int64) ([]model.ParticipationRequest, error) {
	var out []model.ParticipationRequest
	for _, id := range ids {
		if r, ok := tx.current(id); ok && r.EventID == tx.event.ID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *fakeTx) SetStatus(_ context.Context, status model.RequestStatus, ids ...int64) error {
	for _, id := range ids {
		r, ok := tx.current(id)
		if !ok {
			continue
		}
		r.Status = status
		tx.staged[id] = r
	}
	return nil
}

func (tx *fakeTx) AddConfirmed(_ context.Context, delta int) error {
	next := tx.event.ConfirmedRequests + delta
	if next < 0 || (!tx.event.Unlimited() && next > tx.event.ParticipantLimit) {
		return repository.ErrLimitReached
	}
	tx.event.ConfirmedRequests = next
	return nil
}

type fakeUsers struct{ db *fakeDB }

func (u fakeUsers) GetByID(_ context.Context, id int64) (*model.UserShort, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	user, ok := u.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

type fakeCategories struct{ db *fakeDB }

func (c fakeCategories) GetByID(_ context.Context, id int64) (*model.Category, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	cat, ok := c.db.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cat, nil
}

// fixedViews reports preset counts for published events.
type fixedViews map[int64]int64

func (v fixedViews) Views(_ context.Context, events []model.Event) map[int64]int64 {
	out := make(map[int64]int64, len(events))
	for _, e := range events {
		if e.PublishedOn != nil {
			out[e.ID] = v[e.ID]
		} else {
			out[e.ID] = 0
		}
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

var (
	_ EventStore    = (*fakeDB)(nil)
	_ RequestStore  = (*fakeDB)(nil)
	_ CommentStore  = (*fakeDB)(nil)
	_ UserStore     = fakeUsers{}
	_ CategoryStore = fakeCategories{}
)

package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/database"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

func TestConditionsNumbersPlaceholders(t *testing.T) {
	var c conditions
	assert.Equal(t, "", c.where())

	c.add("e.state = ?", "PUBLISHED")
	c.add("e.event_date BETWEEN ? AND ?", 1, 2)
	c.add("e.paid")
	limit := c.next(10)

	assert.Equal(t, " WHERE e.state = $1 AND e.event_date BETWEEN $2 AND $3 AND e.paid", c.where())
	assert.Equal(t, "$4", limit)
	assert.Equal(t, []any{"PUBLISHED", 1, 2, 10}, c.args)
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, "%jazz%", likePattern("jazz"))
	assert.Equal(t, `%100\%\_off\\%`, likePattern(`100%_off\`))
}

// The tests below need a disposable PostgreSQL database.
// Set EWM_TEST_DATABASE_URL to run them.

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("EWM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("EWM_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE comments, compilation_event, compilations, requests, events, locations, categories, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	for i := 1; i <= 30; i++ {
		_, err = pool.Exec(ctx, `INSERT INTO users (name, email) VALUES ($1, $2)`,
			fmt.Sprintf("user %d", i), fmt.Sprintf("user%d@example.com", i))
		require.NoError(t, err)
	}
	_, err = pool.Exec(ctx, `INSERT INTO categories (name) VALUES ('concerts'), ('talks')`)
	require.NoError(t, err)
	return pool
}

func seedEvent(t *testing.T, events *EventRepository, mutate func(*model.Event)) *model.Event {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	published := now
	e := &model.Event{
		Annotation:        "An evening of live jazz downtown",
		Description:       "Three bands, one stage and a long night of improvisation.",
		Title:             "Jazz night",
		Category:          model.Category{ID: 1},
		Initiator:         model.UserShort{ID: 1},
		Location:          model.Location{Lat: 55.75, Lon: 37.62},
		EventDate:         now.Add(72 * time.Hour),
		CreatedOn:         now,
		PublishedOn:       &published,
		ParticipantLimit:  3,
		RequestModeration: true,
		State:             model.EventPublished,
	}
	if mutate != nil {
		mutate(e)
	}
	require.NoError(t, events.Create(context.Background(), e))
	return e
}

func TestCreateAndFind(t *testing.T) {
	pool := testPool(t)
	events := NewEventRepository(pool)
	ctx := context.Background()

	e := seedEvent(t, events, nil)
	got, err := events.FindForOwner(ctx, e.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jazz night", got.Title)
	assert.Equal(t, "concerts", got.Category.Name)
	assert.Equal(t, model.EventPublished, got.State)

	_, err = events.FindForOwner(ctx, e.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = events.FindForOwner(ctx, 9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	pending := seedEvent(t, events, func(e *model.Event) {
		e.State = model.EventPending
		e.PublishedOn = nil
	})
	_, err = events.FindPublished(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchFilters(t *testing.T) {
	pool := testPool(t)
	events := NewEventRepository(pool)
	ctx := context.Background()

	jazz := seedEvent(t, events, nil)
	talk := seedEvent(t, events, func(e *model.Event) {
		e.Title = "Go meetup"
		e.Annotation = "Talks about 100% concurrency"
		e.Category = model.Category{ID: 2}
		e.Paid = true
		e.ParticipantLimit = 0
	})
	seedEvent(t, events, func(e *model.Event) {
		e.State = model.EventPending
		e.PublishedOn = nil
	})

	start := time.Now().UTC()
	end := start.Add(7 * 24 * time.Hour)
	page := model.Page{From: 0, Size: 10}

	all, err := events.Search(ctx, model.EventFilter{Page: page}, start, end)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byText, err := events.Search(ctx, model.EventFilter{Text: "100%", Page: page}, start, end)
	require.NoError(t, err)
	require.Len(t, byText, 1)
	assert.Equal(t, talk.ID, byText[0].ID)

	paid := true
	byPaid, err := events.Search(ctx, model.EventFilter{Paid: &paid, Page: page}, start, end)
	require.NoError(t, err)
	require.Len(t, byPaid, 1)
	assert.Equal(t, talk.ID, byPaid[0].ID)

	byCategory, err := events.Search(ctx, model.EventFilter{Categories: []int64{1}, Page: page}, start, end)
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, jazz.ID, byCategory[0].ID)

	outside, err := events.Search(ctx, model.EventFilter{Page: page}, end, end.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestConcurrentConfirmationsRespectLimit(t *testing.T) {
	pool := testPool(t)
	events := NewEventRepository(pool)
	requests := NewRequestRepository(pool)
	ctx := context.Background()

	e := seedEvent(t, events, func(e *model.Event) { e.RequestModeration = false })

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
	)
	for user := int64(2); user <= 21; user++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			err := requests.WithEventLock(ctx, e.ID, func(tx RequestTx) error {
				if err := tx.AddConfirmed(ctx, 1); err != nil {
					return err
				}
				return tx.Insert(ctx, &model.ParticipationRequest{
					Created:   time.Now().UTC(),
					Requester: user,
					Status:    model.RequestConfirmed,
				})
			})
			if err == nil {
				mu.Lock()
				confirmed++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrLimitReached)
		}(user)
	}
	wg.Wait()

	assert.Equal(t, 3, confirmed)
	got, err := events.FindForOwner(ctx, e.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ConfirmedRequests)

	list, err := requests.ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestDuplicateActiveRequest(t *testing.T) {
	pool := testPool(t)
	events := NewEventRepository(pool)
	requests := NewRequestRepository(pool)
	ctx := context.Background()

	e := seedEvent(t, events, nil)
	insert := func() (*model.ParticipationRequest, error) {
		req := &model.ParticipationRequest{Created: time.Now().UTC(), Requester: 2, Status: model.RequestPending}
		err := requests.WithEventLock(ctx, e.ID, func(tx RequestTx) error {
			return tx.Insert(ctx, req)
		})
		return req, err
	}

	first, err := insert()
	require.NoError(t, err)
	_, err = insert()
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	require.NoError(t, requests.WithEventLock(ctx, e.ID, func(tx RequestTx) error {
		return tx.SetStatus(ctx, model.RequestCanceled, first.ID)
	}))
	_, err = insert()
	assert.NoError(t, err, "a canceled request does not block a new one")
}

func TestWithEventLockUnknownEvent(t *testing.T) {
	pool := testPool(t)
	requests := NewRequestRepository(pool)

	err := requests.WithEventLock(context.Background(), 4242, func(RequestTx) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

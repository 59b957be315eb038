package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
)

func action(a StateAction) *StateAction { return &a }

func TestEventUpdateApplyIsPartial(t *testing.T) {
	e := Event{
		Annotation:  "original annotation text",
		Description: "original description text",
		Title:       "Original",
		Category:    Category{ID: 1, Name: "concerts"},
		Paid:        true,
	}
	title := "Renamed"
	limit := 5
	date := time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC)
	u := EventUpdate{Title: &title, ParticipantLimit: &limit, EventDate: &jsontime.Time{Time: date}}

	u.Apply(&e, nil)

	assert.Equal(t, "Renamed", e.Title)
	assert.Equal(t, 5, e.ParticipantLimit)
	assert.Equal(t, date, e.EventDate)
	assert.Equal(t, "original annotation text", e.Annotation)
	assert.Equal(t, Category{ID: 1, Name: "concerts"}, e.Category)
	assert.True(t, e.Paid)
}

func TestEventUpdateApplyCategoryNeedsResolution(t *testing.T) {
	e := Event{Category: Category{ID: 1, Name: "concerts"}}
	id := int64(2)
	u := EventUpdate{Category: &id}

	u.Apply(&e, &Category{ID: 2, Name: "theatre"})
	assert.Equal(t, Category{ID: 2, Name: "theatre"}, e.Category)
}

func TestEventUpdateCheckRoleActions(t *testing.T) {
	assert.NoError(t, EventUpdate{StateAction: action(ActionCancelReview)}.Check(RoleInitiator))
	assert.NoError(t, EventUpdate{StateAction: action(ActionPublishEvent)}.Check(RoleAdmin))

	err := EventUpdate{StateAction: action(ActionPublishEvent)}.Check(RoleInitiator)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = EventUpdate{StateAction: action(ActionSendToReview)}.Check(RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = EventUpdate{StateAction: action("BOGUS")}.Check(RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEventUpdateCheckAllowsEveryFieldToBothRoles(t *testing.T) {
	text := "a description that is long enough"
	title := "Title"
	category := int64(1)
	paid := false
	limit := 3
	moderation := true
	u := EventUpdate{
		Annotation:        &text,
		Category:          &category,
		Description:       &text,
		EventDate:         &jsontime.Time{Time: time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC)},
		Location:          &Location{Lat: 1, Lon: 2},
		Paid:              &paid,
		ParticipantLimit:  &limit,
		RequestModeration: &moderation,
		Title:             &title,
	}
	assert.NoError(t, u.Check(RoleInitiator))
	assert.NoError(t, u.Check(RoleAdmin))
}

func TestEventUpdateTransition(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		action  *StateAction
		current EventState
		want    EventState
		kind    error
	}{
		{"initiator cancels review", RoleInitiator, action(ActionCancelReview), EventPending, EventCanceled, nil},
		{"initiator resubmits canceled", RoleInitiator, action(ActionSendToReview), EventCanceled, EventPending, nil},
		{"initiator edit without action", RoleInitiator, nil, EventPending, EventPending, nil},
		{"initiator cannot touch published", RoleInitiator, nil, EventPublished, "", apperr.ErrConflict},
		{"admin publishes", RoleAdmin, action(ActionPublishEvent), EventPending, EventPublished, nil},
		{"admin rejects", RoleAdmin, action(ActionRejectEvent), EventPending, EventCanceled, nil},
		{"admin edit keeps pending", RoleAdmin, nil, EventPending, EventPending, nil},
		{"admin republish", RoleAdmin, action(ActionPublishEvent), EventPublished, "", apperr.ErrConflict},
		{"admin publish canceled", RoleAdmin, action(ActionPublishEvent), EventCanceled, "", apperr.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EventUpdate{StateAction: tt.action}.Transition(tt.role, tt.current)
			if tt.kind != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventCapacityHelpers(t *testing.T) {
	unlimited := Event{ParticipantLimit: 0, ConfirmedRequests: 100, RequestModeration: true}
	assert.False(t, unlimited.IsFull())
	assert.True(t, unlimited.AutoConfirms())

	capped := Event{ParticipantLimit: 2, ConfirmedRequests: 2, RequestModeration: true}
	assert.True(t, capped.IsFull())
	assert.False(t, capped.AutoConfirms())

	capped.RequestModeration = false
	assert.True(t, capped.AutoConfirms())

	assert.Equal(t, "/events/5", (&Event{ID: 5}).URI())
}

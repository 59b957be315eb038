package model

import (
	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
)

// StateAction is the lifecycle instruction carried by an event update.
type StateAction string

const (
	ActionSendToReview StateAction = "SEND_TO_REVIEW"
	ActionCancelReview StateAction = "CANCEL_REVIEW"
	ActionPublishEvent StateAction = "PUBLISH_EVENT"
	ActionRejectEvent  StateAction = "REJECT_EVENT"
)

// Role identifies who is applying an event update.
type Role int

const (
	RoleInitiator Role = iota
	RoleAdmin
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "initiator"
}

var roleActions = map[Role][]StateAction{
	RoleInitiator: {ActionSendToReview, ActionCancelReview},
	RoleAdmin:     {ActionPublishEvent, ActionRejectEvent},
}

// EventUpdate is a partial update of an event. Nil fields are left untouched.
// The same value serves initiators and administrators; Check enforces which
// state actions each role may use.
type EventUpdate struct {
	Annotation        *string        `json:"annotation" validate:"omitempty,min=20,max=2000"`
	Category          *int64         `json:"category" validate:"omitempty,gt=0"`
	Description       *string        `json:"description" validate:"omitempty,min=20,max=7000"`
	EventDate         *jsontime.Time `json:"eventDate"`
	Location          *Location      `json:"location"`
	Paid              *bool          `json:"paid"`
	ParticipantLimit  *int           `json:"participantLimit" validate:"omitempty,gte=0"`
	RequestModeration *bool          `json:"requestModeration"`
	StateAction       *StateAction   `json:"stateAction"`
	Title             *string        `json:"title" validate:"omitempty,min=3,max=120"`
}

// Check rejects a state action the role is not allowed to use. Both roles may
// edit the same fields.
func (u EventUpdate) Check(role Role) error {
	if u.StateAction == nil {
		return nil
	}
	for _, a := range roleActions[role] {
		if a == *u.StateAction {
			return nil
		}
	}
	return apperr.Validation("state action %q is not available to %s", *u.StateAction, role)
}

// Transition returns the state an event in state current moves to when role
// applies u. Initiators may edit anything that is not yet published;
// administrators may only act on events waiting for review.
func (u EventUpdate) Transition(role Role, current EventState) (EventState, error) {
	switch role {
	case RoleAdmin:
		if current != EventPending {
			return "", apperr.Conflict("event can be moderated only while %s, current state is %s", EventPending, current)
		}
		if u.StateAction == nil {
			return current, nil
		}
		if *u.StateAction == ActionPublishEvent {
			return EventPublished, nil
		}
		return EventCanceled, nil
	default:
		if current == EventPublished {
			return "", apperr.Conflict("published event cannot be changed")
		}
		if u.StateAction != nil && *u.StateAction == ActionCancelReview {
			return EventCanceled, nil
		}
		return EventPending, nil
	}
}

// Apply copies the set fields onto e. When the update names a category the
// caller must pass the resolved category.
func (u EventUpdate) Apply(e *Event, category *Category) {
	if u.Annotation != nil {
		e.Annotation = *u.Annotation
	}
	if u.Category != nil && category != nil {
		e.Category = *category
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.EventDate != nil {
		e.EventDate = u.EventDate.Time
	}
	if u.Location != nil {
		e.Location = *u.Location
	}
	if u.Paid != nil {
		e.Paid = *u.Paid
	}
	if u.ParticipantLimit != nil {
		e.ParticipantLimit = *u.ParticipantLimit
	}
	if u.RequestModeration != nil {
		e.RequestModeration = *u.RequestModeration
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
}

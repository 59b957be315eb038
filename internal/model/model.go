// Package model defines the core domain types for the event platform.
package model

import (
	"fmt"
	"time"
)

// EventState is the publication lifecycle state of an event.
type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

// RequestStatus is the state of a participation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// EventSort selects the ordering of public search results.
type EventSort string

const (
	SortEventDate EventSort = "EVENT_DATE"
	SortViews     EventSort = "VIEWS"
)

// Location is a lat/lon pair attached to an event.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Category is the reference an event holds to its category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserShort is the reference an event holds to its initiator.
type UserShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Event is a persisted event row. View counts are never stored here; they are
// derived at read time from the statistics service.
type Event struct {
	ID                int64
	Annotation        string
	Description       string
	Title             string
	Category          Category
	Initiator         UserShort
	Location          Location
	EventDate         time.Time
	CreatedOn         time.Time
	PublishedOn       *time.Time
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
	ConfirmedRequests int
	State             EventState
}

// Unlimited reports whether the event accepts any number of participants.
func (e *Event) Unlimited() bool {
	return e.ParticipantLimit == 0
}

// IsFull returns true when a capped event has no seats left.
func (e *Event) IsFull() bool {
	return !e.Unlimited() && e.ConfirmedRequests >= e.ParticipantLimit
}

// AutoConfirms reports whether requests skip the initiator's moderation.
func (e *Event) AutoConfirms() bool {
	return !e.RequestModeration || e.Unlimited()
}

// URI is the public detail path of the event, as recorded in hits.
func (e *Event) URI() string {
	return EventURI(e.ID)
}

// EventURI builds the public detail path for an event id.
func EventURI(id int64) string {
	return fmt.Sprintf("/events/%d", id)
}

// ParticipationRequest is a user's request to take part in an event.
type ParticipationRequest struct {
	ID        int64
	Created   time.Time
	EventID   int64
	Requester int64
	Status    RequestStatus
}

// Comment is a user comment attached to an event.
type Comment struct {
	ID         int64
	EventID    int64
	AuthorID   int64
	AuthorName string
	Text       string
	Created    time.Time
	LastUpdate *time.Time
}

// ViewStats is the aggregated hit count for one (app, uri) pair.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// Page is an offset/limit window over a result set.
type Page struct {
	From int
	Size int
}

// DefaultPage is used when a caller omits paging parameters.
var DefaultPage = Page{From: 0, Size: 10}

// EventFilter holds the public search criteria. Nil pointers mean "not filtered".
type EventFilter struct {
	Text          string
	Categories    []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          EventSort
	Page          Page
}

// AdminEventFilter holds the administrator listing criteria.
type AdminEventFilter struct {
	Users      []int64
	States     []EventState
	Categories []int64
	RangeStart *time.Time
	RangeEnd   *time.Time
	Page       Page
}

// ErrorResponse is the JSON error envelope returned by both services.
type ErrorResponse struct {
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	ErrorID   string `json:"errorId,omitempty"`
}

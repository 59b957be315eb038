package model

import (
	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
)

// NewEventRequest is the payload for creating an event.
type NewEventRequest struct {
	Annotation        string        `json:"annotation" validate:"required,min=20,max=2000"`
	Category          int64         `json:"category" validate:"required,gt=0"`
	Description       string        `json:"description" validate:"required,min=20,max=7000"`
	EventDate         jsontime.Time `json:"eventDate"`
	Location          *Location     `json:"location" validate:"required"`
	Paid              *bool         `json:"paid"`
	ParticipantLimit  *int          `json:"participantLimit" validate:"omitempty,gte=0"`
	RequestModeration *bool         `json:"requestModeration"`
	Title             string        `json:"title" validate:"required,min=3,max=120"`
}

// StatusUpdateRequest is the initiator's bulk moderation payload.
type StatusUpdateRequest struct {
	RequestIDs []int64       `json:"requestIds" validate:"required,min=1,dive,gt=0"`
	Status     RequestStatus `json:"status" validate:"required"`
}

// StatusUpdateResult separates the processed requests by outcome.
type StatusUpdateResult struct {
	ConfirmedRequests []RequestDTO `json:"confirmedRequests"`
	RejectedRequests  []RequestDTO `json:"rejectedRequests"`
}

// RequestDTO is the wire form of a participation request.
type RequestDTO struct {
	ID        int64         `json:"id"`
	Created   jsontime.Time `json:"created"`
	Event     int64         `json:"event"`
	Requester int64         `json:"requester"`
	Status    RequestStatus `json:"status"`
}

// NewRequestDTO converts a domain request to its wire form.
func NewRequestDTO(r ParticipationRequest) RequestDTO {
	return RequestDTO{
		ID:        r.ID,
		Created:   jsontime.New(r.Created),
		Event:     r.EventID,
		Requester: r.Requester,
		Status:    r.Status,
	}
}

// NewRequestDTOs converts a slice, never returning nil.
func NewRequestDTOs(rs []ParticipationRequest) []RequestDTO {
	out := make([]RequestDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewRequestDTO(r))
	}
	return out
}

// CommentDTO is the wire form of a comment.
type CommentDTO struct {
	ID         int64          `json:"id"`
	AuthorName string         `json:"authorName"`
	Text       string         `json:"text"`
	Created    jsontime.Time  `json:"created"`
	LastUpdate *jsontime.Time `json:"lastUpdate,omitempty"`
}

func newCommentDTOs(cs []Comment) []CommentDTO {
	out := make([]CommentDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, CommentDTO{
			ID:         c.ID,
			AuthorName: c.AuthorName,
			Text:       c.Text,
			Created:    jsontime.New(c.Created),
			LastUpdate: jsontime.Ptr(c.LastUpdate),
		})
	}
	return out
}

// EventFull is the detailed read model of an event.
type EventFull struct {
	ID                int64          `json:"id"`
	Annotation        string         `json:"annotation"`
	Category          Category       `json:"category"`
	ConfirmedRequests int            `json:"confirmedRequests"`
	CreatedOn         jsontime.Time  `json:"createdOn"`
	Description       string         `json:"description"`
	EventDate         jsontime.Time  `json:"eventDate"`
	Initiator         UserShort      `json:"initiator"`
	Location          Location       `json:"location"`
	Paid              bool           `json:"paid"`
	ParticipantLimit  int            `json:"participantLimit"`
	PublishedOn       *jsontime.Time `json:"publishedOn"`
	RequestModeration bool           `json:"requestModeration"`
	State             EventState     `json:"state"`
	Title             string         `json:"title"`
	Views             int64          `json:"views"`
	Comments          []CommentDTO   `json:"comments"`
}

// NewEventFull builds the detailed read model.
func NewEventFull(e Event, views int64, comments []Comment) EventFull {
	return EventFull{
		ID:                e.ID,
		Annotation:        e.Annotation,
		Category:          e.Category,
		ConfirmedRequests: e.ConfirmedRequests,
		CreatedOn:         jsontime.New(e.CreatedOn),
		Description:       e.Description,
		EventDate:         jsontime.New(e.EventDate),
		Initiator:         e.Initiator,
		Location:          e.Location,
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		PublishedOn:       jsontime.Ptr(e.PublishedOn),
		RequestModeration: e.RequestModeration,
		State:             e.State,
		Title:             e.Title,
		Views:             views,
		Comments:          newCommentDTOs(comments),
	}
}

// EventShort is the summary read model used in lists.
type EventShort struct {
	ID                int64         `json:"id"`
	Annotation        string        `json:"annotation"`
	Category          Category      `json:"category"`
	ConfirmedRequests int           `json:"confirmedRequests"`
	EventDate         jsontime.Time `json:"eventDate"`
	Initiator         UserShort     `json:"initiator"`
	Paid              bool          `json:"paid"`
	Title             string        `json:"title"`
	Views             int64         `json:"views"`
	Comments          []CommentDTO  `json:"comments"`
}

// NewEventShort builds the summary read model.
func NewEventShort(e Event, views int64, comments []Comment) EventShort {
	return EventShort{
		ID:                e.ID,
		Annotation:        e.Annotation,
		Category:          e.Category,
		ConfirmedRequests: e.ConfirmedRequests,
		EventDate:         jsontime.New(e.EventDate),
		Initiator:         e.Initiator,
		Paid:              e.Paid,
		Title:             e.Title,
		Views:             views,
		Comments:          newCommentDTOs(comments),
	}
}

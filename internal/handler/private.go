package handler

import (
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/httpx"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// CreateEvent handles POST /users/{userId}/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req model.NewEventRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, event)
}

// ListOwnEvents handles GET /users/{userId}/events
func (h *Handler) ListOwnEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := pageParam(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	events, err := h.events.ListByInitiator(r.Context(), userID, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

// GetOwnEvent handles GET /users/{userId}/events/{eventId}
func (h *Handler) GetOwnEvent(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "userId", "eventId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	event, err := h.events.GetByInitiator(r.Context(), ids[0], ids[1])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, event)
}

// UpdateOwnEvent handles PATCH /users/{userId}/events/{eventId}
func (h *Handler) UpdateOwnEvent(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "userId", "eventId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var u model.EventUpdate
	if err := httpx.DecodeJSON(w, r, &u); err != nil {
		h.fail(w, r, err)
		return
	}

	event, err := h.events.UpdateByInitiator(r.Context(), ids[0], ids[1], u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, event)
}

// ListEventRequests handles GET /users/{userId}/events/{eventId}/requests
func (h *Handler) ListEventRequests(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "userId", "eventId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	reqs, err := h.requests.ListForEvent(r.Context(), ids[0], ids[1])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reqs)
}

// UpdateRequestStatuses handles PATCH /users/{userId}/events/{eventId}/requests
// Confirms or rejects a batch of the event's participation requests.
func (h *Handler) UpdateRequestStatuses(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "userId", "eventId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var in model.StatusUpdateRequest
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.requests.UpdateStatuses(r.Context(), ids[0], ids[1], in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// AddRequest handles POST /users/{userId}/requests?eventId=
func (h *Handler) AddRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw := r.URL.Query().Get("eventId")
	eventID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || eventID <= 0 {
		h.fail(w, r, apperr.Validation("eventId must be a positive integer, got %q", raw))
		return
	}

	req, err := h.requests.AddRequest(r.Context(), userID, eventID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, req)
}

// ListOwnRequests handles GET /users/{userId}/requests
func (h *Handler) ListOwnRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	reqs, err := h.requests.ListByRequester(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reqs)
}

// CancelRequest handles PATCH /users/{userId}/requests/{requestId}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "userId", "requestId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, err := h.requests.CancelRequest(r.Context(), ids[0], ids[1])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, req)
}

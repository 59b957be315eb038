package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/httpx"
)

// SearchEvents handles GET /events
// Public search over published events. Each successful call is recorded as a hit.
func (h *Handler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	f, err := eventFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	events, err := h.events.Search(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.recordHit(r)
	httpx.WriteJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{eventId}
// Returns a published event. Each successful call is recorded as a hit.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	event, err := h.events.GetPublished(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.recordHit(r)
	httpx.WriteJSON(w, http.StatusOK, event)
}

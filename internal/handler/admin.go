package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/httpx"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// AdminListEvents handles GET /admin/events
func (h *Handler) AdminListEvents(w http.ResponseWriter, r *http.Request) {
	f, err := adminEventFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	events, err := h.events.AdminList(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

// AdminUpdateEvent handles PATCH /admin/events/{eventId}
// Publishes or rejects a pending event, optionally editing it.
func (h *Handler) AdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var u model.EventUpdate
	if err := httpx.DecodeJSON(w, r, &u); err != nil {
		h.fail(w, r, err)
		return
	}

	event, err := h.events.UpdateByAdmin(r.Context(), id, u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, event)
}

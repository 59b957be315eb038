// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/httpx"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/statsclient"
)

// EventService is the event side of the domain layer.
type EventService interface {
	CreateEvent(ctx context.Context, userID int64, req model.NewEventRequest) (model.EventFull, error)
	ListByInitiator(ctx context.Context, userID int64, page model.Page) ([]model.EventShort, error)
	GetByInitiator(ctx context.Context, userID, eventID int64) (model.EventFull, error)
	UpdateByInitiator(ctx context.Context, userID, eventID int64, u model.EventUpdate) (model.EventFull, error)
	UpdateByAdmin(ctx context.Context, eventID int64, u model.EventUpdate) (model.EventFull, error)
	AdminList(ctx context.Context, f model.AdminEventFilter) ([]model.EventFull, error)
	Search(ctx context.Context, f model.EventFilter) ([]model.EventShort, error)
	GetPublished(ctx context.Context, eventID int64) (model.EventFull, error)
}

// RequestService is the participation request side of the domain layer.
type RequestService interface {
	AddRequest(ctx context.Context, userID, eventID int64) (model.RequestDTO, error)
	CancelRequest(ctx context.Context, userID, requestID int64) (model.RequestDTO, error)
	ListByRequester(ctx context.Context, userID int64) ([]model.RequestDTO, error)
	ListForEvent(ctx context.Context, userID, eventID int64) ([]model.RequestDTO, error)
	UpdateStatuses(ctx context.Context, userID, eventID int64, in model.StatusUpdateRequest) (model.StatusUpdateResult, error)
}

// HitRecorder forwards public page views to the statistics service.
type HitRecorder interface {
	Hit(ctx context.Context, h statsclient.Hit) error
}

// Handler holds all HTTP handlers of the main service.
type Handler struct {
	events   EventService
	requests RequestService
	hits     HitRecorder
	app      string
	logger   log.FieldLogger
}

// New constructs a Handler. app is the name hits are recorded under.
func New(events EventService, requests RequestService, hits HitRecorder, app string, logger log.FieldLogger) *Handler {
	return &Handler{events: events, requests: requests, hits: hits, app: app, logger: logger}
}

// Routes builds the router for the public, private and admin APIs.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", httpx.HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.SearchEvents)
		r.Get("/{eventId}", h.GetEvent)
	})

	r.Route("/users/{userId}", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.CreateEvent)
			r.Get("/", h.ListOwnEvents)
			r.Get("/{eventId}", h.GetOwnEvent)
			r.Patch("/{eventId}", h.UpdateOwnEvent)
			r.Get("/{eventId}/requests", h.ListEventRequests)
			r.Patch("/{eventId}/requests", h.UpdateRequestStatuses)
		})
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.AddRequest)
			r.Get("/", h.ListOwnRequests)
			r.Patch("/{requestId}/cancel", h.CancelRequest)
		})
	})

	r.Route("/admin/events", func(r chi.Router) {
		r.Get("/", h.AdminListEvents)
		r.Patch("/{eventId}", h.AdminUpdateEvent)
	})
	return r
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, h.logger, err)
}

// recordHit reports the current request to the statistics service. A failure
// is logged and otherwise ignored.
func (h *Handler) recordHit(r *http.Request) {
	err := h.hits.Hit(r.Context(), statsclient.Hit{
		App:       h.app,
		URI:       r.URL.Path,
		IP:        clientIP(r),
		Timestamp: jsontime.New(time.Now().UTC()),
	})
	if err != nil {
		h.logger.WithError(err).WithField("uri", r.URL.Path).Warn("failed to record hit")
	}
}

// clientIP returns the caller's address without the port. RealIP middleware
// has already replaced RemoteAddr when the request came through a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

func pathIDs(r *http.Request, names ...string) ([]int64, error) {
	out := make([]int64, len(names))
	for i, n := range names {
		id, err := pathID(r, n)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

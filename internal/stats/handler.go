package stats

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/httpx"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
)

// Handler serves the statistics API.
type Handler struct {
	svc    *Service
	logger log.FieldLogger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger log.FieldLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes builds the statistics router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", httpx.HealthCheck)
	r.Post("/hit", h.SaveHit)
	r.Get("/stats", h.GetStats)
	return r
}

// SaveHit handles POST /hit
func (h *Handler) SaveHit(w http.ResponseWriter, r *http.Request) {
	var req HitRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	hit, err := h.svc.RecordHit(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, hit)
}

// GetStats handles GET /stats?start=&end=&uris=&unique=
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	stats, err := h.svc.Stats(r.Context(), q)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

func parseQuery(r *http.Request) (Query, error) {
	v := r.URL.Query()
	var (
		q   Query
		err error
	)
	if q.Start, err = requiredTime(v.Get("start"), "start"); err != nil {
		return q, err
	}
	if q.End, err = requiredTime(v.Get("end"), "end"); err != nil {
		return q, err
	}

	for _, u := range v["uris"] {
		for _, part := range strings.Split(u, ",") {
			if part = strings.TrimSpace(part); part != "" {
				q.URIs = append(q.URIs, part)
			}
		}
	}

	if raw := v.Get("unique"); raw != "" {
		if q.Unique, err = strconv.ParseBool(raw); err != nil {
			return q, apperr.Validation("unique must be true or false, got %q", raw)
		}
	}
	return q, nil
}

func requiredTime(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperr.Validation("%s is required", name)
	}
	t, err := jsontime.Parse(raw)
	if err != nil {
		return time.Time{}, apperr.Validation("%s must use format %q, got %q", name, jsontime.Layout, raw)
	}
	return t, nil
}

package stats

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// Store persists and aggregates hits. *Repository satisfies it.
type Store interface {
	Save(ctx context.Context, h *Hit) error
	Stats(ctx context.Context, q Query) ([]model.ViewStats, error)
}

// Service validates statistics requests.
type Service struct {
	store  Store
	logger log.FieldLogger
}

// NewService constructs a Service.
func NewService(store Store, logger log.FieldLogger) *Service {
	return &Service{store: store, logger: logger}
}

// RecordHit stores one page view.
func (s *Service) RecordHit(ctx context.Context, req HitRequest) (HitResponse, error) {
	if req.Timestamp.IsZero() {
		return HitResponse{}, apperr.Validation("timestamp is required")
	}
	h := Hit{
		App:     req.App,
		URI:     req.URI,
		IP:      req.IP,
		Created: req.Timestamp.UTC(),
	}
	if err := s.store.Save(ctx, &h); err != nil {
		return HitResponse{}, err
	}
	s.logger.WithFields(log.Fields{"app": h.App, "uri": h.URI}).Debug("hit recorded")
	return HitResponse{
		ID:        h.ID,
		App:       h.App,
		URI:       h.URI,
		IP:        h.IP,
		Timestamp: jsontime.New(h.Created),
	}, nil
}

// Stats returns aggregated counts for q.
func (s *Service) Stats(ctx context.Context, q Query) ([]model.ViewStats, error) {
	if q.Start.After(q.End) {
		return nil, apperr.Validation("start %s is after end %s", jsontime.Format(q.Start), jsontime.Format(q.End))
	}
	q.Start, q.End = q.Start.UTC(), q.End.UTC()
	return s.store.Stats(ctx, q)
}

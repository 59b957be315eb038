// Package views derives event view counts from the statistics service.
//
// Counts are never stored with the event; every read asks the statistics
// service (optionally through a short-lived cache) for the number of distinct
// client IPs that opened each event's public page since it was published.
package views

import (
	"context"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/statsclient"
)

// StatsSource is the part of the statistics client the aggregator needs.
type StatsSource interface {
	Stats(ctx context.Context, q statsclient.Query) ([]model.ViewStats, error)
}

// Cache stores recent counts keyed by event URI. Get returns only the URIs it
// knows about.
type Cache interface {
	Get(ctx context.Context, uris []string) (map[string]int64, error)
	Set(ctx context.Context, counts map[string]int64) error
}

// Aggregator computes view counts for batches of events.
type Aggregator struct {
	stats   StatsSource
	cache   Cache
	app     string
	timeout time.Duration
	logger  log.FieldLogger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewAggregator returns an Aggregator counting hits recorded under app.
// cache may be nil.
func NewAggregator(stats StatsSource, cache Cache, app string, timeout time.Duration, logger log.FieldLogger) *Aggregator {
	return &Aggregator{
		stats:   stats,
		cache:   cache,
		app:     app,
		timeout: timeout,
		logger:  logger,
		tracer:  otel.Tracer("github.com/Shivanand-hulikatti/explore-with-me/internal/views"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Views returns the unique view count of every event, keyed by event id.
// Unpublished events and events the statistics service cannot answer for
// report zero; a failing or slow statistics service never fails the caller.
func (a *Aggregator) Views(ctx context.Context, events []model.Event) map[int64]int64 {
	counts := make(map[int64]int64, len(events))
	var (
		uris  []string
		start time.Time
	)
	for i := range events {
		e := &events[i]
		counts[e.ID] = 0
		if e.PublishedOn == nil {
			continue
		}
		uris = append(uris, e.URI())
		if start.IsZero() || e.PublishedOn.Before(start) {
			start = *e.PublishedOn
		}
	}
	if len(uris) == 0 {
		return counts
	}

	ctx, span := a.tracer.Start(ctx, "views.aggregate", trace.WithAttributes(attribute.Int("events", len(uris))))
	defer span.End()

	missing := uris
	if a.cache != nil {
		cached, err := a.cache.Get(ctx, uris)
		if err != nil {
			a.logger.WithError(err).Warn("views cache read failed")
		}
		missing = missing[:0:0]
		for _, uri := range uris {
			n, ok := cached[uri]
			if !ok {
				missing = append(missing, uri)
				continue
			}
			if id, ok := eventID(uri); ok {
				counts[id] = n
			}
		}
		span.SetAttributes(attribute.Int("cache.hits", len(uris)-len(missing)))
		if len(missing) == 0 {
			return counts
		}
	}

	qctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	rows, err := a.stats.Stats(qctx, statsclient.Query{
		Start:  start,
		End:    a.now(),
		URIs:   missing,
		Unique: true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stats unavailable")
		a.logger.WithError(err).WithField("uris", len(missing)).Warn("statistics service unavailable, reporting zero views")
		return counts
	}

	fresh := make(map[string]int64, len(missing))
	for _, uri := range missing {
		fresh[uri] = 0
	}
	for _, row := range rows {
		if _, asked := fresh[row.URI]; !asked || row.App != a.app {
			continue
		}
		fresh[row.URI] += row.Hits
	}
	for uri, n := range fresh {
		if id, ok := eventID(uri); ok {
			counts[id] = n
		}
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, fresh); err != nil {
			a.logger.WithError(err).Warn("views cache write failed")
		}
	}
	return counts
}

// eventID extracts the id from a "/events/{id}" URI.
func eventID(uri string) (int64, bool) {
	i := strings.LastIndexByte(uri, '/')
	if i < 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(uri[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Package statsclient talks to the statistics service over HTTP.
package statsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// Hit is one page view as sent to POST /hit.
type Hit struct {
	App       string        `json:"app"`
	URI       string        `json:"uri"`
	IP        string        `json:"ip"`
	Timestamp jsontime.Time `json:"timestamp"`
}

// Query selects aggregated counts from GET /stats.
type Query struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}

// StatusError is returned when the service answers with an unexpected status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stats service returned %d: %s", e.Code, e.Body)
}

// Client is a thin JSON client for the statistics service.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// New returns a client for baseURL. timeout bounds every call, including
// connection setup; callers may shorten it further through the context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("github.com/Shivanand-hulikatti/explore-with-me/internal/statsclient"),
	}
}

// Hit records a page view.
func (c *Client) Hit(ctx context.Context, h Hit) error {
	ctx, span := c.tracer.Start(ctx, "stats.hit", trace.WithAttributes(attribute.String("uri", h.URI)))
	defer span.End()

	body, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode hit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build hit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("post hit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		err := statusError(resp)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Stats fetches aggregated view counts.
func (c *Client) Stats(ctx context.Context, q Query) ([]model.ViewStats, error) {
	ctx, span := c.tracer.Start(ctx, "stats.query", trace.WithAttributes(
		attribute.Int("uris", len(q.URIs)),
		attribute.Bool("unique", q.Unique),
	))
	defer span.End()

	params := url.Values{}
	params.Set("start", jsontime.Format(q.Start))
	params.Set("end", jsontime.Format(q.End))
	params.Set("unique", strconv.FormatBool(q.Unique))
	for _, u := range q.URIs {
		params.Add("uris", u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build stats request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("get stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := statusError(resp)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var stats []model.ViewStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

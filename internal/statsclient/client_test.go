package statsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

func TestClientHit(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hit", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL+"/", time.Second)
	err := c.Hit(context.Background(), Hit{
		App:       "ewm-main-service",
		URI:       "/events/1",
		IP:        "10.0.0.1",
		Timestamp: jsontime.New(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"app":       "ewm-main-service",
		"uri":       "/events/1",
		"ip":        "10.0.0.1",
		"timestamp": "2024-01-01 12:00:00",
	}, got)
}

func TestClientStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/stats", r.URL.Path)
		assert.Equal(t, "2024-01-01 00:00:00", q.Get("start"))
		assert.Equal(t, "2024-01-02 00:00:00", q.Get("end"))
		assert.Equal(t, "true", q.Get("unique"))
		assert.Equal(t, []string{"/events/1", "/events/2"}, q["uris"])
		_ = json.NewEncoder(w).Encode([]model.ViewStats{{App: "ewm-main-service", URI: "/events/1", Hits: 4}})
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	stats, err := c.Stats(context.Background(), Query{
		Start:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		URIs:   []string{"/events/1", "/events/2"},
		Unique: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []model.ViewStats{{App: "ewm-main-service", URI: "/events/1", Hits: 4}}, stats)
}

func TestClientStatsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "start is after end", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, time.Second).Stats(context.Background(), Query{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Contains(t, se.Body, "start is after end")
}

func TestClientTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	_, err := New(srv.URL, 50*time.Millisecond).Stats(context.Background(), Query{})
	assert.Error(t, err)
}

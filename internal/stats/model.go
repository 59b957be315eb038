// Package stats implements the statistics service: it stores page hits and
// answers aggregated hit counts per (app, uri).
package stats

import (
	"time"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
)

// Hit is one stored page view.
type Hit struct {
	ID      uint64    `gorm:"primaryKey"`
	App     string    `gorm:"size:255;not null"`
	URI     string    `gorm:"column:uri;size:512;not null;index:idx_hits_uri_created,priority:1"`
	IP      string    `gorm:"column:ip;size:64;not null"`
	Created time.Time `gorm:"not null;index:idx_hits_uri_created,priority:2"`
}

// TableName pins the table name.
func (Hit) TableName() string { return "hits" }

// HitRequest is the body of POST /hit.
type HitRequest struct {
	App       string        `json:"app" validate:"required,max=255"`
	URI       string        `json:"uri" validate:"required,max=512"`
	IP        string        `json:"ip" validate:"required,ip"`
	Timestamp jsontime.Time `json:"timestamp"`
}

// HitResponse echoes a stored hit.
type HitResponse struct {
	ID        uint64        `json:"id"`
	App       string        `json:"app"`
	URI       string        `json:"uri"`
	IP        string        `json:"ip"`
	Timestamp jsontime.Time `json:"timestamp"`
}

// Query selects the hits to aggregate. Empty URIs means every uri.
type Query struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}

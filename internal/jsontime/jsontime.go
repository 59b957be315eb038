// Package jsontime handles the "yyyy-MM-dd HH:mm:ss" timestamps used on the wire
// by both the main service and the statistics service.
package jsontime

import (
	"bytes"
	"fmt"
	"time"
)

// Layout is the wire format of every timestamp in the public API.
const Layout = "2006-01-02 15:04:05"

// Time marshals as Layout in UTC.
type Time struct {
	time.Time
}

// New wraps t.
func New(t time.Time) Time { return Time{Time: t} }

// Ptr wraps t, keeping nil as nil.
func Ptr(t *time.Time) *Time {
	if t == nil {
		return nil
	}
	return &Time{Time: *t}
}

// Parse reads a Layout string as UTC.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// Format renders t in Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + Format(t.Time) + `"`), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("jsontime: expected quoted string, got %s", b)
	}
	parsed, err := Parse(string(b[1 : len(b)-1]))
	if err != nil {
		return fmt.Errorf("jsontime: %w", err)
	}
	t.Time = parsed
	return nil
}

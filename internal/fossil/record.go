// Package fossil defines the record model shared by every analysis in strata.
package fossil

import (
	"strings"
	"time"
)

// DayMs is one day in unix milliseconds.
const DayMs = int64(86_400_000)

// DayKeyLayout is the calendar-day bucket format.
const DayKeyLayout = "2006-01-02"

// Record is a single compressed knowledge capture ("fossil").
type Record struct {
	ID          string   `json:"id"`
	Invariant   string   `json:"invariant"`
	ProbeIntent string   `json:"probe_intent"`
	Primitives  []string `json:"primitives,omitempty"`
	Payload     string   `json:"payload,omitempty"`

	CreatedAt       int64  `json:"created_at"` // Unix millis
	DayKey          string `json:"day_key"`
	LastRevisitedAt *int64 `json:"last_revisited_at"`

	Quality        int     `json:"quality"` // 1-5
	Deleted        bool    `json:"deleted"`
	ReuseCount     int     `json:"reuse_count"`
	ReinforceCount int     `json:"reinforce_count"`
	DismissCount   int     `json:"dismiss_count"`
	SkipCount      int     `json:"skip_count"`
	DismissedUntil *int64  `json:"dismissed_until"`
	SupersededBy   *string `json:"superseded_by"`
	ReentryOf      *string `json:"reentry_of"`
}

// Visible reports whether the record takes part in similarity, scoring and graph work.
func (r *Record) Visible() bool {
	return !r.Deleted && r.SupersededBy == nil
}

// Text is the composite text used for tokenization.
func (r *Record) Text() string {
	if r.ProbeIntent == "" {
		return r.Invariant
	}
	if r.Invariant == "" {
		return r.ProbeIntent
	}
	return r.ProbeIntent + " " + r.Invariant
}

// Parent returns the re-entry parent id, or "" when there is none.
func (r *Record) Parent() string {
	if r.ReentryOf == nil || *r.ReentryOf == r.ID {
		return ""
	}
	return *r.ReentryOf
}

// Created returns CreatedAt as a time.Time.
func (r *Record) Created() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// LastTouched returns LastRevisitedAt, falling back to CreatedAt.
func (r *Record) LastTouched() int64 {
	if r.LastRevisitedAt != nil {
		return *r.LastRevisitedAt
	}
	return r.CreatedAt
}

// Normalize returns a copy of records with defaults filled in.
// Quality is clamped to [1,5] (0 means unset and becomes 3), counters are
// non-negative, empty optional strings become nil and a missing DayKey is
// derived from CreatedAt in UTC.
func Normalize(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.ID = strings.TrimSpace(r.ID)
		r.Invariant = strings.TrimSpace(r.Invariant)
		r.ProbeIntent = strings.TrimSpace(r.ProbeIntent)

		switch {
		case r.Quality == 0:
			r.Quality = 3
		case r.Quality < 1:
			r.Quality = 1
		case r.Quality > 5:
			r.Quality = 5
		}
		r.ReuseCount = max(r.ReuseCount, 0)
		r.ReinforceCount = max(r.ReinforceCount, 0)
		r.DismissCount = max(r.DismissCount, 0)
		r.SkipCount = max(r.SkipCount, 0)

		r.SupersededBy = blankToNil(r.SupersededBy)
		r.ReentryOf = blankToNil(r.ReentryOf)

		if r.DayKey == "" && r.CreatedAt != 0 {
			r.DayKey = time.UnixMilli(r.CreatedAt).UTC().Format(DayKeyLayout)
		}
		if len(r.Primitives) > 0 {
			r.Primitives = append([]string(nil), r.Primitives...)
		}
		out[i] = r
	}
	return out
}

// VisibleOnly filters records down to the visible ones, preserving order.
func VisibleOnly(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for i := range records {
		if records[i].Visible() {
			out = append(out, records[i])
		}
	}
	return out
}

// DayKeyOf formats t as a day bucket in t's location.
func DayKeyOf(t time.Time) string {
	return t.Format(DayKeyLayout)
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

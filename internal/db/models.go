package db

import "errors"

var (
	// ErrFossilNotFound is returned when no fossil has the requested id.
	ErrFossilNotFound = errors.New("fossil not found")
	// ErrAmbiguousReference is returned when a reference matches more than one fossil.
	ErrAmbiguousReference = errors.New("ambiguous reference")
)

// Edge represents a row in the edges table. Only manual links are stored;
// reentry and semantic edges are derived from the fossils themselves.
type Edge struct {
	ID        string  `json:"id"`
	SourceID  string  `json:"source_id"`
	TargetID  string  `json:"target_id"`
	Weight    float64 `json:"weight"`
	Reason    *string `json:"reason"`
	CreatedAt int64   `json:"created_at"` // Unix millis
}

const fossilColumns = `id, invariant, probe_intent, primitives, payload, created_at, day_key,
	last_revisited_at, quality, deleted, reuse_count, reinforce_count, dismiss_count,
	skip_count, dismissed_until, superseded_by, reentry_of`

const edgeColumns = `id, source_id, target_id, weight, reason, created_at`

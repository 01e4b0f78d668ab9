package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fossilbed/strata/internal/fossil"
)

// InsertFossil stores r and returns its ID. An empty ID gets a fresh UUID,
// a zero CreatedAt becomes now, and the record is normalized before writing.
func (d *DB) InsertFossil(r fossil.Record) (string, error) {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixMilli()
	}
	r = fossil.Normalize([]fossil.Record{r})[0]

	primitives := r.Primitives
	if primitives == nil {
		primitives = []string{}
	}
	encoded, err := json.Marshal(primitives)
	if err != nil {
		return "", fmt.Errorf("encoding primitives: %w", err)
	}

	_, err = d.conn.Exec(`INSERT INTO fossils (`+fossilColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Invariant, r.ProbeIntent, string(encoded), r.Payload, r.CreatedAt, r.DayKey,
		r.LastRevisitedAt, r.Quality, r.Deleted, r.ReuseCount, r.ReinforceCount, r.DismissCount,
		r.SkipCount, r.DismissedUntil, r.SupersededBy, r.ReentryOf,
	)
	if err != nil {
		return "", fmt.Errorf("inserting fossil: %w", err)
	}
	return r.ID, nil
}

// MarkRevisited records that a fossil was shown again at the given time.
func (d *DB) MarkRevisited(id string, at time.Time) error {
	return d.update(id, "marking revisited", `UPDATE fossils SET last_revisited_at = ? WHERE id = ?`, at.UnixMilli(), id)
}

// Dismiss hides a fossil from resurfacing until the given time and counts the dismissal.
func (d *DB) Dismiss(id string, until time.Time) error {
	return d.update(id, "dismissing",
		`UPDATE fossils SET dismissed_until = ?, dismiss_count = dismiss_count + 1 WHERE id = ?`,
		until.UnixMilli(), id)
}

// Reinforce counts one explicit confirmation of a fossil.
func (d *DB) Reinforce(id string) error {
	return d.update(id, "reinforcing", `UPDATE fossils SET reinforce_count = reinforce_count + 1 WHERE id = ?`, id)
}

// DeleteFossil soft-deletes a fossil. It stays in the store but leaves every analysis.
func (d *DB) DeleteFossil(id string) error {
	return d.update(id, "deleting", `UPDATE fossils SET deleted = 1 WHERE id = ?`, id)
}

func (d *DB) update(id, action, query string, args ...any) error {
	res, err := d.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%s fossil %s: %w", action, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s fossil %s: %w", action, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s fossil: %w: %s", action, ErrFossilNotFound, id)
	}
	return nil
}

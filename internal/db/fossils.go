package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fossilbed/strata/internal/fossil"
)

// scanFossil scans a row into a Record. The row must have all fossilColumns in order.
func scanFossil(scanner interface{ Scan(dest ...any) error }) (fossil.Record, error) {
	var r fossil.Record
	var primitives string
	err := scanner.Scan(
		&r.ID, &r.Invariant, &r.ProbeIntent, &primitives, &r.Payload, &r.CreatedAt, &r.DayKey,
		&r.LastRevisitedAt, &r.Quality, &r.Deleted, &r.ReuseCount, &r.ReinforceCount, &r.DismissCount,
		&r.SkipCount, &r.DismissedUntil, &r.SupersededBy, &r.ReentryOf,
	)
	if err != nil {
		return r, err
	}
	if primitives != "" {
		if err := json.Unmarshal([]byte(primitives), &r.Primitives); err != nil {
			return r, fmt.Errorf("decoding primitives of %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func scanFossils(rows *sql.Rows) ([]fossil.Record, error) {
	defer rows.Close()

	var out []fossil.Record
	for rows.Next() {
		r, err := scanFossil(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllFossils returns every fossil, deleted and superseded ones included,
// ordered by created_at descending.
func (d *DB) AllFossils() ([]fossil.Record, error) {
	rows, err := d.conn.Query(`SELECT ` + fossilColumns + ` FROM fossils ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing fossils: %w", err)
	}
	return scanFossils(rows)
}

// GetFossil returns a single fossil by ID. A missing id yields ErrFossilNotFound.
func (d *DB) GetFossil(id string) (*fossil.Record, error) {
	row := d.conn.QueryRow(`SELECT `+fossilColumns+` FROM fossils WHERE id = ?`, id)
	r, err := scanFossil(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrFossilNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SearchByIDPrefix finds visible fossils whose ID starts with the given prefix.
func (d *DB) SearchByIDPrefix(prefix string, limit int) ([]fossil.Record, error) {
	rows, err := d.conn.Query(`
		SELECT `+fossilColumns+` FROM fossils
		WHERE id LIKE ? ESCAPE '\' AND deleted = 0 AND superseded_by IS NULL
		ORDER BY id LIMIT ?
	`, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, err
	}
	return scanFossils(rows)
}

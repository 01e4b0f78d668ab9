package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fossilbed/strata/internal/graph"
)

// scanEdge scans a row into an Edge. The row must have all edgeColumns in order.
func scanEdge(scanner interface{ Scan(dest ...any) error }) (Edge, error) {
	var e Edge
	err := scanner.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Weight, &e.Reason, &e.CreatedAt)
	return e, err
}

// AllEdges returns all stored links, oldest first.
func (d *DB) AllEdges() ([]Edge, error) {
	rows, err := d.conn.Query(`SELECT ` + edgeColumns + ` FROM edges ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// GetEdgesForFossil returns all edges where the given fossil is source OR target.
func (d *DB) GetEdgesForFossil(id string) ([]Edge, error) {
	rows, err := d.conn.Query(`
		SELECT `+edgeColumns+` FROM edges
		WHERE source_id = ? OR target_id = ?
		ORDER BY created_at, id
	`, id, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ManualEdges returns the stored links as graph edges.
func (d *DB) ManualEdges() ([]graph.Edge, error) {
	stored, err := d.AllEdges()
	if err != nil {
		return nil, err
	}
	out := make([]graph.Edge, len(stored))
	for i, e := range stored {
		out[i] = graph.Edge{Source: e.SourceID, Target: e.TargetID, Type: graph.EdgeManual, Weight: e.Weight}
	}
	return out, nil
}

// AddManualEdge links two existing fossils and returns the new edge ID.
// Weight is clamped to [0,1]; an empty reason is stored as NULL.
func (d *DB) AddManualEdge(sourceID, targetID string, weight float64, reason string) (string, error) {
	if sourceID == targetID {
		return "", fmt.Errorf("linking %s to itself", sourceID)
	}
	for _, id := range []string{sourceID, targetID} {
		if _, err := d.GetFossil(id); err != nil {
			return "", err
		}
	}
	weight = min(max(weight, 0), 1)

	var reasonArg any
	if reason != "" {
		reasonArg = reason
	}
	id := uuid.NewString()
	_, err := d.conn.Exec(`INSERT INTO edges (`+edgeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id, sourceID, targetID, weight, reasonArg, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("creating edge: %w", err)
	}
	return id, nil
}

// DeleteEdge removes a stored link. Deleting a missing edge is not an error.
func (d *DB) DeleteEdge(id string) error {
	if _, err := d.conn.Exec(`DELETE FROM edges WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting edge %s: %w", id, err)
	}
	return nil
}

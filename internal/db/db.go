// Package db is the SQLite store for fossils and manually drawn links.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

const schema = `
CREATE TABLE IF NOT EXISTS fossils (
	id                TEXT PRIMARY KEY,
	invariant         TEXT NOT NULL DEFAULT '',
	probe_intent      TEXT NOT NULL DEFAULT '',
	primitives        TEXT NOT NULL DEFAULT '[]',
	payload           TEXT NOT NULL DEFAULT '',
	created_at        INTEGER NOT NULL,
	day_key           TEXT NOT NULL DEFAULT '',
	last_revisited_at INTEGER,
	quality           INTEGER NOT NULL DEFAULT 3,
	deleted           INTEGER NOT NULL DEFAULT 0,
	reuse_count       INTEGER NOT NULL DEFAULT 0,
	reinforce_count   INTEGER NOT NULL DEFAULT 0,
	dismiss_count     INTEGER NOT NULL DEFAULT 0,
	skip_count        INTEGER NOT NULL DEFAULT 0,
	dismissed_until   INTEGER,
	superseded_by     TEXT,
	reentry_of        TEXT
);
CREATE INDEX IF NOT EXISTS idx_fossils_created ON fossils(created_at);

CREATE TABLE IF NOT EXISTS edges (
	id         TEXT PRIMARY KEY,
	source_id  TEXT NOT NULL REFERENCES fossils(id) ON DELETE CASCADE,
	target_id  TEXT NOT NULL REFERENCES fossils(id) ON DELETE CASCADE,
	weight     REAL NOT NULL DEFAULT 1,
	reason     TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
`

// connPragmas run on every pooled connection the driver opens.
const connPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled,
// creating the schema when it is missing.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+connPragmas+"&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return setup(conn, path)
}

// OpenMemory opens a private in-memory database. Used by tests.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:"+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// every pooled connection would get its own empty database
	conn.SetMaxOpenConns(1)
	return setup(conn, ":memory:")
}

func setup(conn *sql.DB, path string) (*DB, error) {
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DB{conn: conn, Path: path}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}

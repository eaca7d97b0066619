// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — a single file inside the deployment, no
// separate server to install or manage. For a single-node API like this one
// it covers everything the data model needs: UNIQUE constraints, foreign
// keys, range queries over timestamps.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C compiler and painful
// cross-compilation. modernc.org/sqlite is a pure Go translation of SQLite —
// it works everywhere Go works, and tests can run against ":memory:".
//
// The pattern throughout this package is std database/sql:
//  1. sql.Open(driverName, dataSourceName) → connection pool
//  2. db.QueryContext / db.ExecContext     → run queries
//  3. rows.Scan(&field1, &field2)          → read results into Go values
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// BLANK IMPORT:
	// Side-effect-only import — the driver's init() registers itself with
	// database/sql under the name "sqlite". After this, sql.Open("sqlite", …)
	// knows how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and owns the schema. The repository
// interfaces are implemented by per-entity facets (Users, Meals, Posts,
// Partners) that share the pool — the facet types exist because the
// interfaces use the same method names (Create, GetByID, …) for different
// entities, which a single receiver type can't provide.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository facet.
func (db *DB) Users() *UserStore { return &UserStore{conn: db.conn} }

// Meals returns the meal repository facet.
func (db *DB) Meals() *MealStore { return &MealStore{conn: db.conn} }

// Posts returns the blog post repository facet.
func (db *DB) Posts() *PostStore { return &PostStore{conn: db.conn} }

// Partners returns the partner repository facet.
func (db *DB) Partners() *PartnerStore { return &PartnerStore{conn: db.conn} }

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/dailybite.db" → file-based, persistent
//   - ":memory:"          → in-memory, lost on close (used by tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open doesn't actually connect — Ping forces a real connection so
	// a bad path or permissions problem surfaces at startup, not on the
	// first request.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed concurrently with a write — important for a
	// web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; meals reference users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New — it
// flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every startup.
func (db *DB) migrate() error {
	// Identity store. Email and username both carry UNIQUE — the database
	// is the final enforcement point for the uniqueness invariant, whatever
	// races happen above it.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                 TEXT PRIMARY KEY,
			email              TEXT NOT NULL UNIQUE,
			username           TEXT NOT NULL UNIQUE,
			password_hash      TEXT NOT NULL,
			calorie_goal       INTEGER NOT NULL DEFAULT 2000,
			is_active          INTEGER NOT NULL DEFAULT 1,
			auto_delete_images INTEGER NOT NULL DEFAULT 1,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Meal ledger. items_json holds the detected food items as a JSON
	// array — they're only ever read and written as a unit, never queried
	// field-by-field, so a TEXT column beats a join table here.
	// timestamp is stored in UTC (see meal.go) so range comparisons are
	// well ordered.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS meals (
			id                 TEXT PRIMARY KEY,
			user_id            TEXT NOT NULL REFERENCES users(id),
			timestamp          DATETIME NOT NULL,
			estimated_calories INTEGER NOT NULL DEFAULT 0,
			items_json         TEXT NOT NULL DEFAULT '[]',
			status             TEXT NOT NULL DEFAULT 'pending',
			image_ref          TEXT NOT NULL DEFAULT '',
			confidence         REAL NOT NULL DEFAULT 0,
			notes              TEXT NOT NULL DEFAULT '',
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_meals_user_id ON meals(user_id);
		CREATE INDEX IF NOT EXISTS idx_meals_user_timestamp ON meals(user_id, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("creating meals table: %w", err)
	}

	// Legacy blog posts.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS blog_posts (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			published  INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating blog_posts table: %w", err)
	}

	// Legacy partners.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS partners (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE,
			company    TEXT NOT NULL,
			phone      TEXT NOT NULL DEFAULT '',
			website    TEXT NOT NULL DEFAULT '',
			active     INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating partners table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure, and if so which column tripped it (e.g. "users.email").
//
// modernc.org/sqlite surfaces constraint failures as plain errors with the
// message "constraint failed: UNIQUE constraint failed: users.email"; the
// driver doesn't export a typed error for it, so we match the message.
func isUniqueViolation(err error) (column string, ok bool) {
	if err == nil {
		return "", false
	}
	const marker = "UNIQUE constraint failed: "
	msg := err.Error()
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	column = msg[idx+len(marker):]
	if end := strings.IndexAny(column, " ("); end >= 0 {
		column = column[:end]
	}
	return strings.TrimSpace(column), true
}

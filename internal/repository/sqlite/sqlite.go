// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C
// compiler installed and cross-compilation becomes painful. modernc.org/sqlite
// is a pure Go translation of the SQLite C code — no C compiler needed.
//
// CONSTRAINTS AS THE FINAL AUTHORITY:
// All the uniqueness rules of this domain (one favorite per user+recipe, one
// cart entry, one subscription, one line item per recipe+ingredient, unique
// emails/usernames/tag slugs/short tokens) live in the schema as UNIQUE
// constraints. Service-level existence pre-checks are an optimization for
// nicer error messages; when two requests race, the constraint decides and
// the loser gets a Conflict error translated by isUniqueViolation below.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	// The driver package's init() registers itself with database/sql as a
	// driver named "sqlite", so sql.Open("sqlite", ...) works after this
	// import. We also need the package by name: isUniqueViolation below
	// unwraps its error type to recognise constraint violations.
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// One struct implements all the repository interfaces — the service layer
// only ever sees the interfaces, so this stays an implementation detail.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/foodgram.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping verifies the connection actually works. Without this, a bad
	// path or permissions issue would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening —
	// important for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We need them ON: recipes
	// reference users (SET NULL on delete), join tables cascade.
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

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent — safe to run on every startup.
func (db *DB) migrate() error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				username      TEXT NOT NULL UNIQUE,
				first_name    TEXT NOT NULL,
				last_name     TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				avatar        TEXT NOT NULL DEFAULT '',
				is_admin      INTEGER NOT NULL DEFAULT 0,
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			);
		`},
		{"tags", `
			CREATE TABLE IF NOT EXISTS tags (
				id   TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				slug TEXT NOT NULL UNIQUE
			);
		`},
		{"ingredients", `
			CREATE TABLE IF NOT EXISTS ingredients (
				id               TEXT PRIMARY KEY,
				name             TEXT NOT NULL,
				measurement_unit TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients(name);
		`},
		{"recipes", `
			CREATE TABLE IF NOT EXISTS recipes (
				id           TEXT PRIMARY KEY,
				author_id    TEXT REFERENCES users(id) ON DELETE SET NULL,
				name         TEXT NOT NULL,
				image        TEXT NOT NULL,
				text         TEXT NOT NULL,
				cooking_time INTEGER NOT NULL CHECK (cooking_time >= 1),
				created_at   DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes(created_at);
			CREATE INDEX IF NOT EXISTS idx_recipes_author_id ON recipes(author_id);
		`},
		{"recipe_tags", `
			CREATE TABLE IF NOT EXISTS recipe_tags (
				recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				tag_id    TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				UNIQUE (recipe_id, tag_id)
			);
		`},
		{"recipe_ingredients", `
			CREATE TABLE IF NOT EXISTS recipe_ingredients (
				recipe_id     TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				ingredient_id TEXT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
				amount        INTEGER NOT NULL CHECK (amount >= 1),
				UNIQUE (recipe_id, ingredient_id)
			);
		`},
		{"favorites", `
			CREATE TABLE IF NOT EXISTS favorites (
				user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				UNIQUE (user_id, recipe_id)
			);
		`},
		{"shopping_carts", `
			CREATE TABLE IF NOT EXISTS shopping_carts (
				user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				UNIQUE (user_id, recipe_id)
			);
		`},
		{"subscriptions", `
			CREATE TABLE IF NOT EXISTS subscriptions (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				UNIQUE (user_id, author_id)
			);
		`},
		{"short_links", `
			CREATE TABLE IF NOT EXISTS short_links (
				token        TEXT PRIMARY KEY,
				original_url TEXT NOT NULL UNIQUE
			);
		`},
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", stmt.name, err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE (or primary key)
// constraint failure. The driver exposes its own *sqlite3.Error with the
// extended result code, so we can distinguish "duplicate row" from real
// database failures and translate only the former into a domain Conflict.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}

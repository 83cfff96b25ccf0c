// Package datastore provides named-collection persistence for extensions.
//
// The shared-state table is strictly in-memory; persistence is an external
// collaborator concern. This package is the default collaborator: a small
// typed key/value store on SQLite, used by the lifecycle extension for
// install/pause bookkeeping that must survive process restarts.
package datastore

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Current: entries table with typed kind column
const currentSchemaVersion = 1

// ErrWrongKind is returned when a typed read hits a value stored under a
// different kind.
var ErrWrongKind = errors.New("datastore: value has different kind")

// Store provides durable named-collection storage.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// Use ":memory:" for an ephemeral store in tests.
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Collection returns a handle scoped to the named collection.
// Collections spring into existence on first write.
func (s *Store) Collection(name string) *Collection {
	return &Collection{db: s.db, name: name}
}

// Collection is a typed key/value view over one named collection.
type Collection struct {
	db   *sql.DB
	name string
}

// SetString stores a string value under key, replacing any previous value.
func (c *Collection) SetString(key, value string) error {
	return c.set(key, "string", value)
}

// GetString reads a string value, returning fallback when key is absent.
func (c *Collection) GetString(key, fallback string) (string, error) {
	raw, ok, err := c.get(key, "string")
	if err != nil || !ok {
		return fallback, err
	}
	return raw, nil
}

// SetInt64 stores an integer value under key.
func (c *Collection) SetInt64(key string, value int64) error {
	return c.set(key, "int64", strconv.FormatInt(value, 10))
}

// GetInt64 reads an integer value, returning fallback when key is absent.
func (c *Collection) GetInt64(key string, fallback int64) (int64, error) {
	raw, ok, err := c.get(key, "int64")
	if err != nil || !ok {
		return fallback, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("datastore: corrupt int64 at %s/%s: %w", c.name, key, err)
	}
	return v, nil
}

// SetBool stores a boolean value under key.
func (c *Collection) SetBool(key string, value bool) error {
	return c.set(key, "bool", strconv.FormatBool(value))
}

// GetBool reads a boolean value, returning fallback when key is absent.
func (c *Collection) GetBool(key string, fallback bool) (bool, error) {
	raw, ok, err := c.get(key, "bool")
	if err != nil || !ok {
		return fallback, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("datastore: corrupt bool at %s/%s: %w", c.name, key, err)
	}
	return v, nil
}

// Contains reports whether key exists in the collection, regardless of kind.
func (c *Collection) Contains(key string) (bool, error) {
	var one int
	err := c.db.QueryRow(
		`SELECT 1 FROM entries WHERE collection = ? AND key = ?`, c.name, key,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("datastore contains: %w", err)
	}
	return true, nil
}

// Remove deletes key from the collection. Removing an absent key is a no-op.
func (c *Collection) Remove(key string) error {
	if _, err := c.db.Exec(
		`DELETE FROM entries WHERE collection = ? AND key = ?`, c.name, key,
	); err != nil {
		return fmt.Errorf("datastore remove: %w", err)
	}
	return nil
}

// set upserts a value. The kind is replaced along with the value so a key
// may change kind across writes.
func (c *Collection) set(key, kind, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO entries (collection, key, kind, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, key) DO UPDATE SET kind = excluded.kind, value = excluded.value
	`, c.name, key, kind, value)
	if err != nil {
		return fmt.Errorf("datastore set %s/%s: %w", c.name, key, err)
	}
	return nil
}

// get reads the raw value for key, enforcing the expected kind.
func (c *Collection) get(key, kind string) (string, bool, error) {
	var gotKind, value string
	err := c.db.QueryRow(
		`SELECT kind, value FROM entries WHERE collection = ? AND key = ?`, c.name, key,
	).Scan(&gotKind, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("datastore get %s/%s: %w", c.name, key, err)
	}
	if gotKind != kind {
		return "", false, fmt.Errorf("%w: %s/%s is %s, want %s", ErrWrongKind, c.name, key, gotKind, kind)
	}
	return value, true, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// No incremental migrations yet; stamp the current version.
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

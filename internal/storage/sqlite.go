package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// SQLiteStorage implements Storage on a single kv table in a local
// SQLite database. It holds no in-process cache: every call round-trips
// through the database.
type SQLiteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStorage) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Get returns the raw stored value. A read failure degrades to absent.
func (s *SQLiteStorage) Get(key string) (string, bool) {
	var value string
	err := s.db.Get(&value, "SELECT value FROM kv WHERE key = ?", key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[storage] reading key %q: %v", key, err)
		}
		return "", false
	}
	return value, true
}

// GetAsString returns the stored value, or "" when absent.
func (s *SQLiteStorage) GetAsString(key string) string {
	value, _ := s.Get(key)
	return value
}

// GetAsInt returns the stored value as an integer, or 0 when absent or
// not numeric.
func (s *SQLiteStorage) GetAsInt(key string) int {
	value, ok := s.Get(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

// GetAsFloat returns the stored value as a float, or 0.0 when absent or
// not numeric.
func (s *SQLiteStorage) GetAsFloat(key string) float64 {
	value, ok := s.Get(key)
	if !ok {
		return 0.0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0.0
	}
	return f
}

// GetAsBoolean returns true only for the literal stored string "true".
func (s *SQLiteStorage) GetAsBoolean(key string) bool {
	value, _ := s.Get(key)
	return value == "true"
}

// GetAsObject decodes the stored JSON into out, leaving out untouched
// when the key is absent or the value does not parse.
func (s *SQLiteStorage) GetAsObject(key string, out any) {
	value, ok := s.Get(key)
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		log.Printf("[storage] parsing JSON for key %q: %v", key, err)
	}
}

// Has reports whether the key exists.
func (s *SQLiteStorage) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// SetPrimitive stores the string form of value under key. A nil value
// removes the key instead.
func (s *SQLiteStorage) SetPrimitive(key string, value any) error {
	if value == nil {
		s.Remove(key)
		return nil
	}

	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, fmt.Sprint(value),
	)
	if err != nil {
		return &StorageError{Op: "write", Key: key, Quota: isQuotaError(err), Err: err}
	}
	return nil
}

// SetObject JSON-serializes value and delegates to SetPrimitive.
func (s *SQLiteStorage) SetObject(key string, value any) error {
	serialized, err := json.Marshal(value)
	if err != nil {
		return &StorageError{Op: "serialize", Key: key, Err: err}
	}
	return s.SetPrimitive(key, string(serialized))
}

// Remove deletes the key. Failures are logged and swallowed.
func (s *SQLiteStorage) Remove(key string) {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		log.Printf("[storage] removing key %q: %v", key, err)
	}
}

// Clear deletes every key in the namespace. Failures are logged and
// swallowed.
func (s *SQLiteStorage) Clear() {
	if _, err := s.db.Exec("DELETE FROM kv"); err != nil {
		log.Printf("[storage] clearing namespace: %v", err)
	}
}

// isQuotaError reports whether err is SQLite's storage-exhaustion
// condition (SQLITE_FULL).
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database or disk is full") ||
		strings.Contains(msg, "SQLITE_FULL")
}

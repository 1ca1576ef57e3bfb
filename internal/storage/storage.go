// Package storage provides typed access to a single flat string-keyed
// persistent namespace backed by a local SQLite database.
package storage

import "fmt"

// Storage is the capability-typed accessor over the key-value namespace.
// Reads never fail: each typed getter degrades to a documented default
// on a missing key or parse failure. Writes fail with a *StorageError.
type Storage interface {
	// Get returns the raw stored value, or ok=false when the key is
	// absent or the read fails.
	Get(key string) (value string, ok bool)

	// GetAsString returns the stored value, or "" when absent.
	GetAsString(key string) string

	// GetAsInt returns the stored value parsed as an integer, or 0 when
	// absent or not numeric.
	GetAsInt(key string) int

	// GetAsFloat returns the stored value parsed as a float, or 0.0
	// when absent or not numeric.
	GetAsFloat(key string) float64

	// GetAsBoolean returns true only when the stored value is the
	// literal string "true".
	GetAsBoolean(key string) bool

	// GetAsObject decodes the stored JSON value into out. When the key
	// is absent or the value does not parse, out is left untouched, so
	// callers pass a zero value and get the empty-object default.
	GetAsObject(key string, out any)

	// Has reports whether the key exists.
	Has(key string) bool

	// SetPrimitive stores the string form of value under key. A nil
	// value removes the key.
	SetPrimitive(key string, value any) error

	// SetObject JSON-serializes value and stores it under key.
	SetObject(key string, value any) error

	// Remove deletes the key. Best-effort: failures are logged and
	// swallowed, since a failed delete should not block the caller.
	Remove(key string)

	// Clear deletes every key in the namespace. Best-effort.
	Clear()
}

// StorageError is raised by the adapter on write or serialize failure.
// Quota distinguishes storage exhaustion, which is user-actionable,
// from generic failure.
type StorageError struct {
	Op    string
	Key   string
	Quota bool
	Err   error
}

func (e *StorageError) Error() string {
	if e.Quota {
		return fmt.Sprintf("storage %s %q: quota exceeded, free up space by removing unneeded data", e.Op, e.Key)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

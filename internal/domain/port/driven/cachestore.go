package driven

import "time"

// CacheStore defines the driven port for query-keyed JSON persistence.
// Reads never fail: a missing, unreadable or corrupt entry is a miss.
type CacheStore interface {
	// ReadFresh decodes the entry for key into v if it is at most ttl old.
	ReadFresh(key string, ttl time.Duration, v any) bool
	// ReadAny decodes the entry for key into v regardless of its age.
	ReadAny(key string, v any) bool
	// Write replaces the entry for key with the JSON encoding of v. Readers
	// never observe a partially written entry.
	Write(key string, v any) error
}

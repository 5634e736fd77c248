package cache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklab/internal/shared"
)

// Key builds a namespaced cache key for a logical resource, e.g. Key("artist", id).
func Key(kind, id string) string {
	return kind + ":" + id
}

// Store is a durable key/value cache with TTL semantics.
//
// Entries record creation time, last access time, and an access counter.
// A logically expired entry is treated as absent even before the sweeper
// removes it.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	ttl    time.Duration
	logger *log.Logger

	// now is swappable so tests can control entry age.
	now func() time.Time
}

// Stats is a point-in-time snapshot of the cache table.
type Stats struct {
	TotalEntries   int       `json:"total_entries"`
	AvgAccessCount float64   `json:"average_access_count"`
	OldestEntry    time.Time `json:"oldest_entry"`
	NewestEntry    time.Time `json:"newest_entry"`
}

// NewStore creates a Store over an open database. The schema is managed by
// [shared.RunMigrations]; the store assumes the cache table exists.
func NewStore(db *sql.DB, ttl time.Duration, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{
		db:     db,
		ttl:    ttl,
		logger: logger.With("component", "cache"),
		now:    time.Now,
	}
}

// epoch converts a time to float seconds, the column representation.
func epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// fromEpoch converts float seconds back to a time.
func fromEpoch(sec float64) time.Time {
	return time.Unix(0, int64(sec*float64(time.Second)))
}

// Get returns the stored value for key if the entry is younger than the TTL.
//
// On a hit the entry's access count and last-accessed time are updated under
// the same critical section. Storage errors degrade to a miss so the caller
// refetches; the failure is logged, never swallowed silently.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := epoch(now.Add(-s.ttl))

	var value []byte
	err := s.db.QueryRow(
		"SELECT value FROM cache WHERE key = ? AND timestamp >= ?",
		key, cutoff,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Error("cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}

	if _, err := s.db.Exec(
		"UPDATE cache SET access_count = access_count + 1, last_accessed = ? WHERE key = ?",
		epoch(now), key,
	); err != nil {
		s.logger.Error("failed to update access bookkeeping", "key", key, "error", err)
	}

	return value, true
}

// Set inserts or replaces the entry for key.
//
// An overwrite represents a fresh fetch, so the creation timestamp and the
// access counter both reset. Failures wrap [shared.ErrStorage]; the caller
// can detect that caching did not occur but should not depend on it.
func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := epoch(s.now())
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO cache (key, value, timestamp, access_count, last_accessed) VALUES (?, ?, ?, 0, ?)",
		key, value, now, now,
	)
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", shared.ErrStorage, key, err)
	}

	return nil
}

// Sweep deletes every entry older than the TTL and returns the number removed.
func (s *Store) Sweep() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := epoch(s.now().Add(-s.ttl))

	result, err := s.db.Exec("DELETE FROM cache WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: sweep: %v", shared.ErrStorage, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: sweep row count: %v", shared.ErrStorage, err)
	}

	return removed, nil
}

// Stats returns a snapshot of entry counts and ages. The aggregate query is
// atomic with respect to concurrent writers; no further isolation is implied.
func (s *Store) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		count     int
		avgAccess sql.NullFloat64
		oldest    sql.NullFloat64
		newest    sql.NullFloat64
	)

	err := s.db.QueryRow(
		"SELECT COUNT(*), AVG(access_count), MIN(timestamp), MAX(timestamp) FROM cache",
	).Scan(&count, &avgAccess, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: stats: %v", shared.ErrStorage, err)
	}

	stats := Stats{TotalEntries: count}
	if avgAccess.Valid {
		stats.AvgAccessCount = avgAccess.Float64
	}
	if oldest.Valid {
		stats.OldestEntry = fromEpoch(oldest.Float64)
	}
	if newest.Valid {
		stats.NewestEntry = fromEpoch(newest.Float64)
	}

	return stats, nil
}

// Package cache provides a persistent TTL cache for remote lookups.
//
// Entries are stored as raw JSON payloads keyed by request identity and
// survive process restarts through a per-account JSON file. An entry older
// than its TTL is never returned; an unreadable store is treated as a miss,
// never as a fatal error.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/metrics"
)

// DefaultTTL is the default entry lifetime.
const DefaultTTL = 15 * time.Minute

// Entry is a single cached payload. Owned exclusively by the Store.
type Entry struct {
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	FetchedAt  time.Time       `json:"fetched_at"`
	TTLSeconds int64           `json:"ttl_seconds"`
}

// expired reports whether the entry is older than its TTL at time now.
func (e Entry) expired(now time.Time) bool {
	ttl := time.Duration(e.TTLSeconds) * time.Second
	return now.Sub(e.FetchedAt) > ttl
}

// Store is a TTL cache backed by optional durable storage.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry

	storage *FileStorage
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics sets the metrics sink for hit/miss counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates an in-memory Store with no durable backing.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]Entry),
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a Store backed by the JSON file at path, loading any
// existing entries. A corrupt or unreadable file is moved aside and the
// store starts empty: persistence failures degrade to misses.
func Open(path string, opts ...Option) *Store {
	s := New(opts...)
	s.storage = NewFileStorage(path)

	entries, err := s.storage.Load()
	if err != nil {
		s.logger.Warn("cache load failed, starting empty",
			zap.String("path", path), zap.Error(err))
		entries = make(map[string]Entry)
	}
	s.entries = entries
	return s
}

// Lookup returns the cached value for key if a non-expired entry exists,
// without invoking compute. Otherwise compute is invoked, its result
// stored with the current time and ttl, and returned. A compute failure
// stores nothing and propagates; expired entries are never served as a
// fallback.
func Lookup[T any](ctx context.Context, s *Store, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if payload, ok := s.lookupRaw(key); ok {
		var cached T
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
		// Undecodable payload is a miss; drop it so it cannot shadow a
		// fresh value again.
		s.Delete(key)
	}

	var zero T
	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	if err := s.put(key, ttl, value); err != nil {
		// The computed value is still good; only persistence degraded.
		s.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// lookupRaw returns the payload for a fresh entry and records hit/miss.
func (s *Store) lookupRaw(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	entry, exists := s.entries[key]
	now := s.now()
	s.mu.RUnlock()

	if exists && !entry.expired(now) {
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		return entry.Payload, true
	}

	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}
	return nil, false
}

// put marshals and stores a value, then persists the store if backed.
func (s *Store) put(key string, ttl time.Duration, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling cache payload: %w", err)
	}

	s.mu.Lock()
	s.entries[key] = Entry{
		Key:        key,
		Payload:    payload,
		FetchedAt:  s.now(),
		TTLSeconds: int64(ttl / time.Second),
	}
	s.mu.Unlock()

	return s.Persist()
}

// Delete removes a cache entry.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Size returns the number of entries, expired ones included.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// PruneExpired removes entries past their TTL and returns how many were
// dropped. Called at the end of a run to keep the durable file small.
func (s *Store) PruneExpired() int {
	s.mu.Lock()
	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		if err := s.Persist(); err != nil {
			s.logger.Warn("cache persist after prune failed", zap.Error(err))
		}
	}
	return removed
}

// Persist writes the store to its durable backing, if any.
func (s *Store) Persist() error {
	if s.storage == nil {
		return nil
	}

	s.mu.RLock()
	snapshot := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	return s.storage.Save(snapshot)
}

// Key builds a cache key from a data kind and its discriminator parts,
// e.g. Key("price", "LEO") -> "price:LEO".
func Key(kind string, parts ...string) string {
	if len(parts) == 0 {
		return kind
	}
	return kind + ":" + strings.Join(parts, ":")
}

// SymbolSetHash returns a stable hash for a set of token symbols, so that
// the same set in any order maps to the same cache key.
func SymbolSetHash(symbols []string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	h := fnv.New64a()
	for _, s := range sorted {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

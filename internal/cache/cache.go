// Package cache memoizes resolution outcomes per directed platform pair.
//
// A [ResultCache] never evicts successes. Failures are kept too unless the
// [Policy] says otherwise, optionally expiring after a negative TTL.
package cache

import (
	"sync"
	"time"

	"github.com/desertthunder/songmatch/internal/models"
)

// Entry is a stored outcome with the time it was stored.
type Entry struct {
	Result   models.MatchResult
	StoredAt time.Time
}

// Store holds entries by key. Implementations need not be safe for concurrent use;
// [ResultCache] serializes access.
type Store interface {
	Load(key models.CacheKey) (Entry, bool)
	Save(key models.CacheKey, entry Entry)
	Remove(key models.CacheKey)
	Len() int
}

// MemoryStore is an unbounded in-process [Store].
type MemoryStore struct {
	entries map[models.CacheKey]Entry
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[models.CacheKey]Entry)}
}

// Load returns the entry stored under key.
func (s *MemoryStore) Load(key models.CacheKey) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Save stores entry under key, replacing any previous entry.
func (s *MemoryStore) Save(key models.CacheKey, entry Entry) { s.entries[key] = entry }

// Remove deletes the entry under key.
func (s *MemoryStore) Remove(key models.CacheKey) { delete(s.entries, key) }

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int { return len(s.entries) }

// Policy decides which outcomes are kept and for how long.
type Policy struct {
	// CacheFailures keeps unsuccessful results so they are not retried.
	CacheFailures bool
	// NegativeTTL expires cached failures after this long. Zero keeps them forever.
	NegativeTTL time.Duration
}

// DefaultPolicy caches failures for the lifetime of the process.
var DefaultPolicy = Policy{CacheFailures: true}

// Stats counts cache traffic.
type Stats struct {
	Hits    int `json:"hits" yaml:"hits"`
	Misses  int `json:"misses" yaml:"misses"`
	Expired int `json:"expired" yaml:"expired"`
	Entries int `json:"entries" yaml:"entries"`
}

// ResultCache is a mutex-guarded memo of [models.MatchResult] values.
type ResultCache struct {
	mu     sync.Mutex
	store  Store
	policy Policy
	now    func() time.Time
	stats  Stats
}

// Option configures a [ResultCache].
type Option func(*ResultCache)

// WithStore replaces the default [MemoryStore].
func WithStore(s Store) Option {
	return func(c *ResultCache) { c.store = s }
}

// WithPolicy sets the failure caching policy.
func WithPolicy(p Policy) Option {
	return func(c *ResultCache) { c.policy = p }
}

// WithClock overrides the time source used for negative TTLs.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) { c.now = now }
}

// New creates a ResultCache with [DefaultPolicy] and an in-memory store.
func New(opts ...Option) *ResultCache {
	c := &ResultCache{store: NewMemoryStore(), policy: DefaultPolicy, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached outcome for key.
//
// The returned copy reports [models.MethodCache] with ResolvedBy set to the
// method that produced it. It shares no memory with the stored value.
func (c *ResultCache) Get(key models.CacheKey) (models.MatchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.store.Load(key)
	if !ok {
		c.stats.Misses++
		return models.MatchResult{}, false
	}

	if c.expired(entry) {
		c.store.Remove(key)
		c.stats.Expired++
		c.stats.Misses++
		return models.MatchResult{}, false
	}

	c.stats.Hits++
	hit := entry.Result.Clone()
	hit.ResolvedBy = entry.Result.Method
	hit.Method = models.MethodCache
	return hit, true
}

// Put stores result under key, subject to the policy.
// It reports whether the result was stored.
func (c *ResultCache) Put(key models.CacheKey, result models.MatchResult) bool {
	if !result.Success && !c.policy.CacheFailures {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Save(key, Entry{Result: result.Clone(), StoredAt: c.now()})
	return true
}

// Forget drops the entry for key and reports whether there was one.
func (c *ResultCache) Forget(key models.CacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.store.Load(key); !ok {
		return false
	}
	c.store.Remove(key)
	return true
}

// Stats returns a snapshot of the counters.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.store.Len()
	return s
}

func (c *ResultCache) expired(e Entry) bool {
	if e.Result.Success || c.policy.NegativeTTL <= 0 {
		return false
	}
	return c.now().Sub(e.StoredAt) >= c.policy.NegativeTTL
}

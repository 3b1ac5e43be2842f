// Package cache provides a content-addressed, two-tier store for analysis
// results: a bounded in-memory tier backed by one JSON file per entry on
// disk. Entries expire by TTL and the memory tier evicts the oldest entry
// by insertion time when full.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/verdict-tools/verdict/internal/hashing"
)

// DefaultMaxEntries bounds the memory tier when no limit is configured.
const DefaultMaxEntries = 1000

// Entry is one cached analysis payload.
type Entry struct {
	Key       string            `json:"key"`
	Hash      string            `json:"hash"`
	Timestamp time.Time         `json:"timestamp"`
	ExpiresAt time.Time         `json:"expires_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Data      []byte            `json:"data"`
}

// valid reports whether the entry has not expired.
func (e *Entry) valid(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// Cache is a two-tier result cache. The memory tier is a strict cache of
// the durable tier; both are written together on Set.
type Cache struct {
	mu         sync.Mutex
	dir        string
	ttl        time.Duration
	maxEntries int
	enabled    bool
	log        hclog.Logger

	memory map[string]*Entry
	stats  *Stats
	now    func() time.Time
}

// Option configures the Cache.
type Option func(*Cache)

// WithTTL sets the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithMaxEntries bounds the in-memory tier.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithLogger sets the structured logger.
func WithLogger(log hclog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// Disabled returns a cache that always misses on Get and ignores Set.
// Callers never special-case a disabled cache; it degrades to "always
// recompute".
func Disabled() *Cache {
	return &Cache{enabled: false, stats: newStats(), now: time.Now, log: hclog.NewNullLogger()}
}

// New creates an enabled cache rooted at dir, creating it if absent.
func New(dir string, opts ...Option) (*Cache, error) {
	c := &Cache{
		dir:        dir,
		ttl:        24 * time.Hour,
		maxEntries: DefaultMaxEntries,
		enabled:    true,
		log:        hclog.NewNullLogger(),
		memory:     make(map[string]*Entry),
		stats:      newStats(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return c, nil
}

// Get retrieves a cached payload. The memory tier is checked first; a
// valid durable entry is promoted into memory. Expired entries are
// treated as absent and removed.
func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		c.stats.miss()
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	defer func() { c.stats.observeLatency(c.now().Sub(start)) }()

	now := c.now()
	if entry, ok := c.memory[key]; ok {
		if entry.valid(now) {
			c.stats.hit()
			return entry.Data, true
		}
		c.removeBoth(key)
	}

	entry, err := c.readDisk(key)
	if err != nil || entry == nil {
		c.stats.miss()
		return nil, false
	}
	if !entry.valid(now) {
		c.removeBoth(key)
		c.stats.miss()
		return nil, false
	}

	c.promote(entry)
	c.stats.hit()
	return entry.Data, true
}

// Set serializes a payload into both tiers with a fresh TTL. When the
// memory tier is at capacity the single oldest entry by insertion
// timestamp is evicted first.
func (c *Cache) Set(key string, data []byte, metadata map[string]string) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := &Entry{
		Key:       key,
		Hash:      hashing.Bytes(data),
		Timestamp: now,
		ExpiresAt: now.Add(c.ttl),
		Metadata:  metadata,
		Data:      data,
	}

	if _, exists := c.memory[key]; !exists && len(c.memory) >= c.maxEntries {
		c.evictOldest()
	}
	c.memory[key] = entry

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.entryPath(key), raw, 0o600); err != nil {
		return err
	}
	c.stats.write()
	return nil
}

// HasChanged reports whether path must be re-analyzed under key: true when
// no valid cache entry exists or the file's current digest differs from
// the digest recorded at write time.
//
// Callers caching per-file artifacts must record the file digest under
// Metadata["content_hash"] when they Set; entries without it always
// report changed. Result-cache keys embed the file-set digest instead,
// so any content change produces a new key and that path never consults
// HasChanged.
func (c *Cache) HasChanged(key, path string) bool {
	if !c.enabled {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.memory[key]
	if !ok {
		var err error
		entry, err = c.readDisk(key)
		if err != nil || entry == nil {
			return true
		}
	}
	if !entry.valid(c.now()) {
		return true
	}

	current, err := hashing.File(path)
	if err != nil {
		// Unreadable files fail open toward re-analysis.
		return true
	}
	return current != entry.Metadata["content_hash"]
}

// Invalidate removes an entry from both tiers.
func (c *Cache) Invalidate(key string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeBoth(key)
}

// Clear removes all entries from both tiers.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory = make(map[string]*Entry)
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// Cleanup sweeps expired entries from both tiers. Get and Set are
// self-correcting on expiry; this is maintenance only.
func (c *Cache) Cleanup() int {
	if !c.enabled {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0

	for key, entry := range c.memory {
		if !entry.valid(now) {
			c.removeBoth(key)
			removed++
		}
	}

	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return removed
	}
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// Corrupt entries are swept too.
			os.Remove(path)
			removed++
			continue
		}
		if !entry.valid(now) {
			os.Remove(path)
			removed++
		}
	}

	if removed > 0 {
		c.log.Debug("cache cleanup", "removed", removed)
	}
	return removed
}

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() StatsSnapshot {
	return c.stats.snapshot()
}

// Enabled reports whether the cache persists anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// evictOldest drops the entry with the earliest insertion timestamp from
// the memory tier only; the durable copy stays until expiry.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.memory {
		if oldestKey == "" || entry.Timestamp.Before(oldest) {
			oldestKey = key
			oldest = entry.Timestamp
		}
	}
	if oldestKey != "" {
		delete(c.memory, oldestKey)
		c.stats.evict()
		c.log.Debug("evicted cache entry", "key", oldestKey)
	}
}

// promote inserts a durable entry into the memory tier, evicting if full.
func (c *Cache) promote(entry *Entry) {
	if _, exists := c.memory[entry.Key]; !exists && len(c.memory) >= c.maxEntries {
		c.evictOldest()
	}
	c.memory[entry.Key] = entry
}

// readDisk loads an entry from the durable tier. Corrupt entries are
// removed and reported as absent, never as an error to the caller.
func (c *Cache) readDisk(key string) (*Entry, error) {
	raw, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn("removing corrupt cache entry", "key", key)
		os.Remove(c.entryPath(key))
		return nil, nil
	}
	return &entry, nil
}

func (c *Cache) removeBoth(key string) {
	delete(c.memory, key)
	os.Remove(c.entryPath(key))
}

// entryPath hashes the key into a filesystem-safe name.
func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, hashing.Key(key)+".json")
}

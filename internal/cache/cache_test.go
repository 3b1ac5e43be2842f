package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verdict-tools/verdict/internal/hashing"
)

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	c := newTestCache(t)

	if err := c.Set("quality:src/a.go", []byte(`{"score":91}`), nil); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, ok := c.Get("quality:src/a.go")
	if !ok {
		t.Fatal("Get() missed a freshly written key")
	}
	if string(got) != `{"score":91}` {
		t.Errorf("Get() = %q, want %q", got, `{"score":91}`)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Writes != 1 {
		t.Errorf("stats = %+v, want 1 hit and 1 write", stats)
	}
}

func TestGetAbsentKey(t *testing.T) {
	c := newTestCache(t)
	if _, ok := c.Get("never-written"); ok {
		t.Error("Get() should miss an absent key")
	}
	if c.Stats().Misses != 1 {
		t.Errorf("misses = %d, want 1", c.Stats().Misses)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t, WithTTL(time.Hour))

	base := time.Now()
	c.now = func() time.Time { return base }
	if err := c.Set("k", []byte("v"), nil); err != nil {
		t.Fatal(err)
	}

	// Just inside the TTL.
	c.now = func() time.Time { return base.Add(59 * time.Minute) }
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired before its TTL elapsed")
	}

	// Past the TTL: treated as absent and removed from both tiers.
	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should be a miss")
	}
	if _, err := os.Stat(c.entryPath("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from the durable tier")
	}
}

func TestEvictionOldestByInsertion(t *testing.T) {
	c := newTestCache(t, WithMaxEntries(2))

	base := time.Now()
	c.now = func() time.Time { return base }
	if err := c.Set("first", []byte("1"), nil); err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return base.Add(time.Second) }
	if err := c.Set("second", []byte("2"), nil); err != nil {
		t.Fatal(err)
	}

	// Access "first" so it would survive an access-based policy; eviction
	// is strictly by insertion time.
	if _, ok := c.Get("first"); !ok {
		t.Fatal("expected hit on first")
	}

	c.now = func() time.Time { return base.Add(2 * time.Second) }
	if err := c.Set("third", []byte("3"), nil); err != nil {
		t.Fatal(err)
	}

	if _, inMemory := c.memory["first"]; inMemory {
		t.Error("oldest entry should be evicted from the memory tier")
	}
	if _, inMemory := c.memory["second"]; !inMemory {
		t.Error("newer entry should survive eviction")
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("evictions = %d, want exactly 1", c.Stats().Evictions)
	}
}

func TestPromotionFromDurableTier(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set("k", []byte("v"), nil); err != nil {
		t.Fatal(err)
	}

	// A fresh instance has an empty memory tier; Get must promote from disk.
	c2, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := c2.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get() = %q, %v; want promoted durable entry", got, ok)
	}
	if _, inMemory := c2.memory["k"]; !inMemory {
		t.Error("durable hit should be promoted into the memory tier")
	}
	if c2.Stats().Hits != 1 {
		t.Errorf("durable hit not counted: %+v", c2.Stats())
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	c := newTestCache(t)
	if err := os.WriteFile(c.entryPath("bad"), []byte("{truncated"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("bad"); ok {
		t.Error("corrupt durable entry should be a miss")
	}
	if _, err := os.Stat(c.entryPath("bad")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestDisabledCache(t *testing.T) {
	c := Disabled()
	if err := c.Set("k", []byte("v"), nil); err != nil {
		t.Fatalf("Set() on disabled cache should be a no-op: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache must always miss")
	}
	if c.HasChanged("k", "whatever") != true {
		t.Error("disabled cache must always report changed")
	}
}

func TestHasChanged(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	if err := os.WriteFile(path, []byte("package a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// No entry yet: must re-analyze.
	if !c.HasChanged("quality:a.go", path) {
		t.Error("HasChanged should be true with no cache entry")
	}

	hash, err := hashing.File(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set("quality:a.go", []byte("result"), map[string]string{"content_hash": hash}); err != nil {
		t.Fatal(err)
	}

	if c.HasChanged("quality:a.go", path) {
		t.Error("HasChanged should be false for unchanged content")
	}

	if err := os.WriteFile(path, []byte("package a\n\nvar X = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !c.HasChanged("quality:a.go", path) {
		t.Error("HasChanged should be true after content changed")
	}

	// Entries written without content_hash metadata never claim unchanged.
	if err := c.Set("nohash:a.go", []byte("result"), map[string]string{"category": "quality"}); err != nil {
		t.Fatal(err)
	}
	if !c.HasChanged("nohash:a.go", path) {
		t.Error("HasChanged should be true when no content hash was recorded")
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c := newTestCache(t)
	if err := c.Set("k1", []byte("v1"), nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("k2", []byte("v2"), nil); err != nil {
		t.Fatal(err)
	}

	c.Invalidate("k1")
	if _, ok := c.Get("k1"); ok {
		t.Error("invalidated key should miss")
	}
	if _, ok := c.Get("k2"); !ok {
		t.Error("other keys should survive Invalidate")
	}

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k2"); ok {
		t.Error("Clear() should empty both tiers")
	}
}

func TestCleanupSweepsExpired(t *testing.T) {
	c := newTestCache(t, WithTTL(time.Minute))

	base := time.Now()
	c.now = func() time.Time { return base }
	if err := c.Set("old", []byte("1"), nil); err != nil {
		t.Fatal(err)
	}

	c.now = func() time.Time { return base.Add(time.Hour) }
	if err := c.Set("fresh", []byte("2"), nil); err != nil {
		t.Fatal(err)
	}

	removed := c.Cleanup()
	if removed != 1 {
		t.Errorf("Cleanup() removed %d entries, want 1", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("Cleanup() must not remove valid entries")
	}
}

func TestEntryExpiresAtSerialized(t *testing.T) {
	c := newTestCache(t, WithTTL(time.Hour))
	if err := c.Set("k", []byte("v"), map[string]string{"category": "quality"}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(c.entryPath("k"))
	if err != nil {
		t.Fatal(err)
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatal(err)
	}
	if !entry.ExpiresAt.After(entry.Timestamp) {
		t.Error("persisted entry must carry expires_at after timestamp")
	}
	if entry.Metadata["category"] != "quality" {
		t.Error("metadata should round-trip through the durable tier")
	}
	if entry.Hash == "" {
		t.Error("persisted entry must carry the content digest")
	}
}

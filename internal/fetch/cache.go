package fetch

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// entry is one cached HTTP response, kept in memory and mirrored to disk.
type entry struct {
	Payload      json.RawMessage `json:"payload"`
	FetchedAt    time.Time       `json:"fetched_at"`
	ETag         string          `json:"etag,omitempty"`
	LastModified string          `json:"last_modified,omitempty"`

	// warmStart marks an entry just loaded from disk this process: its
	// first read is trusted up to the disk TTL (a restart shouldn't refetch
	// everything the previous run cached), after which the in-memory TTL
	// governs as usual.
	warmStart bool `json:"-"`
}

func (e entry) expired(ttl time.Duration) bool {
	return time.Since(e.FetchedAt) > ttl
}

// memTTL is how long an in-memory hit is trusted before a conditional
// request is attempted.
const memTTL = 5 * time.Minute

// diskTTL is the outer bound before a disk-cached entry is no longer
// served even as a stale fallback.
const diskTTL = 14 * 24 * time.Hour

// Cache is a two-tier (memory + afero disk) store keyed by request URL or
// logical key. Its mutex guards only the in-memory map: Put updates the
// map, releases the lock, and then writes the disk copy synchronously, so a
// read never waits on a disk write.
type Cache struct {
	fs      afero.Fs
	dir     string
	mu      sync.RWMutex
	mem     map[string]entry
}

func NewCache(fs afero.Fs, dir string) *Cache {
	return &Cache{fs: fs, dir: dir, mem: map[string]entry{}}
}

// Get returns a cached entry if present in memory or on disk, regardless of
// freshness — callers decide whether a stale hit is acceptable (e.g. as an
// offline fallback) versus requiring a fresh conditional re-fetch.
func (c *Cache) Get(key string) (entry, bool) {
	c.mu.RLock()
	e, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return e, true
	}
	return c.loadDisk(key)
}

// Fresh returns a cached entry only if it is within memTTL — or, for an
// entry just loaded from disk, within diskTTL (consumed on first read).
func (c *Cache) Fresh(key string) (entry, bool) {
	e, ok := c.Get(key)
	if !ok {
		return entry{}, false
	}
	if e.warmStart {
		e.warmStart = false
		c.mu.Lock()
		c.mem[key] = e
		c.mu.Unlock()
		if !e.expired(diskTTL) {
			return e, true
		}
		return entry{}, false
	}
	if e.expired(memTTL) {
		return entry{}, false
	}
	return e, true
}

// Stale returns a cached entry if it exists and is still within diskTTL,
// used as the network-failure fallback path.
func (c *Cache) Stale(key string) (entry, bool) {
	e, ok := c.Get(key)
	if !ok || e.expired(diskTTL) {
		return entry{}, false
	}
	return e, true
}

func (c *Cache) Put(key string, payload json.RawMessage, etag, lastModified string) {
	e := entry{Payload: payload, FetchedAt: time.Now(), ETag: etag, LastModified: lastModified}
	c.mu.Lock()
	c.mem[key] = e
	c.mu.Unlock()
	c.saveDisk(key, e)
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

func (c *Cache) loadDisk(key string) (entry, bool) {
	raw, err := afero.ReadFile(c.fs, c.path(key))
	if err != nil {
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry{}, false
	}
	e.warmStart = true
	c.mu.Lock()
	c.mem[key] = e
	c.mu.Unlock()
	return e, true
}

func (c *Cache) saveDisk(key string, e entry) {
	raw, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return
	}
	_ = c.fs.MkdirAll(c.dir, 0o755)
	tmp := c.path(key) + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, raw, 0o644); err != nil {
		return
	}
	_ = c.fs.Rename(tmp, c.path(key))
}

func sanitizeKey(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

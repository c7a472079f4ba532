package fetch

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_WarmStartServesDiskEntryWithoutRefetch(t *testing.T) {
	fs := afero.NewMemMapFs()

	writer := NewCache(fs, "/cache")
	writer.Put("news", []byte(`{"items":[]}`), "", "")

	// Age the persisted copy past the in-memory TTL but inside the disk TTL.
	aged := NewCache(fs, "/cache")
	e, ok := aged.loadDisk("news")
	require.True(t, ok)
	e.FetchedAt = time.Now().Add(-2 * memTTL)
	aged.saveDisk("news", e)

	reader := NewCache(fs, "/cache")
	fresh, ok := reader.Fresh("news")
	require.True(t, ok, "a warm-start disk entry inside the disk TTL is served without a network request")
	assert.NotEmpty(t, fresh.Payload)

	// The warm-start allowance is consumed: the next read applies memTTL.
	_, ok = reader.Fresh("news")
	assert.False(t, ok)
}

func TestCache_StaleRejectsPastDiskTTL(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := NewCache(fs, "/cache")
	c.Put("old", []byte(`x`), "", "")

	c.mu.Lock()
	e := c.mem["old"]
	e.FetchedAt = time.Now().Add(-2 * diskTTL)
	c.mem["old"] = e
	c.mu.Unlock()

	_, ok := c.Stale("old")
	assert.False(t, ok)
}

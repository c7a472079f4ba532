package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewClient(fs, "/cache", nil)
}

func TestClient_AURInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":5,"type":"multiinfo","resultcount":1,"results":[
			{"Name":"yay","Version":"12.3.5-1","Description":"Yet another yogurt","URL":"https://example.com",
			 "Depends":["pacman>=6.0","go"],"Popularity":42.5}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	c.http = srv.Client()

	results, err := c.get(context.Background(), srv.URL, "aur-info-yay")
	require.NoError(t, err)
	assert.Contains(t, string(results.Body), "yay")

	// AURInfo for the same name is served from the fresh cache entry above.
	details, err := c.AURInfo(context.Background(), []string{"yay"})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "yay", details[0].Name)
	require.NotEmpty(t, details[0].Depends)
	assert.Equal(t, "pacman", details[0].Depends[0].Name)
	assert.Equal(t, ">=6.0", details[0].Depends[0].Requirement)
}

func TestClient_ConditionalRequestServesCacheOn304(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == "abc" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", "abc")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	c.http = srv.Client()

	// First call populates the cache with an ETag.
	_, err := c.get(context.Background(), srv.URL, "cond-key")
	require.NoError(t, err)

	// Force the in-memory freshness window to have expired so the second
	// call actually issues a conditional request instead of a pure hit.
	c.cache.mu.Lock()
	e := c.cache.mem["cond-key"]
	e.FetchedAt = e.FetchedAt.Add(-2 * memTTL)
	c.cache.mem["cond-key"] = e
	c.cache.mu.Unlock()

	res, err := c.get(context.Background(), srv.URL, "cond-key")
	require.NoError(t, err)
	assert.Contains(t, string(res.Body), "ok")
	assert.Equal(t, 2, hits)
}

func TestClient_OfflineServesStaleCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cached":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	c.http = srv.Client()

	_, err := c.get(context.Background(), srv.URL, "offline-key")
	require.NoError(t, err)
	srv.Close()

	// Expire the freshness window and simulate offline via a stub monitor
	// that always reports false would require exporting Online; instead we
	// rely on the breaker/network-failure path since the server is closed.
	c.cache.mu.Lock()
	e := c.cache.mem["offline-key"]
	e.FetchedAt = e.FetchedAt.Add(-2 * memTTL)
	c.cache.mem["offline-key"] = e
	c.cache.mu.Unlock()

	res, err := c.get(context.Background(), srv.URL, "offline-key")
	require.NoError(t, err)
	assert.True(t, res.FromCache)
}

func TestSplitNameRequirement(t *testing.T) {
	t.Run("versioned dependency", func(t *testing.T) {
		name, req := splitNameRequirement("pacman>=6.0")
		assert.Equal(t, "pacman", name)
		assert.Equal(t, ">=6.0", req)
	})

	t.Run("bare dependency", func(t *testing.T) {
		name, req := splitNameRequirement("go")
		assert.Equal(t, "go", name)
		assert.Empty(t, req)
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := newCircuitBreaker()
	for i := 0; i < cb.threshold; i++ {
		cb.RecordFailure("endpoint")
	}
	assert.False(t, cb.Allow("endpoint"))

	cb.RecordSuccess("endpoint")
	assert.True(t, cb.Allow("endpoint"))
}

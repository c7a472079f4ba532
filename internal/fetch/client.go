// Package fetch implements the detail/news fetchers: conditional HTTP
// against the AUR RPC and archlinux.org endpoints, backed by a two-tier
// cache, a rate limiter, a single-permit gate for archlinux.org hosts, and
// a per-endpoint circuit breaker.
package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pacsea-project/pacsea/internal/errdefs"
	"github.com/pacsea-project/pacsea/internal/netstate"
	"github.com/pacsea-project/pacsea/internal/plog"
	"github.com/spf13/afero"
)

const userAgent = "pacsea/1.0 (+https://github.com/pacsea-project/pacsea)"

// Client is the shared HTTP fetch path for AUR RPC, Arch news, AUR comments
// and security advisories. One Client is shared process-wide.
type Client struct {
	http    *http.Client
	cache   *Cache
	limiter *rateLimiter
	gate    *archLinuxGate
	breaker *circuitBreaker
	net     *netstate.Monitor
}

func NewClient(fs afero.Fs, cacheDir string, net *netstate.Monitor) *Client {
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   NewCache(fs, cacheDir),
		limiter: &rateLimiter{},
		gate:    newArchLinuxGate(),
		breaker: newCircuitBreaker(),
		net:     net,
	}
}

// result is what a fetch call resolves to: the raw body plus whether it came
// from the network or a cache fallback.
type result struct {
	Body      []byte
	FromCache bool
}

// get performs one conditional GET, honoring connectivity gating, the rate
// limiter, the archlinux.org single-permit gate and the circuit breaker. On
// any network failure it falls back to a stale cache entry if one exists,
// surfacing errdefs.NetworkError only when no fallback is available.
func (c *Client) get(ctx context.Context, url, cacheKey string) (result, error) {
	if c.net != nil && !c.net.Online() {
		if e, ok := c.cache.Stale(cacheKey); ok {
			plog.Debugf("fetch: offline, serving stale cache for %s", cacheKey)
			return result{Body: e.Payload, FromCache: true}, nil
		}
		return result{}, errdefs.NetworkError(nil, "offline and no cached copy for %s", url)
	}

	if fresh, ok := c.cache.Fresh(cacheKey); ok {
		return result{Body: fresh.Payload, FromCache: true}, nil
	}

	if !c.breaker.Allow(url) {
		if e, ok := c.cache.Stale(cacheKey); ok {
			return result{Body: e.Payload, FromCache: true}, nil
		}
		return result{}, errdefs.NetworkError(nil, "circuit open for %s", url)
	}

	if err := c.limiter.wait(ctx); err != nil {
		return result{}, errdefs.Wrap(errdefs.ErrTypeCancellationObserved, err, "rate limiter wait cancelled")
	}
	release, err := c.gate.acquire(ctx, url)
	if err != nil {
		return result{}, errdefs.Wrap(errdefs.ErrTypeCancellationObserved, err, "archlinux.org gate wait cancelled")
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result{}, errdefs.Wrap(errdefs.ErrTypeGeneric, err, "building request")
	}
	req.Header.Set("User-Agent", userAgent)
	if prior, ok := c.cache.Get(cacheKey); ok {
		if prior.ETag != "" {
			req.Header.Set("If-None-Match", prior.ETag)
		}
		if prior.LastModified != "" {
			req.Header.Set("If-Modified-Since", prior.LastModified)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure(url)
		if e, ok := c.cache.Stale(cacheKey); ok {
			plog.Warnf("fetch %s failed, serving stale cache: %v", url, err)
			return result{Body: e.Payload, FromCache: true}, nil
		}
		return result{}, errdefs.NetworkError(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		c.breaker.RecordSuccess(url)
		e, _ := c.cache.Get(cacheKey)
		return result{Body: e.Payload, FromCache: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure(url)
		if e, ok := c.cache.Stale(cacheKey); ok {
			return result{Body: e.Payload, FromCache: true}, nil
		}
		return result{}, errdefs.NetworkError(nil, "%s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure(url)
		if e, ok := c.cache.Stale(cacheKey); ok {
			return result{Body: e.Payload, FromCache: true}, nil
		}
		return result{}, errdefs.NetworkError(err, "reading response body from %s", url)
	}
	c.breaker.RecordSuccess(url)
	c.cache.Put(cacheKey, body, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"))
	return result{Body: body}, nil
}

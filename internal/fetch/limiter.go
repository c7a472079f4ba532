package fetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// minGap is the minimum spacing enforced between any two network calls
// this process makes.
const minGap = 100 * time.Millisecond

// rateLimiter tracks the last request time behind a single mutex and makes
// every caller sleep out the remainder of minGap before proceeding.
type rateLimiter struct {
	mu   sync.Mutex
	last time.Time
}

func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if since := time.Since(r.last); since < minGap {
		select {
		case <-time.After(minGap - since):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.last = time.Now()
	return nil
}

// archLinuxGate is the single-permit semaphore serializing requests to
// archlinux.org hosts.
type archLinuxGate struct {
	sem *semaphore.Weighted
}

func newArchLinuxGate() *archLinuxGate {
	return &archLinuxGate{sem: semaphore.NewWeighted(1)}
}

func (g *archLinuxGate) acquire(ctx context.Context, url string) (release func(), err error) {
	if !strings.Contains(url, "archlinux.org") {
		return func() {}, nil
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { g.sem.Release(1) }, nil
}

// circuitBreaker opens after consecutive failures against one endpoint
// pattern and refuses new requests until a cool-down elapses.
type circuitBreaker struct {
	mu        sync.Mutex
	failures  map[string]int
	openUntil map[string]time.Time
	threshold int
	cooldown  time.Duration
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{
		failures:  map[string]int{},
		openUntil: map[string]time.Time{},
		threshold: 3,
		cooldown:  60 * time.Second,
	}
}

// Allow reports whether endpoint may be called right now.
func (c *circuitBreaker) Allow(endpoint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.openUntil[endpoint]
	if !ok {
		return true
	}
	if time.Now().After(until) {
		delete(c.openUntil, endpoint)
		c.failures[endpoint] = 0
		return true
	}
	return false
}

func (c *circuitBreaker) RecordSuccess(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[endpoint] = 0
	delete(c.openUntil, endpoint)
}

func (c *circuitBreaker) RecordFailure(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[endpoint]++
	if c.failures[endpoint] >= c.threshold {
		c.openUntil[endpoint] = time.Now().Add(c.cooldown)
	}
}

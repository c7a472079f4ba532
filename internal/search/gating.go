package search

import "sync"

// Detail fetches are gated to a small ring of names around the current
// selection, so rapid scrolling through a long result list doesn't queue a
// network/subprocess fetch for every row the cursor passed through. Lookups
// fail open: an empty gate (before the first selection lands) allows all.
var (
	gateMu  sync.RWMutex
	allowed map[string]struct{}
)

// DetailAllowed reports whether a detail fetch for name should proceed.
func DetailAllowed(name string) bool {
	gateMu.RLock()
	defer gateMu.RUnlock()
	if allowed == nil {
		return true
	}
	_, ok := allowed[name]
	return ok
}

// AllowOnlySelected narrows the gate to a single name, for rapid navigation.
func AllowOnlySelected(name string) {
	gateMu.Lock()
	defer gateMu.Unlock()
	allowed = map[string]struct{}{name: {}}
}

// AllowRing widens the gate to the names within radius of selection in
// results, including the selection itself.
func AllowRing(results []string, selection, radius int) {
	ring := map[string]struct{}{}
	if selection >= 0 && selection < len(results) {
		ring[results[selection]] = struct{}{}
	}
	for step := 1; step <= radius; step++ {
		if i := selection - step; i >= 0 && i < len(results) {
			ring[results[i]] = struct{}{}
		}
		if i := selection + step; i >= 0 && i < len(results) {
			ring[results[i]] = struct{}{}
		}
	}
	gateMu.Lock()
	allowed = ring
	gateMu.Unlock()
}

// ResetGate clears the gate entirely (everything allowed), used when a new
// result set replaces the list.
func ResetGate() {
	gateMu.Lock()
	allowed = nil
	gateMu.Unlock()
}

// Package index maintains the process-wide package catalog and
// installed-set caches. Reads take an RWMutex read lock; refreshes run the
// pacman query outside the lock and hold the write lock only while the new
// set is installed, so a read waits at most for that step. Reads here are hot
// and refreshes rare, which is what makes shared state behind a lock the
// right trade against the channel-message style used everywhere else.
package index

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/pacsea-project/pacsea/internal/plog"
	"golang.org/x/exp/maps"
)

// ExplicitMode selects which pacman query backs explicit_names().
type ExplicitMode int

const (
	// LeafOnly uses `pacman -Qetq` (explicitly installed, not required by
	// anything else).
	LeafOnly ExplicitMode = iota
	// AllExplicit uses `pacman -Qeq` (every explicitly installed package).
	AllExplicit
)

// Runner abstracts subprocess execution so tests can substitute canned
// output instead of shelling out to a real pacman.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// LC_ALL=C pins the English field labels the parsers match on.
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")
	return cmd.Output()
}

// Index is the process-wide catalog. Zero value is not usable; use New.
type Index struct {
	mu      sync.RWMutex
	catalog map[string]model.PackageItem

	installedMu sync.RWMutex
	installed   map[string]struct{}
	explicit    map[string]struct{}

	run Runner
}

func New() *Index {
	return &Index{
		catalog:   map[string]model.PackageItem{},
		installed: map[string]struct{}{},
		explicit:  map[string]struct{}{},
		run:       execRunner,
	}
}

// WithRunner overrides the subprocess runner, for tests.
func (i *Index) WithRunner(r Runner) *Index {
	i.run = r
	return i
}

// LoadCatalog replaces the catalog wholesale.
func (i *Index) LoadCatalog(items []model.PackageItem) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.catalog = make(map[string]model.PackageItem, len(items))
	for _, it := range items {
		i.catalog[it.Name] = it
	}
}

// LoadFromPacman populates the catalog from one bulk `pacman -Sl` pass,
// whose "repo name version [installed]" lines carry everything PackageItem
// needs except descriptions (fetched lazily per package). Returns how many
// packages were loaded.
func (i *Index) LoadFromPacman(ctx context.Context) (int, error) {
	out, err := i.run(ctx, "pacman", "-Sl")
	if err != nil {
		return 0, err
	}
	var items []model.PackageItem
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		items = append(items, model.PackageItem{
			Name:    fields[1],
			Version: fields[2],
			Source:  model.OfficialSource(fields[0], ""),
		})
	}
	i.LoadCatalog(items)
	return len(items), nil
}

// AllOfficial returns a clone of the current catalog.
func (i *Index) AllOfficial() []model.PackageItem {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]model.PackageItem, 0, len(i.catalog))
	for _, v := range i.catalog {
		out = append(out, v)
	}
	return out
}

// FindPackageByName does an exact match against the catalog.
func (i *Index) FindPackageByName(name string) (model.PackageItem, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.catalog[name]
	return v, ok
}

// IsInstalled reports installed-set membership. It takes the read lock, so
// during RefreshInstalledSet it waits only for the final swap, never for
// the pacman call.
func (i *Index) IsInstalled(name string) bool {
	i.installedMu.RLock()
	defer i.installedMu.RUnlock()
	_, ok := i.installed[name]
	return ok
}

// ExplicitNames returns the current explicit-install set.
func (i *Index) ExplicitNames() map[string]struct{} {
	i.installedMu.RLock()
	defer i.installedMu.RUnlock()
	return maps.Clone(i.explicit)
}

// RefreshExplicitCache invokes pacman with the argument matching mode and
// atomically swaps the shared set.
func (i *Index) RefreshExplicitCache(ctx context.Context, mode ExplicitMode) error {
	arg := "-Qetq"
	if mode == AllExplicit {
		arg = "-Qeq"
	}
	out, err := i.run(ctx, "pacman", arg)
	if err != nil {
		// pacman -Qe* exits nonzero when the explicit set is empty; treat
		// that as "empty", not a hard failure, matching NotFound semantics.
		if len(out) == 0 {
			i.swapExplicit(map[string]struct{}{})
			return nil
		}
		plog.Warnf("refresh explicit cache (%s): %v", arg, err)
		return err
	}
	set := map[string]struct{}{}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			set[line] = struct{}{}
		}
	}
	i.swapExplicit(set)
	return nil
}

// RefreshInstalledSet invokes `pacman -Qq` and replaces the full installed
// set atomically.
func (i *Index) RefreshInstalledSet(ctx context.Context) error {
	out, err := i.run(ctx, "pacman", "-Qq")
	if err != nil && len(out) == 0 {
		return err
	}
	set := map[string]struct{}{}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			set[line] = struct{}{}
		}
	}
	i.installedMu.Lock()
	i.installed = set
	i.installedMu.Unlock()
	return nil
}

func (i *Index) swapExplicit(set map[string]struct{}) {
	i.installedMu.Lock()
	i.explicit = set
	i.installedMu.Unlock()
}

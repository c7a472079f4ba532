// Package updates builds the available-updates feed: official upgrades from
// `pacman -Qu`, AUR upgrades by comparing `pacman -Qm` (foreign packages)
// against batched AUR RPC info, persisted to lists/available_updates.txt.
package updates

import (
	"context"
	"fmt"
	"strings"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/fetch"
	"github.com/pacsea-project/pacsea/internal/resolver"
	"github.com/spf13/afero"
)

// Check gathers official and AUR updates. The AUR leg is skipped when no
// client is configured; a failure on either leg degrades to whatever the
// other produced instead of failing the whole feed.
func Check(ctx context.Context, run resolver.Runner, client *fetch.Client) ([]appstate.UpdateEntry, error) {
	entries, err := official(ctx, run)
	if err != nil {
		entries = nil
	}
	if client != nil {
		if aurEntries, aerr := aur(ctx, run, client); aerr == nil {
			entries = append(entries, aurEntries...)
		}
	}
	return entries, err
}

// official parses `pacman -Qu` lines of the form "name old -> new".
// A nonzero exit with no output means no updates, not a failure.
func official(ctx context.Context, run resolver.Runner) ([]appstate.UpdateEntry, error) {
	out, err := run(ctx, "pacman", "-Qu")
	if err != nil && len(out) == 0 {
		return nil, nil
	}
	return ParseQu(string(out)), nil
}

// ParseQu parses pacman -Qu output into update entries, skipping lines that
// don't carry the "name old -> new" shape (e.g. "[ignored]" suffixed ones
// keep their versions but drop the marker).
func ParseQu(out string) []appstate.UpdateEntry {
	var entries []appstate.UpdateEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "[ignored]"))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 || fields[2] != "->" {
			continue
		}
		entries = append(entries, appstate.UpdateEntry{
			Name:       fields[0],
			OldVersion: fields[1],
			NewVersion: fields[3],
		})
	}
	return entries
}

// aur lists foreign packages via `pacman -Qm` and batches one RPC info call
// for all of them, emitting an entry wherever the remote version differs.
func aur(ctx context.Context, run resolver.Runner, client *fetch.Client) ([]appstate.UpdateEntry, error) {
	out, err := run(ctx, "pacman", "-Qm")
	if err != nil && len(out) == 0 {
		return nil, nil
	}

	installed := map[string]string{}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		installed[fields[0]] = fields[1]
		names = append(names, fields[0])
	}
	if len(names) == 0 {
		return nil, nil
	}

	details, err := client.AURInfo(ctx, names)
	if err != nil {
		return nil, err
	}

	var entries []appstate.UpdateEntry
	for _, d := range details {
		current, ok := installed[d.Name]
		if !ok || current == d.Version {
			continue
		}
		entries = append(entries, appstate.UpdateEntry{
			Name:       d.Name,
			OldVersion: current,
			NewVersion: d.Version,
		})
	}
	return entries, nil
}

// Persist writes the feed in the documented one-line-per-update format:
// "name - old_version -> name - new_version".
func Persist(fs afero.Fs, path string, entries []appstate.UpdateEntry) error {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s - %s -> %s - %s\n", e.Name, e.OldVersion, e.Name, e.NewVersion)
	}
	return afero.WriteFile(fs, path, []byte(b.String()), 0o644)
}

// Load reads a previously persisted feed back into entries, tolerating and
// skipping lines that don't round-trip (the file is user-editable).
func Load(fs afero.Fs, path string) []appstate.UpdateEntry {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil
	}
	var entries []appstate.UpdateEntry
	for _, line := range strings.Split(string(raw), "\n") {
		left, right, ok := strings.Cut(line, " -> ")
		if !ok {
			continue
		}
		name, oldV, ok := cutVersion(left)
		if !ok {
			continue
		}
		_, newV, ok := cutVersion(right)
		if !ok {
			continue
		}
		entries = append(entries, appstate.UpdateEntry{Name: name, OldVersion: oldV, NewVersion: newV})
	}
	return entries
}

func cutVersion(s string) (name, version string, ok bool) {
	name, version, ok = strings.Cut(strings.TrimSpace(s), " - ")
	return strings.TrimSpace(name), strings.TrimSpace(version), ok
}

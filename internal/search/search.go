// Package search implements the live query pipeline: merging official-index
// matches with AUR RPC results, ranking them, applying the repo/AUR filter
// toggles, and dropping stale responses by query id. The fuzzy matcher is
// generalized from the plugin-browser search; the repo-filter and
// selection-preservation rules follow the package-results pane's behavior.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/fetch"
	"github.com/pacsea-project/pacsea/internal/index"
	"github.com/pacsea-project/pacsea/internal/model"
)

// QueryResult is one finished search, tagged with the id it was dispatched
// under so the tick loop can drop results that arrive after a newer query.
type QueryResult struct {
	ID    uint64
	Term  string
	Items []model.PackageItem
	Err   error
}

// Engine runs queries against the official catalog and the AUR.
type Engine struct {
	idx    *index.Index
	client *fetch.Client
}

func NewEngine(idx *index.Index, client *fetch.Client) *Engine {
	return &Engine{idx: idx, client: client}
}

// Run executes one query. Official matches come from the in-process catalog
// (no subprocess per keystroke); AUR matches from the RPC search endpoint.
// An AUR failure degrades to official-only results rather than failing the
// whole query.
func (e *Engine) Run(ctx context.Context, id uint64, term string) QueryResult {
	term = strings.TrimSpace(term)
	if term == "" {
		return QueryResult{ID: id, Term: term}
	}

	items := matchOfficial(e.idx.AllOfficial(), term)

	if e.client != nil {
		aur, err := e.client.AURSearch(ctx, term)
		if err == nil {
			items = append(items, dedupAgainst(items, aur)...)
		}
	}

	Sort(items)
	return QueryResult{ID: id, Term: term, Items: items}
}

// matchOfficial keeps catalog entries whose name matches term, ignoring
// case: as a substring, or as an in-order subsequence, for any term length.
func matchOfficial(catalog []model.PackageItem, term string) []model.PackageItem {
	lower := strings.ToLower(term)
	var out []model.PackageItem
	for _, it := range catalog {
		name := strings.ToLower(it.Name)
		if strings.Contains(name, lower) || fuzzyMatch(lower, name) {
			out = append(out, it)
		}
	}
	return out
}

// fuzzyMatch reports whether every rune of query appears in text in order.
func fuzzyMatch(query, text string) bool {
	queryIdx := 0
	for _, char := range text {
		if queryIdx < len(query) && char == rune(query[queryIdx]) {
			queryIdx++
		}
	}
	return queryIdx == len(query)
}

func dedupAgainst(existing []model.PackageItem, incoming []model.PackageItem) []model.PackageItem {
	seen := make(map[string]bool, len(existing))
	for _, it := range existing {
		seen[it.Name] = true
	}
	var out []model.PackageItem
	for _, it := range incoming {
		if !seen[it.Name] {
			out = append(out, it)
		}
	}
	return out
}

// repoRank orders official repos ahead of the AUR, core first.
func repoRank(it model.PackageItem) int {
	if it.Source.IsAUR {
		return 100
	}
	switch strings.ToLower(it.Source.Repo) {
	case "core":
		return 0
	case "extra":
		return 1
	case "multilib":
		return 2
	default:
		return 3
	}
}

// Sort orders results official-repos-first (core, extra, multilib, other),
// then AUR by descending popularity, alphabetical within each group.
func Sort(items []model.PackageItem) {
	sort.SliceStable(items, func(a, b int) bool {
		ra, rb := repoRank(items[a]), repoRank(items[b])
		if ra != rb {
			return ra < rb
		}
		if items[a].Source.IsAUR && items[b].Source.IsAUR && items[a].Popularity != items[b].Popularity {
			return items[a].Popularity > items[b].Popularity
		}
		return items[a].Name < items[b].Name
	})
}

// ApplyResult folds a finished query into the state, dropping it if a newer
// query has been dispatched since (ids are monotonic; LatestQueryID never
// regresses). Returns whether the result was applied.
func ApplyResult(app *appstate.AppState, res QueryResult) bool {
	if res.ID < app.LatestQueryID {
		return false
	}
	app.AllResults = res.Items
	ApplyFilters(app)
	return true
}

// ApplyFilters recomputes app.Results from app.AllResults and the current
// filter toggles, preserving the selection by name when the previously
// selected package survives the filter, clamping otherwise.
func ApplyFilters(app *appstate.AppState) {
	var prevName string
	if app.Selection >= 0 && app.Selection < len(app.Results) {
		prevName = app.Results[app.Selection].Name
	}

	filtered := app.AllResults[:0:0]
	for _, it := range app.AllResults {
		if includeItem(app.Filters, it) {
			filtered = append(filtered, it)
		}
	}
	app.Results = filtered

	if prevName != "" {
		for i, it := range app.Results {
			if it.Name == prevName {
				app.Selection = i
				return
			}
		}
	}
	if len(app.Results) == 0 {
		app.Selection = 0
	} else if app.Selection >= len(app.Results) {
		app.Selection = len(app.Results) - 1
	}
}

// includeItem applies the repo/AUR toggles. An unknown official repo is
// included only when every official toggle is enabled, so narrowing to one
// repo doesn't surface third-party repos the user didn't ask for.
func includeItem(f appstate.ResultFilters, it model.PackageItem) bool {
	if it.Source.IsAUR {
		return f.ShowAUR
	}
	switch strings.ToLower(it.Source.Repo) {
	case "core":
		return f.ShowCore
	case "extra":
		return f.ShowExtra
	case "multilib":
		return f.ShowMultilib
	default:
		return f.ShowCore && f.ShowExtra && f.ShowMultilib
	}
}

// ToggleInstalledOnly flips installed-only mode: entering it snapshots the
// current results and focus, filters to installed packages, and asks the
// caller to persist the installed snapshot; leaving it restores the saved
// view. Toggling twice restores the prior result list and focus exactly.
func ToggleInstalledOnly(app *appstate.AppState, idx *index.Index) (installedNames []string, entered bool) {
	if app.InstalledOnly {
		app.InstalledOnly = false
		app.Results = app.SavedResults
		app.Selection = app.SavedSelection
		app.Focus = app.SavedFocus
		app.SavedResults = nil
		return nil, false
	}

	app.SavedResults = app.Results
	app.SavedSelection = app.Selection
	app.SavedFocus = app.Focus
	app.InstalledOnly = true

	filtered := app.Results[:0:0]
	for _, it := range app.Results {
		if idx.IsInstalled(it.Name) {
			filtered = append(filtered, it)
			installedNames = append(installedNames, it.Name)
		}
	}
	app.Results = filtered
	app.Selection = 0
	return installedNames, true
}

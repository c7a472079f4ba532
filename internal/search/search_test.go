package search

import (
	"context"
	"testing"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/index"
	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func official(name, repo string) model.PackageItem {
	return model.PackageItem{Name: name, Version: "1.0", Source: model.OfficialSource(repo, "x86_64")}
}

func aurPkg(name string, popularity float64) model.PackageItem {
	return model.PackageItem{Name: name, Source: model.AURSource(), Popularity: popularity}
}

func TestSort_OfficialBeforeAURAndPopularityWithinAUR(t *testing.T) {
	items := []model.PackageItem{
		aurPkg("zeta-git", 0.5),
		official("ripgrep", "extra"),
		aurPkg("alpha-git", 3.2),
		official("glibc", "core"),
	}
	Sort(items)

	assert.Equal(t, "glibc", items[0].Name, "core ranks first")
	assert.Equal(t, "ripgrep", items[1].Name)
	assert.Equal(t, "alpha-git", items[2].Name, "higher AUR popularity wins")
	assert.Equal(t, "zeta-git", items[3].Name)
}

func TestApplyResult_DropsStaleQueryIDs(t *testing.T) {
	app := appstate.New()
	app.LatestQueryID = 5

	applied := ApplyResult(app, QueryResult{ID: 3, Items: []model.PackageItem{official("old", "core")}})
	assert.False(t, applied, "a result older than the latest dispatched query is discarded")
	assert.Empty(t, app.Results)

	applied = ApplyResult(app, QueryResult{ID: 5, Items: []model.PackageItem{official("fresh", "core")}})
	assert.True(t, applied)
	require.Len(t, app.Results, 1)
	assert.Equal(t, "fresh", app.Results[0].Name)
	assert.EqualValues(t, 5, app.LatestQueryID, "the id watermark never regresses")
}

func TestApplyFilters_RespectsTogglesAndPreservesSelectionByName(t *testing.T) {
	app := appstate.New()
	app.AllResults = []model.PackageItem{
		official("glibc", "core"),
		official("ripgrep", "extra"),
		aurPkg("yay", 1.0),
	}
	ApplyFilters(app)
	require.Len(t, app.Results, 3)
	app.Selection = 1 // ripgrep

	app.Filters.ShowCore = false
	ApplyFilters(app)
	require.Len(t, app.Results, 2)
	assert.Equal(t, "ripgrep", app.Results[app.Selection].Name, "selection follows the named package")

	app.Filters.ShowAUR = false
	ApplyFilters(app)
	require.Len(t, app.Results, 1)
}

func TestApplyFilters_UnknownRepoOnlyWhenAllOfficialEnabled(t *testing.T) {
	app := appstate.New()
	app.AllResults = []model.PackageItem{official("eos-hello", "endeavouros")}

	ApplyFilters(app)
	assert.Len(t, app.Results, 1)

	app.Filters.ShowMultilib = false
	ApplyFilters(app)
	assert.Empty(t, app.Results, "narrowing any official toggle hides unknown repos")
}

func TestFuzzyMatch_SubsequenceOnly(t *testing.T) {
	assert.True(t, fuzzyMatch("rg", "ripgrep"))
	assert.False(t, fuzzyMatch("gr", "rg"))
}

func TestToggleInstalledOnly_RoundTripRestoresViewAndFocus(t *testing.T) {
	idx := index.New().WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("glibc\n"), nil
	})
	require.NoError(t, idx.RefreshInstalledSet(context.Background()))

	app := appstate.New()
	app.Results = []model.PackageItem{official("glibc", "core"), official("ripgrep", "extra")}
	app.Selection = 1
	app.Focus = appstate.FocusSearch

	names, entered := ToggleInstalledOnly(app, idx)
	assert.True(t, entered)
	assert.Equal(t, []string{"glibc"}, names)
	require.Len(t, app.Results, 1)

	_, entered = ToggleInstalledOnly(app, idx)
	assert.False(t, entered)
	require.Len(t, app.Results, 2, "toggling twice restores the prior result list")
	assert.Equal(t, 1, app.Selection)
	assert.Equal(t, appstate.FocusSearch, app.Focus)
}

func TestEngine_RunMatchesCatalogWithoutAURClient(t *testing.T) {
	idx := index.New()
	idx.LoadCatalog([]model.PackageItem{
		official("ripgrep", "extra"),
		official("ripgrep-all", "extra"),
		official("glibc", "core"),
	})
	engine := NewEngine(idx, nil)

	res := engine.Run(context.Background(), 7, "ripgrep")
	assert.EqualValues(t, 7, res.ID)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "ripgrep", res.Items[0].Name)

	res = engine.Run(context.Background(), 8, "   ")
	assert.Empty(t, res.Items, "blank input runs no query")
}

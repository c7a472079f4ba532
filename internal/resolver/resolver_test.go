package resolver

import (
	"context"
	"testing"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	installed map[string]bool
	official  map[string]model.PackageItem
}

func (f fakeCatalog) IsInstalled(name string) bool { return f.installed[name] }
func (f fakeCatalog) FindPackageByName(name string) (model.PackageItem, bool) {
	it, ok := f.official[name]
	return it, ok
}

func TestResolveDependencies_FiltersVirtualAndSelf(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if args[0] == "-Q" {
			return []byte("glibc 2.39-1\n"), nil
		}
		return []byte("Depends On     : glibc  libfoo.so=1-64  ripgrep\nOptional Deps  : git: for vcs support\n"), nil
	}
	catalog := fakeCatalog{installed: map[string]bool{"glibc": true}}

	infos, err := ResolveDependencies(context.Background(), run, catalog, nil, []model.PackageItem{{Name: "ripgrep"}}, DepOptions{})
	require.NoError(t, err)

	byName := map[string]model.DependencyInfo{}
	for _, d := range infos {
		byName[d.Name] = d
	}

	assert.Contains(t, byName, "glibc")
	assert.Equal(t, model.DepInstalled, byName["glibc"].Status.Kind)
	assert.NotContains(t, byName, "ripgrep", "a package must not list itself as a dependency")
	assert.NotContains(t, byName, "libfoo.so", "virtual .so providers are filtered")
	assert.Contains(t, byName, "git")
}

func TestResolveFiles_ClassifiesNewChangedRemoved(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		switch args[0] {
		case "-Fl":
			return []byte("pkg /usr/bin/pkg\npkg /etc/pkg.conf\n"), nil
		case "-Qii":
			return []byte("Name            : pkg\n"), nil
		default:
			return []byte("pkg /usr/bin/pkg\npkg /etc/old.conf\n"), nil
		}
	}

	out, err := ResolveFiles(context.Background(), run, FileActionInstall, []model.PackageItem{{Name: "pkg"}})
	require.NoError(t, err)

	info := out["pkg"]
	assert.Equal(t, 1, info.New, "etc/pkg.conf is new")
	assert.Equal(t, 1, info.Changed, "usr/bin/pkg already exists")
	assert.Equal(t, 1, info.Removed, "etc/old.conf disappears")
	assert.Equal(t, 1, info.PacsaveCount)
}

func TestResolveReverseDependencies_BFS(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		switch args[1] {
		case "libfoo":
			return []byte("Required By    : app-a  app-b\n"), nil
		case "app-a":
			return []byte("Required By    : suite\n"), nil
		case "app-b", "suite":
			return []byte("Required By    : None\n"), nil
		}
		return []byte("Required By    : None\n"), nil
	}

	report, err := ResolveReverseDependencies(context.Background(), run, []string{"libfoo"})
	require.NoError(t, err)

	names := map[string]int{}
	for _, d := range report.Dependencies {
		names[d.Name] = d.Depth
	}
	assert.Equal(t, 1, names["app-a"])
	assert.Equal(t, 1, names["app-b"])
	assert.Equal(t, 2, names["suite"])
	require.Len(t, report.Summaries, 1)
	assert.Equal(t, 2, report.Summaries[0].DirectDependents)
	assert.Equal(t, 1, report.Summaries[0].TransitiveDependents)
}

func TestResolveSandbox_PreservesPriorOnFetchFailure(t *testing.T) {
	previous := map[string]model.SandboxInfo{
		"yay": {Package: "yay", Entries: []model.SandboxEntry{{Name: "go", Class: model.SandboxMakedepends}}},
	}
	out := ResolveSandbox(map[string]string{"yay": ""}, previous)
	assert.Equal(t, previous["yay"], out["yay"])
}

func TestResolveSandbox_ClassifiesFields(t *testing.T) {
	raw := "pkgbase = yay\n\tdepends = pacman\n\tmakedepends = go\n\toptdepends = sudo: privilege escalation\n"
	out := ResolveSandbox(map[string]string{"yay": raw}, nil)
	entries := out["yay"].Entries
	classes := map[string]model.SandboxDependencyClass{}
	for _, e := range entries {
		classes[e.Name] = e.Class
	}
	assert.Equal(t, model.SandboxDepends, classes["pacman"])
	assert.Equal(t, model.SandboxMakedepends, classes["go"])
	assert.Equal(t, model.SandboxOptdepends, classes["sudo"])
}

func TestFastSummary_RisksScaleWithAURAndCount(t *testing.T) {
	items := make([]model.PackageItem, 12)
	for i := range items {
		items[i] = model.PackageItem{Name: "p", Source: model.OfficialSource("core", "x86_64")}
	}
	data := FastSummary(appstate.ActionInstall, items)
	assert.Equal(t, "Medium", data.Risk)
}

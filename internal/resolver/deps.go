package resolver

import (
	"context"
	"strings"

	"github.com/pacsea-project/pacsea/internal/errdefs"
	"github.com/pacsea-project/pacsea/internal/model"
)

// Catalog is what dependency resolution needs from the package index:
// installed-set membership and official-catalog lookups for source
// classification. *index.Index satisfies it.
type Catalog interface {
	IsInstalled(name string) bool
	FindPackageByName(name string) (model.PackageItem, bool)
}

// SRCINFOFetcher fetches an AUR package's .SRCINFO, satisfied by
// *fetch.Client in production.
type SRCINFOFetcher interface {
	SRCINFO(ctx context.Context, pkgbase string) (string, error)
}

// DepOptions tunes one dependency resolution pass.
type DepOptions struct {
	// AURHelper is the helper binary to query for AUR package metadata
	// ("paru" or "yay"). Empty means neither is installed: AUR packages
	// whose metadata can't be read locally resolve as Missing — the RPC
	// API fallback is deliberately not used for dependency expansion, so
	// mistyped names don't storm the AUR.
	AURHelper string
	// ResolveChildren controls whether each dependency's own shallow
	// dependency list is fetched (one extra -Si per dep).
	ResolveChildren bool
}

// systemPackages flags dependencies whose removal or downgrade can brick a
// host; the preflight UI renders these with a warning marker.
var systemPackages = map[string]bool{
	"glibc": true, "systemd": true, "pacman": true, "bash": true,
	"coreutils": true, "filesystem": true, "linux": true, "util-linux": true,
}

// ResolveDependencies computes the flat dependency list for one preflight
// item set. Official packages are read from `pacman -Si` (`-Qi` fallback for
// local-only ones); AUR packages from the configured helper's `-Si`, with
// .SRCINFO unioned in for makedepends/checkdepends/optdepends the helper
// output omits. Failures on one item never drop the rest.
func ResolveDependencies(ctx context.Context, run Runner, catalog Catalog, srcinfo SRCINFOFetcher, items []model.PackageItem, opts DepOptions) ([]model.DependencyInfo, error) {
	seen := map[string]model.DependencyInfo{}
	for _, item := range items {
		var depends, optDepends []model.DependencySpec
		var err error
		if item.Source.IsAUR {
			depends, optDepends, err = resolveAURDeps(ctx, run, srcinfo, item.Name, opts.AURHelper)
		} else {
			depends, optDepends, err = resolveOfficialDeps(ctx, run, item.Name)
		}
		if err != nil {
			continue
		}
		for _, d := range depends {
			mergeDependency(ctx, run, seen, d, item.Name, catalog, false, opts)
		}
		for _, d := range optDepends {
			mergeDependency(ctx, run, seen, d, item.Name, catalog, true, opts)
		}
	}

	out := make([]model.DependencyInfo, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	return out, nil
}

func mergeDependency(ctx context.Context, run Runner, seen map[string]model.DependencyInfo, d model.DependencySpec, requiredBy string, catalog Catalog, optional bool, opts DepOptions) {
	if isVirtualOrSelf(d.Name, requiredBy) {
		return
	}
	info, ok := seen[d.Name]
	if !ok {
		info = model.DependencyInfo{
			Name:        d.Name,
			Requirement: d.Requirement,
			Optional:    optional,
			Note:        d.Note,
		}
		info.Status = depStatus(ctx, run, catalog, d, optional, opts)
		info.Source, info.IsLocal = classifySource(catalog, d.Name, info.Status)
		info.IsCore = !info.Source.IsAUR && strings.EqualFold(info.Source.Repo, "core")
		info.IsSystem = systemPackages[d.Name]
		if opts.ResolveChildren {
			info.Children = shallowChildren(ctx, run, d.Name)
		}
	}
	if requiredBy != d.Name {
		info.RequiredBy = appendUnique(info.RequiredBy, requiredBy)
	}
	seen[d.Name] = info
}

// depStatus picks the tagged status for one dependency spec by comparing
// the locally installed version (pacman -Q) against the requirement.
func depStatus(ctx context.Context, run Runner, catalog Catalog, d model.DependencySpec, optional bool, opts DepOptions) model.DepStatus {
	installed := catalog != nil && catalog.IsInstalled(d.Name)
	if installed {
		version := installedVersion(ctx, run, d.Name)
		if RequirementSatisfied(version, d.Requirement) {
			return model.InstalledStatus(version)
		}
		if strings.HasPrefix(d.Requirement, "<") && CompareVersions(version, strings.TrimLeft(d.Requirement, "<=")) > 0 {
			return model.ConflictStatus("installed " + version + " is newer than required " + d.Requirement)
		}
		return model.ToUpgradeStatus(version, d.Requirement)
	}

	if catalog != nil {
		if _, inCatalog := catalog.FindPackageByName(d.Name); inCatalog {
			return model.ToInstallStatus()
		}
	}
	if opts.AURHelper == "" {
		// Not installed, not official, and no helper to ask the AUR with.
		return model.MissingStatus()
	}
	if optional {
		return model.MissingStatus()
	}
	return model.ToInstallStatus()
}

// installedVersion parses `pacman -Q name` ("name version") best-effort.
func installedVersion(ctx context.Context, run Runner, name string) string {
	out, err := run(ctx, "pacman", "-Q", name)
	if err != nil {
		return ""
	}
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// classifySource looks the name up in the official index first, falling back
// to AUR for anything unknown; a dependency that is installed but in
// neither catalog is local-only.
func classifySource(catalog Catalog, name string, status model.DepStatus) (model.Kind, bool) {
	if catalog != nil {
		if item, ok := catalog.FindPackageByName(name); ok {
			return item.Source, false
		}
	}
	if status.Kind == model.DepInstalled {
		return model.Kind{}, true
	}
	return model.AURSource(), false
}

// shallowChildren reads one level of the dependency's own Depends On list.
func shallowChildren(ctx context.Context, run Runner, name string) []string {
	out, err := run(ctx, "pacman", "-Si", name)
	if err != nil {
		return nil
	}
	var children []string
	for _, spec := range parseSpecField(lines(out), "Depends On") {
		if !strings.Contains(spec.Name, ".so") {
			children = append(children, spec.Name)
		}
	}
	return children
}

// isVirtualOrSelf filters the .so/.so.N/.so=N virtual-library provider
// syntax pacman embeds in Depends On, and a package naming itself (AUR
// split packages sometimes list the pkgbase as a dependency of a subpkg).
func isVirtualOrSelf(name, owner string) bool {
	if name == owner {
		return true
	}
	if idx := strings.Index(name, ".so"); idx >= 0 {
		return true
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}

func resolveOfficialDeps(ctx context.Context, run Runner, name string) ([]model.DependencySpec, []model.DependencySpec, error) {
	out, err := run(ctx, "pacman", "-Si", name)
	if err != nil {
		// Local-only packages (installed but absent from sync DBs) still
		// answer to -Qi.
		out, err = run(ctx, "pacman", "-Qi", name)
		if err != nil {
			return nil, nil, errdefs.CommandFailed(1, string(out), "pacman -Si/-Qi "+name)
		}
	}
	block := lines(out)
	depends := parseSpecField(block, "Depends On")
	optDepends := parseOptField(block, "Optional Deps")
	return depends, optDepends, nil
}

// resolveAURDeps reads an AUR package's dependency fields from the helper's
// -Si output, then unions in SRCINFO classes the helper output omits. With
// no helper available the SRCINFO alone still yields the build-time classes.
func resolveAURDeps(ctx context.Context, run Runner, srcinfo SRCINFOFetcher, pkgbase, helper string) ([]model.DependencySpec, []model.DependencySpec, error) {
	var depends, optDepends []model.DependencySpec
	haveHelper := false
	if helper != "" {
		if out, err := run(ctx, helper, "-Si", pkgbase); err == nil {
			block := lines(out)
			depends = parseSpecField(block, "Depends On")
			optDepends = parseOptField(block, "Optional Deps")
			haveHelper = true
		}
	}

	if srcinfo == nil {
		if !haveHelper {
			return nil, nil, errdefs.NotFound("no AUR helper or SRCINFO source for %s", pkgbase)
		}
		return depends, optDepends, nil
	}

	raw, err := srcinfo.SRCINFO(ctx, pkgbase)
	if err != nil {
		if !haveHelper {
			return nil, nil, err
		}
		return depends, optDepends, nil
	}

	present := map[string]bool{}
	for _, d := range depends {
		present[d.Name] = true
	}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		key, val, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "depends", "makedepends", "checkdepends":
			name, req := splitNameRequirement(val)
			if !present[name] {
				present[name] = true
				depends = append(depends, model.DependencySpec{Name: name, Requirement: req})
			}
		case "optdepends":
			name, note, _ := strings.Cut(val, ":")
			name = strings.TrimSpace(name)
			if !present[name] {
				present[name] = true
				optDepends = append(optDepends, model.DependencySpec{Name: name, Note: strings.TrimSpace(note)})
			}
		}
	}
	return depends, optDepends, nil
}

// parseSpecField reads a pacman "Label : a  b  c" multi-value field into
// DependencySpecs, splitting each value on its version-requirement operator.
func parseSpecField(block []string, label string) []model.DependencySpec {
	v, ok := pacmanField(block, label)
	if !ok || v == "None" {
		return nil
	}
	var out []model.DependencySpec
	for _, f := range splitFields(v) {
		name, req := splitNameRequirement(f)
		out = append(out, model.DependencySpec{Name: name, Requirement: req})
	}
	return out
}

func parseOptField(block []string, label string) []model.DependencySpec {
	var out []model.DependencySpec
	capture := false
	for _, l := range block {
		idx := strings.Index(l, ":")
		if idx >= 0 && strings.TrimSpace(l[:idx]) == label {
			capture = true
			l = l[idx+1:]
		} else if capture && strings.HasPrefix(l, "                ") {
			// continuation line of a multi-line Optional Deps block
		} else if idx >= 0 {
			capture = false
		}
		if !capture {
			continue
		}
		entry := strings.TrimSpace(l)
		if entry == "" || entry == "None" {
			continue
		}
		name, note, _ := strings.Cut(entry, ":")
		out = append(out, model.DependencySpec{Name: strings.TrimSpace(name), Note: strings.TrimSpace(note)})
	}
	return out
}

func splitNameRequirement(s string) (name, requirement string) {
	for _, op := range []string{">=", "<=", "==", "=", ">", "<"} {
		if idx := strings.Index(s, op); idx >= 0 {
			return s[:idx], s[idx:]
		}
	}
	return s, ""
}

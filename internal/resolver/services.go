package resolver

import (
	"context"
	"strings"

	"github.com/pacsea-project/pacsea/internal/model"
)

// unitSuffixes are the systemd unit types the service resolver surfaces.
var unitSuffixes = []string{".service", ".socket", ".timer", ".target", ".path"}

// ServiceAction mirrors the preflight action; restarts are only recommended
// for installs (an upgrade of a running unit's binary), never for removals.
type ServiceAction int

const (
	ServiceActionInstall ServiceAction = iota
	ServiceActionRemove
)

// ResolveServices finds the systemd units each package provides via its
// file list, then cross-references every currently active unit's ExecStart
// binary against the binaries each package ships, so a package that ships a
// daemon binary but no unit file still shows up as impacting the unit that
// runs it.
func ResolveServices(ctx context.Context, run Runner, action ServiceAction, items []model.PackageItem) (map[string]model.ServiceImpact, error) {
	activeUnits, err := activeUnitSet(ctx, run)
	if err != nil {
		activeUnits = map[string]bool{} // fail open: no active state known
	}

	out := map[string]model.ServiceImpact{}
	binariesByPackage := map[string][]string{}

	for _, item := range items {
		paths, ferr := packageFileList(ctx, run, item.Name)
		if ferr != nil {
			continue
		}
		for _, path := range paths {
			if isUnitPath(path) {
				addProvider(out, lastPathSegment(path), item.Name, activeUnits)
			}
			if strings.Contains(path, "bin/") {
				binariesByPackage[item.Name] = append(binariesByPackage[item.Name], path)
			}
		}
	}

	// Binary impact: an active unit whose ExecStart resolves to a binary a
	// package ships is affected by that package even without a unit file.
	for unit, active := range activeUnits {
		if !active {
			continue
		}
		execBinary := execStartBinary(ctx, run, unit)
		if execBinary == "" {
			continue
		}
		for pkg, binaries := range binariesByPackage {
			for _, b := range binaries {
				if binaryMatches(execBinary, b) {
					impact := addProvider(out, unit, pkg, activeUnits)
					impact.BinaryImpact = true
					out[unit] = impact
				}
			}
		}
	}

	for unit, impact := range out {
		impact.NeedsRestart = action == ServiceActionInstall && impact.IsActive
		if impact.NeedsRestart {
			impact.RecommendedDecision = model.RestartNow
		} else {
			impact.RecommendedDecision = model.RestartDefer
		}
		impact.UserDecision = impact.RecommendedDecision
		out[unit] = impact
	}
	return out, nil
}

func addProvider(out map[string]model.ServiceImpact, unit, pkg string, activeUnits map[string]bool) model.ServiceImpact {
	impact, ok := out[unit]
	if !ok {
		impact = model.ServiceImpact{Unit: unit, IsActive: activeUnits[unit]}
	}
	impact.ProvidingPackages = appendUnique(impact.ProvidingPackages, pkg)
	out[unit] = impact
	return impact
}

// packageFileList reads the remote file list, falling back to the local one
// for packages absent from the file database (e.g. AUR installs).
func packageFileList(ctx context.Context, run Runner, name string) ([]string, error) {
	out, err := run(ctx, "pacman", "-Fl", name)
	if err != nil {
		out, err = run(ctx, "pacman", "-Ql", name)
		if err != nil {
			return nil, err
		}
	}
	return parseFileListOutput(out, name), nil
}

func isUnitPath(path string) bool {
	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func activeUnitSet(ctx context.Context, run Runner) (map[string]bool, error) {
	out, err := run(ctx, "systemctl", "list-units", "--type=service,socket,timer,target,path", "--no-legend", "--plain")
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	for _, l := range lines(out) {
		fields := strings.Fields(l)
		if len(fields) < 3 {
			continue
		}
		set[fields[0]] = fields[2] == "active"
	}
	return set, nil
}

// execStartBinary extracts the binary path from systemctl's
// "ExecStart={ path=/usr/bin/foo ; argv[]=... }" property form.
func execStartBinary(ctx context.Context, run Runner, unit string) string {
	out, err := run(ctx, "systemctl", "show", "-p", "ExecStart", unit)
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(string(out))
	if idx := strings.Index(line, "path="); idx >= 0 {
		rest := line[idx+len("path="):]
		if end := strings.IndexAny(rest, " ;}"); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	return ""
}

// binaryMatches compares by file name equality or path suffix, since the
// package file list carries paths without a leading slash.
func binaryMatches(execBinary, shipped string) bool {
	if strings.HasSuffix(execBinary, "/"+lastPathSegment(shipped)) {
		return true
	}
	return strings.HasSuffix("/"+shipped, execBinary)
}

func lastPathSegment(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

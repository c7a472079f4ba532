package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/pacsea-project/pacsea/internal/plog"
)

// fileDBMaxAge is the soft staleness limit on pacman's file database; past
// it a best-effort `pacman -Fy` sync is attempted before resolving.
const fileDBMaxAge = 30 * 24 * time.Hour

var fileDBDir = "/var/lib/pacman/sync"
var statFile = os.Stat

// FileAction mirrors the preflight action for file resolution: an install
// predicts new/changed paths, a removal predicts what disappears.
type FileAction int

const (
	FileActionInstall FileAction = iota
	FileActionRemove
)

// ResolveFiles predicts the file-level impact of the action on each item.
// Official install targets are batched into a single `pacman -Fl`
// invocation; AUR install targets are skipped (their file list doesn't
// exist until makepkg has run); removals read the installed list via -Ql.
func ResolveFiles(ctx context.Context, run Runner, action FileAction, items []model.PackageItem) (map[string]model.PackageFileInfo, error) {
	if action == FileActionInstall {
		ensureFileDBFresh(ctx, run)
	}

	out := map[string]model.PackageFileInfo{}

	if action == FileActionRemove {
		for _, item := range items {
			out[item.Name] = resolveRemovalFileSet(ctx, run, item.Name)
		}
		return out, nil
	}

	var officialNames []string
	for _, item := range items {
		if item.Source.IsAUR {
			// Position in the result map is preserved with an empty record.
			out[item.Name] = model.PackageFileInfo{Package: item.Name}
			continue
		}
		officialNames = append(officialNames, item.Name)
	}
	if len(officialNames) == 0 {
		return out, nil
	}

	predicted, err := batchRemoteFileLists(ctx, run, officialNames)
	if err != nil {
		for _, name := range officialNames {
			out[name] = model.PackageFileInfo{Package: name, Error: err.Error()}
		}
		return out, nil
	}

	for _, name := range officialNames {
		out[name] = classifyInstallFileSet(ctx, run, name, predicted[name])
	}
	return out, nil
}

// batchRemoteFileLists runs one `pacman -Fl a b c` for all names, splitting
// the two-column output back out per package.
func batchRemoteFileLists(ctx context.Context, run Runner, names []string) (map[string][]string, error) {
	args := append([]string{"-Fl"}, names...)
	out, err := run(ctx, "pacman", args...)
	if err != nil {
		return nil, err
	}
	byPackage := map[string][]string{}
	for _, l := range lines(out) {
		pkg, path, ok := strings.Cut(l, " ")
		if !ok {
			continue
		}
		path = strings.TrimPrefix(strings.TrimSpace(path), "/")
		if path == "" || strings.HasSuffix(path, "/") {
			continue
		}
		byPackage[pkg] = append(byPackage[pkg], path)
	}
	return byPackage, nil
}

// classifyInstallFileSet diffs the predicted file list against what's on
// disk for an already-installed package: paths present now are Changed
// (pacnew-candidate when a backup config), new paths New, and paths that
// would vanish on the upgrade Removed.
func classifyInstallFileSet(ctx context.Context, run Runner, name string, predictedPaths []string) model.PackageFileInfo {
	currentOut, curErr := run(ctx, "pacman", "-Ql", name)
	alreadyInstalled := curErr == nil
	var currentPaths map[string]struct{}
	var backups map[string]struct{}
	if alreadyInstalled {
		currentPaths = map[string]struct{}{}
		for _, p := range parseFileListOutput(currentOut, name) {
			currentPaths[p] = struct{}{}
		}
		backups = backupConfigs(ctx, run, name)
	}

	info := model.PackageFileInfo{Package: name}
	for _, path := range predictedPaths {
		change := model.FileChange{Path: path, Package: name, IsConfig: isConfigPath(path, backups)}
		if alreadyInstalled {
			if _, exists := currentPaths[path]; exists {
				change.Type = model.ChangeChanged
				change.PredictedPacnew = change.IsConfig
			} else {
				change.Type = model.ChangeNew
			}
		} else {
			change.Type = model.ChangeNew
		}
		info.Changes = append(info.Changes, change)
	}

	if alreadyInstalled {
		predictedSet := map[string]struct{}{}
		for _, p := range predictedPaths {
			predictedSet[p] = struct{}{}
		}
		for path := range currentPaths {
			if _, stillPresent := predictedSet[path]; !stillPresent {
				isConfig := isConfigPath(path, backups)
				info.Changes = append(info.Changes, model.FileChange{
					Path: path, Package: name, Type: model.ChangeRemoved,
					IsConfig: isConfig, PredictedPacsave: isConfig,
				})
			}
		}
	}

	info.Recompute()
	return info
}

// resolveRemovalFileSet lists the installed files of a removal target: every
// path becomes Removed, backup configs flagged as pacsave candidates.
func resolveRemovalFileSet(ctx context.Context, run Runner, name string) model.PackageFileInfo {
	out, err := run(ctx, "pacman", "-Ql", name)
	if err != nil {
		return model.PackageFileInfo{Package: name, Error: "pacman -Ql " + name + " failed"}
	}
	backups := backupConfigs(ctx, run, name)

	info := model.PackageFileInfo{Package: name}
	for _, path := range parseFileListOutput(out, name) {
		isConfig := isConfigPath(path, backups)
		info.Changes = append(info.Changes, model.FileChange{
			Path: path, Package: name, Type: model.ChangeRemoved,
			IsConfig: isConfig, PredictedPacsave: isConfig,
		})
	}
	info.Recompute()
	return info
}

// backupConfigs reads the Backup Files section of `pacman -Qii`, the
// authoritative list of paths pacman will preserve as .pacnew/.pacsave.
func backupConfigs(ctx context.Context, run Runner, name string) map[string]struct{} {
	out, err := run(ctx, "pacman", "-Qii", name)
	if err != nil {
		return nil
	}
	var backups map[string]struct{}
	inBackup := false
	for _, l := range lines(out) {
		if strings.HasPrefix(l, "Backup Files") {
			inBackup = true
			backups = map[string]struct{}{}
			continue
		}
		if !inBackup {
			continue
		}
		fields := strings.Fields(l)
		// "MODIFIED /etc/foo.conf" or "UNMODIFIED /etc/foo.conf"
		if len(fields) == 2 && strings.HasPrefix(fields[1], "/") {
			backups[strings.TrimPrefix(fields[1], "/")] = struct{}{}
		} else if len(fields) > 0 && strings.Contains(l, ":") {
			break
		}
	}
	// nil (no Backup Files section at all) lets the caller fall back to the
	// /etc prefix heuristic.
	return backups
}

// ensureFileDBFresh attempts a non-privileged `pacman -Fy` when the sync
// file databases are older than the soft limit; failure is noted and
// resolution continues against the stale data.
func ensureFileDBFresh(ctx context.Context, run Runner) {
	newest := time.Time{}
	entries, err := os.ReadDir(fileDBDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".files") {
			continue
		}
		if fi, serr := statFile(filepath.Join(fileDBDir, e.Name())); serr == nil && fi.ModTime().After(newest) {
			newest = fi.ModTime()
		}
	}
	if newest.IsZero() || time.Since(newest) < fileDBMaxAge {
		return
	}
	if _, err := run(ctx, "pacman", "-Fy"); err != nil {
		plog.Warnf("file database is stale and sync failed (needs root): %v", err)
	}
}

// parseFileListOutput handles both `pacman -Fl name` and `pacman -Ql name`
// output, which share the same two-column shape once the leading
// package-name column is stripped. Directories (trailing '/') are excluded
// from file counts.
func parseFileListOutput(out []byte, name string) []string {
	var paths []string
	for _, l := range lines(out) {
		fields := strings.SplitN(l, " ", 2)
		if len(fields) != 2 {
			continue
		}
		path := strings.TrimSpace(fields[1])
		path = strings.TrimPrefix(path, "/")
		if path != "" && !strings.HasSuffix(path, "/") {
			paths = append(paths, path)
		}
	}
	_ = name
	return paths
}

// isConfigPath prefers the package's own backup list; when unavailable the
// /etc prefix is the fallback heuristic.
func isConfigPath(path string, backups map[string]struct{}) bool {
	if backups != nil {
		_, ok := backups[path]
		return ok
	}
	return strings.HasPrefix(path, "etc/")
}

package resolver

import (
	"strings"

	"github.com/pacsea-project/pacsea/internal/model"
)

// ResolveSandbox classifies an AUR package's .SRCINFO dependency fields
// into the four build-sandbox classes. Merge policy: a fresh empty class
// for a package never overwrites a previously non-empty one for the same
// package (a transient .SRCINFO fetch failure on a re-resolve shouldn't
// blank out data the user already saw), and packages absent from the new
// batch keep whatever entries they already had.
func ResolveSandbox(srcinfoByPackage map[string]string, previous map[string]model.SandboxInfo) map[string]model.SandboxInfo {
	out := map[string]model.SandboxInfo{}
	for pkg, prior := range previous {
		out[pkg] = prior
	}

	for pkg, raw := range srcinfoByPackage {
		info := model.SandboxInfo{Package: pkg}
		if raw == "" {
			info.FetchFailed = true
			if prior, ok := previous[pkg]; ok && len(prior.Entries) > 0 {
				out[pkg] = prior
				continue
			}
			out[pkg] = info
			continue
		}

		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			key, val, ok := strings.Cut(line, " = ")
			if !ok {
				continue
			}
			class, isDep := classify(strings.TrimSpace(key))
			if !isDep {
				continue
			}
			name, _, _ := strings.Cut(strings.TrimSpace(val), ":")
			name, _ = splitNameRequirement(name)
			info.Entries = append(info.Entries, model.SandboxEntry{Name: name, Class: class})
		}

		if len(info.Entries) == 0 {
			if prior, ok := previous[pkg]; ok && len(prior.Entries) > 0 {
				out[pkg] = prior
				continue
			}
		}
		out[pkg] = info
	}

	return out
}

func classify(key string) (model.SandboxDependencyClass, bool) {
	switch key {
	case "depends":
		return model.SandboxDepends, true
	case "makedepends":
		return model.SandboxMakedepends, true
	case "checkdepends":
		return model.SandboxCheckdepends, true
	case "optdepends":
		return model.SandboxOptdepends, true
	default:
		return 0, false
	}
}

// MarkInstalled annotates each sandbox entry's Installed flag against the
// current installed set, a separate pass so the classification above stays
// pure w.r.t. the installed-set snapshot it ran against.
func MarkInstalled(info map[string]model.SandboxInfo, checker Catalog) map[string]model.SandboxInfo {
	for pkg, si := range info {
		for i := range si.Entries {
			si.Entries[i].Installed = checker != nil && checker.IsInstalled(si.Entries[i].Name)
		}
		info[pkg] = si
	}
	return info
}

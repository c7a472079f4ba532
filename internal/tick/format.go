package tick

import (
	"fmt"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/model"
)

func formatFileRowSummary(info model.PackageFileInfo) string {
	if info.Error != "" {
		return "error: " + info.Error
	}
	return fmt.Sprintf("%d new, %d changed, %d removed (%d config, %d .pacnew, %d .pacsave)",
		info.New, info.Changed, info.Removed, info.Config, info.PacnewCount, info.PacsaveCount)
}

func formatFileRowChanges(info model.PackageFileInfo) []string {
	out := make([]string, 0, len(info.Changes))
	for _, c := range info.Changes {
		out = append(out, fmt.Sprintf("%s %s", changeSymbol(c.Type), c.Path))
	}
	return out
}

func changeSymbol(t model.ChangeType) string {
	switch t {
	case model.ChangeNew:
		return "+"
	case model.ChangeChanged:
		return "~"
	case model.ChangeRemoved:
		return "-"
	default:
		return "?"
	}
}

func formatDecision(d model.RestartDecision) string {
	if d == model.RestartNow {
		return "restart now"
	}
	return "defer restart"
}

func formatSandboxClass(c model.SandboxDependencyClass) string {
	switch c {
	case model.SandboxDepends:
		return "depends"
	case model.SandboxMakedepends:
		return "makedepends"
	case model.SandboxCheckdepends:
		return "checkdepends"
	case model.SandboxOptdepends:
		return "optdepends"
	default:
		return "unknown"
	}
}

func FormatDepStatus(s model.DepStatus) string {
	switch s.Kind {
	case model.DepInstalled:
		return "installed " + s.Version
	case model.DepToInstall:
		return "to install"
	case model.DepToUpgrade:
		return fmt.Sprintf("upgrade %s -> %s", s.Current, s.Required)
	case model.DepConflict:
		return "conflict: " + s.Reason
	case model.DepMissing:
		return "missing"
	default:
		return ""
	}
}

// FormatReverseDependencyReport renders a reverse-dependency BFS result into
// the flat line list PreflightModal.ReverseDeps carries. Reverse-dependency
// resolution runs synchronously when a Remove preflight opens rather than
// through the stage/InFlight mechanism: the blocked-removal check must be
// in place the instant the modal appears, before the user can reach the
// confirm key, so it can't wait on a tick-loop round trip.
func FormatReverseDependencyReport(report model.ReverseDependencyReport) *appstate.ReverseDependencyReportView {
	if len(report.Dependencies) == 0 {
		return &appstate.ReverseDependencyReportView{}
	}
	lines := make([]string, 0, len(report.Dependencies))
	for _, d := range report.Dependencies {
		lines = append(lines, d.Reason)
	}
	return &appstate.ReverseDependencyReportView{Lines: lines}
}

func FormatSource(k model.Kind) string {
	if k.IsAUR {
		return "aur"
	}
	if k.Repo == "" {
		return "local"
	}
	return k.Repo
}

package executor

import (
	"fmt"
	"strings"

	"github.com/pacsea-project/pacsea/internal/appstate"
)

// step is one shell invocation the runner executes in sequence, paired with
// a human-readable description shown in the exec log before it runs.
type step struct {
	Description string
	ShellLine   string
}

// BuildPlan assembles the ordered list of steps a request resolves to.
// AUR packages are filtered out of the pacman -S/-Rs argv and handled by
// RunAURInstall instead: they need a clone+makepkg cycle, not a sync.
func BuildPlan(req Request, officialNames, aurNames []string) []step {
	switch req.Kind {
	case KindInstall:
		return installPlan(officialNames, aurNames, req.OptDeps, req.Password)
	case KindRemove:
		return removePlan(req.Items, req.Cascade, req.Password)
	case KindUpdate:
		return updatePlan(req.Commands, req.Password)
	case KindScan:
		return scanPlan(req.Items, req.Tools, req.Password)
	default:
		return nil
	}
}

func installPlan(officialNames, aurNames, optDeps []string, password string) []step {
	var steps []step
	if len(officialNames) > 0 {
		args := append([]string{"pacman", "-S", "--needed", "--noconfirm"}, officialNames...)
		steps = append(steps, step{
			Description: "Install official packages: " + strings.Join(officialNames, ", "),
			ShellLine:   sudoPipe(password, strings.Join(args, " ")),
		})
	}
	if len(optDeps) > 0 {
		args := append([]string{"pacman", "-S", "--needed", "--noconfirm", "--asdeps"}, optDeps...)
		steps = append(steps, step{
			Description: "Install optional dependencies: " + strings.Join(optDeps, ", "),
			ShellLine:   sudoPipe(password, strings.Join(args, " ")),
		})
	}
	// AUR packages are built and installed by RunAURInstall, one at a time,
	// not folded into this plan's steps.
	_ = aurNames
	return steps
}

func removePlan(names []string, cascade appstate.CascadeMode, password string) []step {
	flag := "-Rs"
	switch cascade {
	case appstate.CascadeWithConfigs:
		flag = "-Rscn"
	case appstate.CascadeBasic:
		flag = "-Rsc"
	}
	args := append([]string{"pacman", flag, "--noconfirm"}, names...)
	return []step{{
		Description: "Remove packages: " + strings.Join(names, ", "),
		ShellLine:   sudoPipe(password, strings.Join(args, " ")),
	}}
}

func updatePlan(commands []string, password string) []step {
	steps := make([]step, 0, len(commands))
	for _, c := range commands {
		needsSudo := strings.HasPrefix(c, "pacman")
		line := c
		if needsSudo {
			line = sudoPipe(password, c)
		}
		steps = append(steps, step{Description: c, ShellLine: line})
	}
	return steps
}

func scanPlan(names, tools []string, password string) []step {
	steps := make([]step, 0, len(tools))
	for _, tool := range tools {
		args := append([]string{tool}, names...)
		steps = append(steps, step{
			Description: fmt.Sprintf("%s %s", tool, strings.Join(names, " ")),
			ShellLine:   sudoPipe(password, strings.Join(args, " ")),
		})
	}
	return steps
}

func sudoPipe(password, command string) string {
	return fmt.Sprintf("echo '%s' | sudo -S %s", shellEscapeSingleQuotes(password), command)
}

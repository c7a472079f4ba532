package executor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pacsea-project/pacsea/internal/plog"
)

// terminalCandidates is the default probe order for an external terminal
// emulator. DetectTerminal moves konsole (KDE sessions) or gnome-terminal
// (GNOME sessions) to the front.
var terminalCandidates = []string{
	"ghostty", "kitty", "alacritty", "foot", "konsole", "gnome-terminal", "xterm",
}

var lookPath = exec.LookPath

// DetectTerminal picks the terminal emulator an external transaction would
// run in, consulting the session environment: KDE sessions prefer konsole,
// GNOME sessions
// gnome-terminal (which needs the -- argument form, see SpawnInTerminal).
func DetectTerminal() (string, bool) {
	ordered := terminalCandidates
	if os.Getenv("KDE_FULL_SESSION") != "" {
		ordered = append([]string{"konsole"}, ordered...)
	}
	if strings.Contains(strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP")), "gnome") {
		ordered = append([]string{"gnome-terminal"}, ordered...)
	}
	for _, term := range ordered {
		if _, err := lookPath(term); err == nil {
			return term, true
		}
	}
	return "", false
}

// IsGnomeTerminal reports whether the detected terminal needs the
// gnome-terminal argument convention; the UI shows a one-time notice before
// first use because gnome-terminal detaches from its parent and the exec
// log cannot be captured from it.
func IsGnomeTerminal(term string) bool {
	return term == "gnome-terminal"
}

// SpawnInTerminal runs shellLine in a freshly spawned terminal emulator.
// When PACSEA_TEST_OUT is set the spawn is captured to that file instead,
// so tests exercise the full plan assembly without a display server.
func SpawnInTerminal(term, shellLine string) error {
	if testOut := os.Getenv("PACSEA_TEST_OUT"); testOut != "" {
		record := fmt.Sprintf("%s -e bash -c %q\n", term, shellLine)
		f, err := os.OpenFile(testOut, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.WriteString(record)
		return err
	}

	var cmd *exec.Cmd
	if IsGnomeTerminal(term) {
		cmd = exec.Command(term, "--", "bash", "-c", shellLine)
	} else {
		cmd = exec.Command(term, "-e", "bash", "-c", shellLine)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	plog.Debugf("spawned %s (pid %d) for external transaction", term, cmd.Process.Pid)
	return cmd.Process.Release()
}

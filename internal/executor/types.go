// Package executor runs the actual pacman/AUR-helper transactions the
// preflight stages planned, streaming output back over a channel the event
// loop drains into the exec log modal.
package executor

import "github.com/pacsea-project/pacsea/internal/appstate"

// RequestKind mirrors appstate.ExecutorRequestKind; kept as its own type so
// this package doesn't need to reach back into appstate for every field.
type RequestKind int

const (
	KindInstall RequestKind = iota
	KindRemove
	KindUpdate
	KindScan
)

// Request is one executor invocation: either a concrete set of package
// names (Install/Remove/Scan) or a pre-built list of shell commands
// (Update, assembled by appstate.BeginSystemUpdate from checkbox state).
type Request struct {
	Kind     RequestKind
	Items    []string // package names for Install/Remove/Scan
	OptDeps  []string // user-chosen optional deps, installed as a separate --asdeps group
	Commands []string // literal shell commands for Update
	Tools    []string // scanner tool names for Scan
	Password string
	DryRun   bool
	Cascade  appstate.CascadeMode
}

// OutputKind tags one streamed line from a running transaction.
type OutputKind int

const (
	OutLine OutputKind = iota
	OutError
	OutExit
)

// Output is one message on the executor's output channel.
type Output struct {
	Kind     OutputKind
	Text     string
	ExitCode int
}

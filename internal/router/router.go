// Package router implements the event dispatch tree: global keyboard
// shortcuts fire only when no modal is open; otherwise every key goes to
// the open modal's Handle, whose Outcome decides whether to close, replace,
// or (the zero value) leave the modal open untouched — the "restore on
// unhandled key" rule appstate.Modal documents.
package router

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea-project/pacsea/internal/appstate"
)

// GlobalAction is what a global (no-modal) key shortcut requests; the tick
// loop's caller executes it, keeping this package free of direct
// dependencies on the executor/fetch packages.
type GlobalAction int

const (
	ActionNone GlobalAction = iota
	ActionQuit
	ActionOpenPreflightInstall
	ActionOpenPreflightRemove
	ActionOpenSystemUpdate
	ActionOpenUpdates
	ActionOpenHelp
	ActionOpenNews
	ActionOpenScanConfig
	ActionFocusNext
	ActionFocusPrev
	ActionAddSelectedToInstall
	ActionAddSelectedToRemove
	ActionToggleInstalledOnly
	ActionExportInstallList
	ActionRecallRecent
)

// Dispatch routes one key event and reports what happened: either a modal
// consumed it (handled=true, no action), or it resolved to a global
// shortcut the caller must act on.
func Dispatch(app *appstate.AppState, msg tea.KeyMsg) (handled bool, action GlobalAction) {
	if app.Modal != nil {
		outcome := app.Modal.Handle(app, msg)
		switch {
		case outcome.Close:
			app.CloseModal()
		case outcome.Replace != nil:
			app.Modal = outcome.Replace
		}
		return true, ActionNone
	}

	return false, globalShortcut(app, msg)
}

// globalShortcut resolves the always-available chords first, then keys
// whose meaning depends on the focused pane. Plain letters are never global
// while the search box has focus — they belong to the input.
func globalShortcut(app *appstate.AppState, msg tea.KeyMsg) GlobalAction {
	switch msg.String() {
	case "ctrl+c":
		return ActionQuit
	case "tab":
		return ActionFocusNext
	case "shift+tab":
		return ActionFocusPrev
	case "ctrl+p":
		return ActionOpenPreflightInstall
	case "ctrl+r":
		return ActionOpenPreflightRemove
	case "ctrl+u":
		return ActionOpenSystemUpdate
	case "ctrl+g":
		return ActionOpenUpdates
	case "ctrl+n":
		return ActionOpenNews
	case "ctrl+s":
		return ActionOpenScanConfig
	case "ctrl+t":
		return ActionToggleInstalledOnly
	case "ctrl+e":
		return ActionExportInstallList
	case "ctrl+d":
		return ActionAddSelectedToRemove
	}

	if app.Focus != appstate.FocusSearch {
		switch msg.String() {
		case "q":
			return ActionQuit
		case "?":
			return ActionOpenHelp
		}
	}

	return dispatchByFocus(app, msg)
}

// dispatchByFocus handles keys whose meaning depends on which pane has
// focus (typing into the search box, navigating a list).
func dispatchByFocus(app *appstate.AppState, msg tea.KeyMsg) GlobalAction {
	switch app.Focus {
	case appstate.FocusSearch:
		return handleSearchInput(app, msg)
	case appstate.FocusRecent:
		if msg.String() == "enter" {
			return ActionRecallRecent
		}
		handleListNavigation(app, msg)
	case appstate.FocusInstall, appstate.FocusRemove:
		handleListNavigation(app, msg)
	}
	return ActionNone
}

func handleSearchInput(app *appstate.AppState, msg tea.KeyMsg) GlobalAction {
	switch msg.Type {
	case tea.KeyEnter:
		return ActionAddSelectedToInstall
	case tea.KeyEsc:
		app.Input = ""
		app.InputCursor = 0
	case tea.KeyUp:
		if app.Selection > 0 {
			app.Selection--
		}
	case tea.KeyDown:
		if app.Selection < len(app.Results)-1 {
			app.Selection++
		}
	case tea.KeyBackspace:
		if app.InputCursor > 0 && app.InputCursor <= len(app.Input) {
			app.Input = app.Input[:app.InputCursor-1] + app.Input[app.InputCursor:]
			app.InputCursor--
			app.MarkInputChanged()
		}
	case tea.KeyLeft:
		if app.InputCursor > 0 {
			app.InputCursor--
		}
	case tea.KeyRight:
		if app.InputCursor < len(app.Input) {
			app.InputCursor++
		}
	case tea.KeyRunes, tea.KeySpace:
		r := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			r = " "
		}
		app.Input = app.Input[:app.InputCursor] + r + app.Input[app.InputCursor:]
		app.InputCursor += len(r)
		app.MarkInputChanged()
	}
	return ActionNone
}

func handleListNavigation(app *appstate.AppState, msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if app.Selection > 0 {
			app.Selection--
		}
	case "down", "j":
		app.Selection++
	}
}

// CycleFocus advances or retreats Focus through the four panes, wrapping.
func CycleFocus(app *appstate.AppState, forward bool) {
	order := []appstate.Focus{appstate.FocusSearch, appstate.FocusRecent, appstate.FocusInstall, appstate.FocusRemove}
	idx := 0
	for i, f := range order {
		if f == app.Focus {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(order)
	} else {
		idx = (idx - 1 + len(order)) % len(order)
	}
	app.Focus = order[idx]
	app.Selection = 0
}

// DispatchMouse resolves a mouse click against the renderer-deposited hit
// rectangles, returning the region name clicked, if any.
func DispatchMouse(app *appstate.AppState, x, y int) (region string, ok bool) {
	for name, r := range app.HitRects {
		if x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H {
			return name, true
		}
	}
	return "", false
}

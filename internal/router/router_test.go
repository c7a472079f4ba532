package router

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/stretchr/testify/assert"
)

func TestDispatch_GlobalShortcutsOnlyWithoutModal(t *testing.T) {
	app := appstate.New()
	handled, action := Dispatch(app, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.False(t, handled)
	assert.Equal(t, ActionOpenPreflightInstall, action)
}

func TestDispatch_PlainLettersTypeIntoSearch(t *testing.T) {
	app := appstate.New()
	app.Focus = appstate.FocusSearch

	_, action := Dispatch(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Equal(t, ActionNone, action, "letters belong to the search box, not global shortcuts")
	assert.Equal(t, "q", app.Input)
}

func TestDispatch_ModalConsumesKeyAndCanLeaveItselfOpen(t *testing.T) {
	app := appstate.New()
	app.OpenModal(appstate.HelpModal{})

	handled, action := Dispatch(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.True(t, handled)
	assert.Equal(t, ActionNone, action)
	assert.NotNil(t, app.Modal, "an unhandled key must leave the modal open, not close it")
}

func TestDispatch_ModalCloseKeyClosesIt(t *testing.T) {
	app := appstate.New()
	app.OpenModal(appstate.HelpModal{})

	Dispatch(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, app.Modal)
}

func TestCycleFocus_WrapsAround(t *testing.T) {
	app := appstate.New()
	assert.Equal(t, appstate.FocusSearch, app.Focus)

	CycleFocus(app, false)
	assert.Equal(t, appstate.FocusRemove, app.Focus, "cycling backward from the first pane wraps to the last")
}

func TestSearchInput_InsertsAtCursor(t *testing.T) {
	app := appstate.New()
	app.Focus = appstate.FocusSearch
	app.Input = "rg"
	app.InputCursor = 1

	handleSearchInput(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	assert.Equal(t, "rig", app.Input)
	assert.Equal(t, 2, app.InputCursor)
}

package appstate

import (
	"testing"

	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueues_DisjointByName(t *testing.T) {
	app := New()
	item := model.PackageItem{Name: "ripgrep"}

	app.AddToInstall(item)
	app.AddToRemove(item)
	assert.Empty(t, app.InstallQueue, "adding to remove evicts from install")
	require.Len(t, app.RemoveQueue, 1)

	app.AddToInstall(item)
	assert.Empty(t, app.RemoveQueue)
	require.Len(t, app.InstallQueue, 1)

	app.AddToInstall(item)
	assert.Len(t, app.InstallQueue, 1, "re-adding is a no-op")
}

func TestRecentLRU_CapacityOrderAndCaseInsensitiveDedup(t *testing.T) {
	lru := NewRecentLRU(3)
	lru.Upsert("ripgrep")
	lru.Upsert("fd")
	lru.Upsert("RipGrep")
	assert.Equal(t, []string{"RipGrep", "fd"}, lru.Entries(), "case-insensitive dedup keeps one entry, newest first")

	lru.Upsert("bat")
	lru.Upsert("eza")
	entries := lru.Entries()
	assert.Len(t, entries, 3)
	assert.Equal(t, "eza", entries[0])
	assert.NotContains(t, entries, "fd", "oldest entry falls off at capacity")
}

func TestOpenModal_StacksOnlyForStackingVariants(t *testing.T) {
	app := New()
	app.Modal = HelpModal{}

	app.OpenModal(AlertModal{Message: "boom"})
	assert.NotNil(t, app.PreviousModal, "Alert stacks over the open modal")

	app.CloseModal()
	_, isHelp := app.Modal.(HelpModal)
	assert.True(t, isHelp, "closing the alert unwinds to the stacked modal")

	app.OpenModal(NewsModal{})
	assert.Nil(t, app.PreviousModal, "News replaces instead of stacking")
}

func TestConfirmPreflight_BlockedRemovalStagesNothing(t *testing.T) {
	app := New()
	pf := PreflightModal{
		Items:       []model.PackageItem{{Name: "glibc"}},
		Action:      ActionRemove,
		ReverseDeps: &ReverseDependencyReportView{Lines: []string{"app-a directly requires glibc"}},
	}
	staged, prompted := app.ConfirmPreflight(&pf)
	assert.False(t, staged)
	assert.False(t, prompted)
	assert.Nil(t, app.PendingExecutorRequest)
	assert.NotEmpty(t, app.Toast, "the blocked removal surfaces a toast")
}

func TestConfirmPreflight_CascadeOverridesBlock(t *testing.T) {
	app := New()
	pf := PreflightModal{
		Items:       []model.PackageItem{{Name: "glibc"}},
		Action:      ActionRemove,
		Cascade:     CascadeBasic,
		ReverseDeps: &ReverseDependencyReportView{Lines: []string{"app-a directly requires glibc"}},
	}
	staged, prompted := app.ConfirmPreflight(&pf)
	assert.True(t, staged)
	assert.True(t, prompted, "no cached password, so the prompt opens")
	require.NotNil(t, app.PendingExecutorRequest)
	assert.Equal(t, ExecRemove, app.PendingExecutorRequest.Kind)
	assert.Equal(t, CascadeBasic, app.PendingExecutorRequest.Cascade)
	_, isPrompt := app.Modal.(PasswordPromptModal)
	assert.True(t, isPrompt)
}

func TestRequestStage_SkipsSandboxWithoutAURItems(t *testing.T) {
	app := New()
	app.RequestStage(StageSandbox, []model.PackageItem{{Name: "ripgrep"}}, ScopePreflight, ActionInstall)
	assert.Nil(t, app.InFlight[StageSandbox])

	app.RequestStage(StageSandbox, []model.PackageItem{{Name: "yay", Source: model.AURSource()}}, ScopePreflight, ActionInstall)
	assert.NotNil(t, app.InFlight[StageSandbox])
}

func TestRequestStage_InFlightBlocksRespawn(t *testing.T) {
	app := New()
	app.RequestStage(StageDeps, []model.PackageItem{{Name: "a"}}, ScopePreflight, ActionInstall)
	first := app.InFlight[StageDeps]
	app.RequestStage(StageDeps, []model.PackageItem{{Name: "b"}}, ScopeGlobal, ActionInstall)
	assert.Same(t, first, app.InFlight[StageDeps], "an in-flight stage is never respawned")
}

func TestFinishPostSummary_EmptyNamesKeepQueues(t *testing.T) {
	app := New()
	app.InstallQueue = []model.PackageItem{{Name: "ripgrep"}}
	app.Modal = PostSummaryModal{}

	app.FinishPostSummary()
	assert.Len(t, app.InstallQueue, 1, "a system update (no names) must not clear the queue")

	app.PendingInstallNames = []string{"ripgrep"}
	app.Modal = PostSummaryModal{}
	app.FinishPostSummary()
	assert.Empty(t, app.InstallQueue)
}

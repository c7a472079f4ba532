package tui

import (
	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/executor"
	"github.com/pacsea-project/pacsea/internal/fetch"
	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/pacsea-project/pacsea/internal/search"
)

// tickMsg fires the coordinator's per-cycle work (debounce checks, worker
// reconciliation, cache flush) on a fixed cadence.
type tickMsg struct{}

// indexReadyMsg carries the lazily loaded official catalog and installed
// sets, or the error that kept them empty.
type indexReadyMsg struct {
	count int
	err   error
}

type searchResultMsg search.QueryResult

type newsMsg struct {
	items []appstate.NewsItem
	err   error
}

// newsArticleMsg carries one article's full body back to the open News
// modal, keyed by the item index the fetch was launched for.
type newsArticleMsg struct {
	index   int
	content string
	err     error
}

type updatesMsg struct {
	entries []appstate.UpdateEntry
	err     error
}

type statusMsg struct {
	status fetch.ArchStatus
	err    error
}

// announcementMsg carries the newest unseen news item to show once at
// startup, or nothing when everything has been seen.
type announcementMsg struct {
	item appstate.NewsItem
	show bool
}

type detailsMsg struct {
	details  model.PackageDetails
	comments []fetch.AURComment
	err      error
}

// execOutputMsg is one streamed line (or the exit marker) of a running
// transaction.
type execOutputMsg executor.Output

// execDoneMsg signals the output channel closed; the transaction goroutine
// is gone.
type execDoneMsg struct{}

type passwordValidMsg struct {
	valid    bool
	lockout  bool
	password string
}

type postSummaryMsg struct {
	installed []string
	removed   []string
	failed    []string
}

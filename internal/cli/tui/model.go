// Package tui renders the status view, both one-shot and live.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/RevCBH/lastsignal/internal/app"
)

// RefreshInterval is how often the live view re-reads status.
const RefreshInterval = time.Second

// Model is the bubbletea model for `status --watch`
type Model struct {
	fetch  func() (app.Status, error)
	Styles Styles

	// State
	Status  app.Status
	Err     error
	Loaded  bool
	Updated time.Time

	// Control
	Quitting bool
}

// NewModel creates a live status model reading from fetch
func NewModel(fetch func() (app.Status, error), styles Styles) *Model {
	return &Model{fetch: fetch, Styles: styles}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), tickCmd())
}

// TickMsg is sent every RefreshInterval
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// StatusMsg carries a fresh snapshot
type StatusMsg struct {
	Status app.Status
	Err    error
}

func (m *Model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		st, err := m.fetch()
		return StatusMsg{Status: st, Err: err}
	}
}

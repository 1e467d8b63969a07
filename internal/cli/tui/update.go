package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		}

	case TickMsg:
		return m, tea.Batch(m.fetchCmd(), tickCmd())

	case StatusMsg:
		m.Err = msg.Err
		if msg.Err == nil {
			m.Status = msg.Status
			m.Loaded = true
			m.Updated = time.Now()
		}
	}

	return m, nil
}

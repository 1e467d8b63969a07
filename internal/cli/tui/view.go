package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model
func (m *Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder
	switch {
	case m.Loaded:
		b.WriteString(RenderStatus(m.Status, m.Styles))
	case m.Err == nil:
		b.WriteString(m.Styles.Muted.Render("Loading status...") + "\n")
	}

	if m.Err != nil {
		fmt.Fprintf(&b, "\n%s\n", m.Styles.Bad.Render("error: "+m.Err.Error()))
	}

	key := m.Styles.FooterKey.Render("q")
	b.WriteString(m.Styles.Footer.Render(fmt.Sprintf("  Press %s to quit", key)))
	return b.String()
}

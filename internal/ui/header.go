package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the top status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	st := m.status

	parts := []string{
		bg.Render("hublink", styles.Logo),
		bg.Render(m.displayName(), styles.MutedText),
		styles.StatusStyle(st.State.String()).Render(strings.ReplaceAll(st.State.String(), "_", " ")),
	}

	if st.Type != "" {
		parts = append(parts, bg.Render("type", styles.FaintText)+bg.Space()+bg.Render(st.Type, styles.Text))
	}
	if id := st.AttemptID; id != "" {
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, bg.Render("attempt", styles.FaintText)+bg.Space()+bg.Render(id, styles.MutedText))
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts,
			bg.Render("updated", styles.FaintText)+bg.Space()+
				bg.Render(m.snapshot.LastUpdated.Local().Format("15:04:05"), styles.MutedText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Padding(0, 1).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

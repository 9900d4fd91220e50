package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is a dialog drawn over the widget. Update returns the updated modal,
// a command, and whether the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// identitySavedMsg carries the identifiers submitted from the form.
type identitySavedMsg struct {
	userID string
	orgID  string
}

const (
	fieldUser = iota
	fieldOrg
	fieldCount
)

// identityForm edits the user and organization identifiers.
type identityForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newIdentityForm(userID, orgID string) *identityForm {
	f := &identityForm{}
	labels := [fieldCount]string{"User ID", "Organization ID"}
	values := [fieldCount]string{userID, orgID}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = labels[i]
		ti.CharLimit = 128
		ti.Width = 32
		ti.Prompt = ""
		ti.SetValue(values[i])
		f.inputs[i] = ti
	}
	f.inputs[fieldUser].Focus()
	return f
}

// Update implements Modal.
func (f *identityForm) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Cancel):
			return f, nil, true
		case key.Matches(km, keys.Submit):
			saved := identitySavedMsg{
				userID: strings.TrimSpace(f.inputs[fieldUser].Value()),
				orgID:  strings.TrimSpace(f.inputs[fieldOrg].Value()),
			}
			return f, func() tea.Msg { return saved }, true
		case key.Matches(km, keys.NextField):
			f.setFocus((f.focus + 1) % fieldCount)
			return f, nil, false
		case key.Matches(km, keys.PrevField):
			f.setFocus((f.focus + fieldCount - 1) % fieldCount)
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func (f *identityForm) setFocus(idx int) {
	f.inputs[f.focus].Blur()
	f.focus = idx
	f.inputs[f.focus].Focus()
}

// View implements Modal.
func (f *identityForm) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	labels := [fieldCount]string{"User ID", "Organization ID"}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Identity"))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		box := styles.Input
		label := styles.MutedText
		if i == f.focus {
			box = styles.InputFocused
			label = styles.AccentText
		}
		b.WriteString(label.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(box.Render(in.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter save · tab next · esc cancel"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal.Render(b.String()))
}

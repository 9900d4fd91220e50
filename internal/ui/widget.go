package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/hublink/internal/connector"
)

// maxSummaryRows caps the per-type item summary.
const maxSummaryRows = 8

// buttonLabel mirrors the connect button text. In-flight states win over the
// connection flag so the label never claims success while work is pending.
func buttonLabel(st connector.Status, displayName string) string {
	switch {
	case st.State.InProgress():
		return "Connecting..."
	case st.Verifying:
		return "Loading..."
	case st.State == connector.Connected:
		return displayName + " Connected"
	default:
		return "Connect to " + displayName
	}
}

// buttonColor picks the button background: danger after a failure, success
// while connected, accent otherwise.
func buttonColor(st connector.Status, theme Theme) string {
	switch {
	case st.Error != nil:
		return theme.Danger
	case st.State == connector.Connected:
		return theme.Success
	default:
		return theme.Accent
	}
}

// itemsChip returns the "N items loaded" chip text, or "" when no count is
// known.
func itemsChip(st connector.Status) string {
	if st.State != connector.Connected || st.ItemCount == nil {
		return ""
	}
	return fmt.Sprintf("%d items loaded", *st.ItemCount)
}

// renderWidget renders the integration card.
func (m Model) renderWidget() string {
	styles := m.theme.Styles()
	st := m.status
	name := m.displayName()

	var lines []string
	lines = append(lines, styles.Text.Bold(true).Render(name+" Integration"))
	lines = append(lines, "")

	if msg := st.ErrorMessage(); msg != "" {
		lines = append(lines, m.renderAlert("✖", msg, m.theme.Danger))
	}
	if msg := st.WarningMessage(); msg != "" {
		lines = append(lines, m.renderAlert("!", msg, m.theme.Warning))
	}
	if m.flash != "" {
		lines = append(lines, styles.WarningText.Render(m.flash))
	}

	lines = append(lines, m.renderButtonLine(styles))

	if st.State == connector.Connected {
		lines = append(lines, "")
		lines = append(lines, styles.MutedText.Render("Integration active. Data will be available in the console."))
		if summary := m.renderSummary(styles); summary != "" {
			lines = append(lines, "", summary)
		}
		if token := m.renderToken(styles); token != "" {
			lines = append(lines, "", token)
		}
	}

	lines = append(lines, "", m.renderIdentity(styles))

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Padding(1, 2)
	if width := m.cardWidth(); width > 0 {
		card = card.Width(width)
	}
	return card.Render(strings.Join(lines, "\n"))
}

func (m Model) renderButtonLine(styles Styles) string {
	st := m.status
	label := buttonLabel(st, m.displayName())
	if st.Busy() {
		label = m.spinner.View() + " " + label
	}

	button := styles.Button.
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(buttonColor(st, m.theme)))
	if st.Busy() {
		button = button.Faint(true)
	}

	line := button.Render(label)
	if chip := itemsChip(st); chip != "" {
		line += "  " + styles.Chip.Background(lipgloss.Color(m.theme.Success)).Render(chip)
	}
	line += "  " + styles.StatusStyle(st.State.String()).Render(strings.ReplaceAll(st.State.String(), "_", " "))
	return line
}

func (m Model) renderAlert(icon, msg, color string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color(color)).
		PaddingLeft(1).
		Render(icon + " " + msg)
}

func (m Model) renderSummary(styles Styles) string {
	summary := m.status.Summary
	if len(summary) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Items by type"))
	for i, tc := range summary {
		if i == maxSummaryRows {
			fmt.Fprintf(&b, "\n%s", styles.FaintText.Render(fmt.Sprintf("… %d more types", len(summary)-maxSummaryRows)))
			break
		}
		fmt.Fprintf(&b, "\n%s %s",
			styles.MutedText.Width(18).Render(tc.Type),
			styles.Text.Render(fmt.Sprintf("%d", tc.Count)))
	}
	return b.String()
}

func (m Model) renderToken(styles Styles) string {
	tok := m.status.Token
	if tok == nil {
		return ""
	}
	tokenType := tok.Type()
	expiry := "no expiry"
	if !tok.Expiry.IsZero() {
		remaining := tok.Expiry.Sub(m.now())
		if remaining <= 0 {
			expiry = "expired " + tok.Expiry.Local().Format("15:04:05")
		} else {
			expiry = "expires in " + remaining.Round(time.Second).String()
		}
	}
	return styles.MutedText.Render("Token") + " " +
		styles.Text.Render(tokenType) + styles.FaintText.Render(" · ") +
		styles.Text.Render(expiry)
}

func (m Model) renderIdentity(styles Styles) string {
	user, org := m.userID, m.orgID
	if user == "" {
		user = "(unset)"
	}
	if org == "" {
		org = "(unset)"
	}
	return styles.MutedText.Render("User ") + styles.Text.Render(user) +
		styles.MutedText.Render("  Org ") + styles.Text.Render(org)
}

func (m Model) cardWidth() int {
	if m.width <= 0 {
		return 0
	}
	width := m.width - 4
	if width > 72 {
		width = 72
	}
	return width
}

package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/hublink/internal/connector"
)

// Theme defines colors and styles for the UI.
type Theme struct {
	Name string

	Background string // behind overlays and badge text
	Surface    string // header bar

	Border      string // widget card
	BorderMuted string // log pane
	BorderFocus string // focused form input

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Badge colors keyed by connection state name.
	StatusColors map[string]string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Background lipgloss.Style
	Surface    lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Logo   lipgloss.Style
	Button lipgloss.Style
	Chip   lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style

	statusColors map[string]string
	background   string
	muted        string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	input := func(border string) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(0, 1)
	}

	return Styles{
		Background: lipgloss.NewStyle().Background(lipgloss.Color(t.Background)),
		Surface:    fg(t.Text).Background(lipgloss.Color(t.Surface)),

		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),

		Logo:   fg(t.Warning).Bold(true),
		Button: lipgloss.NewStyle().Bold(true).Padding(0, 2),
		Chip:   fg(t.Background).Background(lipgloss.Color(t.Info)).Padding(0, 1),

		Input:        input(t.Border),
		InputFocused: input(t.BorderFocus),

		statusColors: t.StatusColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// StatusStyle returns the badge style for a connection state name. Unknown
// names use the muted color.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.statusColors[status]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy of Styles whose text styles all use bgColor as
// their background.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	out.Background = s.Background.Background(bg)
	out.Surface = s.Surface.Background(bg)
	out.Text = s.Text.Background(bg)
	out.MutedText = s.MutedText.Background(bg)
	out.FaintText = s.FaintText.Background(bg)
	out.AccentText = s.AccentText.Background(bg)
	out.WarningText = s.WarningText.Background(bg)
	out.DangerText = s.DangerText.Background(bg)
	out.Logo = s.Logo.Background(bg)
	return out
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{
	// https://github.com/EdenEast/nightfox.nvim
	"Nightfox": newTheme("Nightfox", palette{
		background: "#131a24", surface: "#192330",
		border: "#39506d", borderMuted: "#212e3f",
		text: "#cdcecf", muted: "#738091", faint: "#71839b",
		accent: "#719cd6", success: "#81b29a", warning: "#dbc074", danger: "#c94f6d", info: "#63cdcf",
	}),
	// https://github.com/rebelot/kanagawa.nvim
	"Kanagawa": newTheme("Kanagawa", palette{
		background: "#16161D", surface: "#1F1F28",
		border: "#54546D", borderMuted: "#2A2A37",
		text: "#DCD7BA", muted: "#C8C093", faint: "#727169",
		accent: "#7E9CD8", success: "#98BB6C", warning: "#E6C384", danger: "#E46876", info: "#7FB4CA",
	}),
	// Tailwind slate and sky
	"Slate": newTheme("Slate", palette{
		background: "#020617", surface: "#0f172a",
		border: "#334155", borderMuted: "#1e293b",
		text: "#f1f5f9", muted: "#94a3b8", faint: "#64748b",
		accent: "#38bdf8", success: "#22c55e", warning: "#f59e0b", danger: "#ef4444", info: "#06b6d4",
	}),
}

type palette struct {
	background, surface   string
	border, borderMuted   string
	text, muted, faint    string
	accent, success       string
	warning, danger, info string
}

// newTheme builds a theme from p. State badges reuse the palette's semantic
// colors.
func newTheme(name string, p palette) Theme {
	return Theme{
		Name:        name,
		Background:  p.background,
		Surface:     p.surface,
		Border:      p.border,
		BorderMuted: p.borderMuted,
		BorderFocus: p.accent,
		Text:        p.text,
		Muted:       p.muted,
		Faint:       p.faint,
		Accent:      p.accent,
		Success:     p.success,
		Warning:     p.warning,
		Danger:      p.danger,
		Info:        p.info,
		StatusColors: map[string]string{
			connector.Disconnected.String():          p.faint,
			connector.Connecting.String():            p.accent,
			connector.AwaitingWindowClose.String():   p.warning,
			connector.ExchangingCredentials.String(): p.info,
			connector.Connected.String():             p.success,
			connector.Errored.String():               p.danger,
		},
	}
}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["Nightfox"]
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

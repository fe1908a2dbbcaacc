package display

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, https://catppuccin.com/palette
const (
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
)

// Theme holds every style the renderer uses
type Theme struct {
	Title      lipgloss.Style
	Payee      lipgloss.Style
	Amount     lipgloss.Style
	Muted      lipgloss.Style
	Category   lipgloss.Style
	Score      lipgloss.Style
	Bar        lipgloss.Style
	User       lipgloss.Style
	Assistant  lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Suggestion lipgloss.Style
}

// DefaultTheme is the colored theme used on terminals
func DefaultTheme() Theme {
	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(colorMauve),
		Payee:      lipgloss.NewStyle().Bold(true).Foreground(colorText),
		Amount:     lipgloss.NewStyle().Foreground(colorPeach),
		Muted:      lipgloss.NewStyle().Foreground(colorOverlay1),
		Category:   lipgloss.NewStyle().Foreground(colorTeal),
		Score:      lipgloss.NewStyle().Foreground(colorYellow),
		Bar:        lipgloss.NewStyle().Foreground(colorBlue),
		User:       lipgloss.NewStyle().Bold(true).Foreground(colorLavender),
		Assistant:  lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
		Error:      lipgloss.NewStyle().Foreground(colorRed),
		Success:    lipgloss.NewStyle().Foreground(colorGreen),
		Suggestion: lipgloss.NewStyle().Italic(true).Foreground(colorOverlay1),
	}
}

// PlainTheme renders without any styling, for pipes and tests
func PlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Title:      plain,
		Payee:      plain,
		Amount:     plain,
		Muted:      plain,
		Category:   plain,
		Score:      plain,
		Bar:        plain,
		User:       plain,
		Assistant:  plain,
		Error:      plain,
		Success:    plain,
		Suggestion: plain,
	}
}

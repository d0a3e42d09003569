package remote

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/rev4switch/internal/ui"
	"github.com/muurk/rev4switch/internal/version"
)

// Application branding
const AppName = "REV4 SWITCH REMOTE"

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true).
			Padding(0, 0, 1, 0)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			Italic(true)

	// List item style (unselected)
	ListItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(ui.TextColor)

	// List item style (selected)
	SelectedListItemStyle = lipgloss.NewStyle().
				Foreground(ui.SuccessColor).
				Bold(true)

	AddressStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)

	StateOnStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor).
			Bold(true)

	StateOffStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor)

	ErrorStatusStyle = lipgloss.NewStyle().
				Foreground(ui.ErrorColor).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor)

	ContainerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.PrimaryColor).
			Padding(1, 2)
)

// renderState renders a last-known state, or a dash when none is known.
func renderState(s string) string {
	switch s {
	case "on":
		return StateOnStyle.Render("ON ")
	case "off":
		return StateOffStyle.Render("OFF")
	default:
		return StateOffStyle.Render(" - ")
	}
}

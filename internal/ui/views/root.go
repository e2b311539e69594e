package views

import (
	"github.com/Cyclone1070/storyloop/internal/ui/models"
	"github.com/charmbracelet/lipgloss"
)

// RenderRoot renders the complete UI layout
func RenderRoot(s models.State) string {
	if s.ShowHelp {
		return lipgloss.Place(
			s.Width,
			s.Height,
			lipgloss.Center,
			lipgloss.Center,
			RenderHelpPopup(),
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		RenderChat(s),
		RenderInput(s),
		RenderStatus(s),
	)
}

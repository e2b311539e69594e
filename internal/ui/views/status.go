package views

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/storyloop/internal/ui/models"
	"github.com/charmbracelet/lipgloss"
)

// Status phases.
const (
	PhaseReady    = "ready"
	PhaseThinking = "thinking"
	PhaseTools    = "tools"
	PhaseDone     = "done"
	PhaseError    = "error"
)

// RenderStatus renders the status bar
func RenderStatus(s models.State) string {
	var left string

	switch s.StatusPhase {
	case PhaseThinking:
		dots := strings.Repeat(".", s.DotCount)
		left = StatusThinkingStyle.Render(fmt.Sprintf("%s %s%s", s.Spinner.View(), strings.TrimRight(s.StatusMessage, "."), dots))
	case PhaseTools:
		left = StatusToolStyle.Render(fmt.Sprintf("%s %s", s.Spinner.View(), s.StatusMessage))
	case PhaseDone:
		left = StatusDoneStyle.Render("✔ " + s.StatusMessage)
	case PhaseError:
		left = StatusErrorStyle.Render("✗ " + s.StatusMessage)
	default:
		left = StatusDefaultStyle.Render("Ready")
	}

	if s.CurrentModel == "" {
		return left
	}
	right := StatusDefaultStyle.Render(s.CurrentModel)

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}

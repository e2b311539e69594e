package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Cyclone1070/storyloop/internal/ui/services"
)

// UI is the full-screen terminal front end.
type UI struct {
	program *tea.Program
}

// NewUI creates a new Bubble Tea UI over game.
func NewUI(game Game, renderer services.MarkdownRenderer, spinnerFactory SpinnerFactory, showThinking bool, opts ...tea.ProgramOption) *UI {
	model := newBubbleTeaModel(game, renderer, spinnerFactory, showThinking)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &UI{program: tea.NewProgram(model, opts...)}
}

// Start runs the UI until the player quits.
func (u *UI) Start() error {
	_, err := u.program.Run()
	return err
}

package views

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("63")
	ColorMuted   = lipgloss.Color("241")
	ColorDice    = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
	ColorSuccess = lipgloss.Color("42")

	UserMessageStyle      = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	AssistantMessageStyle = lipgloss.NewStyle()
	ThinkingMessageStyle  = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	ToolMessageStyle      = lipgloss.NewStyle().Foreground(ColorDice)
	SystemMessageStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	ErrorMessageStyle     = lipgloss.NewStyle().Foreground(ColorError)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	StatusDefaultStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	StatusThinkingStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	StatusToolStyle     = lipgloss.NewStyle().Foreground(ColorDice)
	StatusDoneStyle     = lipgloss.NewStyle().Foreground(ColorSuccess)
	StatusErrorStyle    = lipgloss.NewStyle().Foreground(ColorError)

	PopupBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)

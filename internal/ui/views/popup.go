package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpLines lists the slash commands shown by /help.
var HelpLines = [][2]string{
	{"/help", "Show this help"},
	{"/reset", "Start the story over"},
	{"/quit", "Leave the game"},
	{"ctrl+c", "Stop the narrator, or quit when idle"},
}

// RenderHelpPopup renders the command reference box.
func RenderHelpPopup() string {
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Commands"))
	lines = append(lines, "")
	for _, l := range HelpLines {
		lines = append(lines, lipgloss.NewStyle().Foreground(ColorPrimary).Width(8).Render(l[0])+"  "+l[1])
	}
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Faint(true).Render("Esc: Close"))

	return PopupBoxStyle.Render(strings.Join(lines, "\n"))
}

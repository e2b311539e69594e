package views

import (
	"strings"

	"github.com/Cyclone1070/storyloop/internal/ui/models"
	"github.com/Cyclone1070/storyloop/internal/ui/services"
)

// RenderChat renders the message history
func RenderChat(s models.State) string {
	if len(s.Messages) == 0 {
		return SystemMessageStyle.Render("Your adventure begins. Type what you do, or /help.")
	}
	return s.Viewport.View()
}

// FormatChatContent formats the messages for the viewport. Thinking lines
// are skipped unless showThinking is set.
func FormatChatContent(messages []models.Message, width int, showThinking bool, renderer services.MarkdownRenderer) string {
	var lines []string
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			lines = append(lines, UserMessageStyle.Render("> "+msg.Content))
		case models.RoleAssistant:
			lines = append(lines, AssistantMessageStyle.Render(services.RenderMarkdown(msg.Content, width, renderer)))
		case models.RoleThinking:
			if !showThinking {
				continue
			}
			lines = append(lines, ThinkingMessageStyle.Width(width).Render("💭 "+msg.Content))
		case models.RoleTool:
			lines = append(lines, ToolMessageStyle.Render("🎲 "+msg.Content))
		case models.RoleError:
			lines = append(lines, ErrorMessageStyle.Width(width).Render("! "+msg.Content))
		default:
			lines = append(lines, SystemMessageStyle.Width(width).Render(msg.Content))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

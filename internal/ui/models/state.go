// Package models holds the UI state shared by the update loop and the views.
package models

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
)

// Role tags a chat line with how it should be drawn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleThinking  Role = "thinking"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
	RoleError     Role = "error"
)

// Message is one rendered line group in the chat pane.
type Message struct {
	Role    Role
	Content string
}

// State is everything the views need to draw a frame.
type State struct {
	Input    textinput.Model
	Viewport viewport.Model
	Spinner  spinner.Model

	Messages []Message
	Width    int
	Height   int

	// Busy is true while a turn is running. Input is not accepted then.
	Busy          bool
	StatusPhase   string
	StatusMessage string
	DotCount      int
	CurrentModel  string

	ShowHelp     bool
	ShowThinking bool
}

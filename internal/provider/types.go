package provider

import (
	"github.com/Cyclone1070/storyloop/internal/tool"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant turns that request tools.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and Name are set on tool turns and point back at the request.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`

	// Reasoning holds structured reasoning attached to this assistant turn.
	Reasoning []ReasoningDetail `json:"reasoning,omitempty"`
}

// ToolCall is a model-issued request to run a tool.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ReasoningDetail is one block of structured reasoning from a provider.
type ReasoningDetail struct {
	Type string `json:"type,omitempty"`
	// ID ties the detail to a tool call in the same message, if any.
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	// Signature is an opaque provider token some APIs require when the block is sent back.
	Signature string `json:"signature,omitempty"`
}

// Sampling holds optional generation parameters.
// Pointer fields distinguish "not set" from zero.
type Sampling struct {
	Temperature    *float32
	TopP           *float32
	MaxTokens      int
	ThinkingBudget int
}

// Request is everything the model needs for one round trip.
type Request struct {
	Model    string
	Messages []Message
	Tools    []tool.Declaration
	Sampling Sampling
}

// Response is the model's reply to one Request.
type Response struct {
	Message Message

	// Reasoning is a response-level reasoning field, for APIs that report it
	// outside the message.
	Reasoning string

	// LegacyReasoning is the older flat reasoning string some APIs still emit.
	LegacyReasoning string

	Usage Usage
}

// Usage reports token counts for one round trip.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	ReasoningTokens  int
	TotalTokens      int
}

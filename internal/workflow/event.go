package workflow

// Event is the interface for all workflow events.
// UI handles events via type switch.
type Event interface {
	isEvent()
}

// TextEvent is emitted when the model produces its final answer.
type TextEvent struct {
	Text string
}

func (TextEvent) isEvent() {}

// ThinkingEvent carries a reasoning trace extracted from a model response.
type ThinkingEvent struct {
	Text string
}

func (ThinkingEvent) isEvent() {}

// Phases reported by StatusEvent.
const (
	PhaseThinking = "thinking"
	PhaseTools    = "tools"
)

// StatusEvent reports what the loop is doing. Status is human readable.
type StatusEvent struct {
	Phase  string
	Status string
}

func (StatusEvent) isEvent() {}

// ToolCallEvent is emitted after a tool call has been dispatched.
type ToolCallEvent struct {
	Name      string
	Arguments map[string]any
	// Result is the model-visible JSON payload.
	Result  string
	Success bool
}

func (ToolCallEvent) isEvent() {}

// DoneEvent is emitted when a turn completes. Err is nil only when the model answered.
type DoneEvent struct {
	Status string
	Err    error
}

func (DoneEvent) isEvent() {}

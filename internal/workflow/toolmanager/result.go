package toolmanager

import (
	"encoding/json"

	"github.com/Cyclone1070/storyloop/internal/provider"
)

// Reason is the machine-readable cause of a failed tool call.
type Reason string

const (
	ReasonUnknownTool      Reason = "unknown_tool"
	ReasonInvalidArguments Reason = "invalid_arguments"
	ReasonInvalidCharacter Reason = "invalid_character"
	ReasonSyntaxError      Reason = "syntax_error"
	ReasonDivisionByZero   Reason = "division_by_zero"
	ReasonNonFiniteResult  Reason = "non_finite_result"
	ReasonInvalidRange     Reason = "invalid_range"
	ReasonEmptyChoiceSet   Reason = "empty_choice_set"
	ReasonLengthMismatch   Reason = "length_mismatch"
	ReasonNegativeWeight   Reason = "negative_weight"
	ReasonWeightSumInvalid Reason = "weight_sum_invalid"
	ReasonInternalError    Reason = "internal_error"
)

// Failure describes why a tool call produced no value.
type Failure struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// Result is the outcome of a single tool call. Exactly one of Value and
// Error is meaningful, selected by Success.
type Result struct {
	CallID  string
	Name    string
	Success bool
	Value   any
	Error   *Failure
}

func success(callID, name string, v any) Result {
	return Result{CallID: callID, Name: name, Success: true, Value: v}
}

func failure(callID, name string, reason Reason, msg string) Result {
	return Result{CallID: callID, Name: name, Error: &Failure{Reason: reason, Message: msg}}
}

// Payload is the model-visible body: {"result": v} or {"error": msg, "reason": code}.
func (r Result) Payload() map[string]any {
	if r.Success {
		return map[string]any{"result": r.Value}
	}
	if r.Error == nil {
		return map[string]any{"error": "tool produced no result", "reason": ReasonInternalError}
	}
	return map[string]any{"error": r.Error.Message, "reason": r.Error.Reason}
}

// Content is Payload encoded as JSON.
func (r Result) Content() string {
	b, err := json.Marshal(r.Payload())
	if err != nil {
		// Unreachable for the built-in tools.
		b, _ = json.Marshal(map[string]any{"error": err.Error(), "reason": ReasonInternalError})
	}
	return string(b)
}

// Message converts the result into the tool turn appended to the transcript.
func (r Result) Message() provider.Message {
	return provider.Message{
		Role:       provider.RoleTool,
		ToolCallID: r.CallID,
		Name:       r.Name,
		Content:    r.Content(),
	}
}

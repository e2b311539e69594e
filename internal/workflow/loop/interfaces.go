package loop

import (
	"github.com/Cyclone1070/storyloop/internal/provider"
	"github.com/Cyclone1070/storyloop/internal/tool"
	"github.com/Cyclone1070/storyloop/internal/workflow/toolmanager"
)

// toolManager exposes the tool contracts and runs tool calls.
type toolManager interface {
	// Declarations returns all tool schemas for the LLM.
	Declarations() []tool.Declaration

	// Execute runs a tool call. Failures are reported in the Result, never as errors.
	Execute(tc provider.ToolCall) toolmanager.Result
}

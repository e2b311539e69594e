package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatToolCall(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		result  string
		success bool
		want    string
	}{
		{
			name: "calculator shows expression", tool: "calculator",
			args: map[string]any{"expression": "15 * 2 + 3"}, result: `{"result":33}`, success: true,
			want: "calculator(15 * 2 + 3) → 33",
		},
		{
			name: "integer args sorted", tool: "random_integer",
			args: map[string]any{"min": float64(1), "max": float64(6)}, result: `{"result":4}`, success: true,
			want: "random_integer(max=6, min=1) → 4",
		},
		{
			name: "choice lists", tool: "weighted_choice",
			args:   map[string]any{"choices": []any{"hit", "miss"}, "weights": []any{0.7, 0.3}},
			result: `{"result":"hit"}`, success: true,
			want: `weighted_choice(choices=["hit","miss"], weights=[0.7,0.3]) → hit`,
		},
		{
			name: "failure with reason", tool: "calculator",
			args: map[string]any{"expression": "1/0"}, result: `{"error":"division by zero","reason":"division_by_zero"}`,
			want: "calculator(1/0) ✗ division by zero (division_by_zero)",
		},
		{
			name: "unknown tool without args", tool: "teleport",
			result: `{"error":"unknown tool","reason":"unknown_tool"}`,
			want:   "teleport() ✗ unknown tool (unknown_tool)",
		},
		{
			name: "non json result", tool: "calculator",
			args: map[string]any{"expression": "2"}, result: "2", success: true,
			want: "calculator(2) → 2",
		},
		{
			name: "nil argument", tool: "random_integer",
			args: map[string]any{"min": nil}, result: `{"error":"bad","reason":"invalid_arguments"}`,
			want: "random_integer(min=null) ✗ bad (invalid_arguments)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatToolCall(tt.tool, tt.args, tt.result, tt.success))
		})
	}
}

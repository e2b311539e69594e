package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// FormatToolCall renders a dispatched tool call as one line, for example
// "random_integer(max=20, min=1) → 17". Arguments are listed in key order.
func FormatToolCall(name string, args map[string]any, result string, success bool) string {
	return fmt.Sprintf("%s(%s) %s", name, formatArgs(name, args), formatResult(result, success))
}

func formatArgs(name string, args map[string]any) string {
	if name == "calculator" {
		if expr, ok := args["expression"].(string); ok {
			return expr
		}
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+formatValue(args[k]))
	}
	return strings.Join(parts, ", ")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func formatResult(result string, success bool) string {
	if success {
		if r := gjson.Get(result, "result"); r.Exists() {
			return "→ " + r.String()
		}
		return "→ " + result
	}
	msg := gjson.Get(result, "error").String()
	if msg == "" {
		msg = result
	}
	if reason := gjson.Get(result, "reason").String(); reason != "" {
		return fmt.Sprintf("✗ %s (%s)", msg, reason)
	}
	return "✗ " + msg
}

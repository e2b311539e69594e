package loop

import (
	"strings"

	"github.com/Cyclone1070/storyloop/internal/provider"
)

// ReasoningExtractor pulls a thinking trace out of a model response.
// It returns "" when the response carries none in the shape it understands.
type ReasoningExtractor interface {
	Extract(resp *provider.Response) string
}

// ExtractorFunc adapts a function to ReasoningExtractor.
type ExtractorFunc func(resp *provider.Response) string

func (f ExtractorFunc) Extract(resp *provider.Response) string { return f(resp) }

var (
	// MessageReasoning joins the structured reasoning attached to the assistant turn.
	MessageReasoning ReasoningExtractor = ExtractorFunc(func(resp *provider.Response) string {
		parts := make([]string, 0, len(resp.Message.Reasoning))
		for _, d := range resp.Message.Reasoning {
			if strings.TrimSpace(d.Text) != "" {
				parts = append(parts, d.Text)
			}
		}
		return strings.Join(parts, "\n")
	})

	// ResponseReasoning reads the response-level reasoning field.
	ResponseReasoning ReasoningExtractor = ExtractorFunc(func(resp *provider.Response) string {
		return resp.Reasoning
	})

	// LegacyReasoning reads the older flat reasoning string.
	LegacyReasoning ReasoningExtractor = ExtractorFunc(func(resp *provider.Response) string {
		return resp.LegacyReasoning
	})
)

// DefaultExtractors returns the fallback chain used when none is configured.
func DefaultExtractors() []ReasoningExtractor {
	return []ReasoningExtractor{MessageReasoning, ResponseReasoning, LegacyReasoning}
}

// ExtractReasoning tries each extractor in order and returns the first
// non-blank trace.
func ExtractReasoning(resp *provider.Response, extractors []ReasoningExtractor) string {
	if resp == nil {
		return ""
	}
	for _, e := range extractors {
		if text := e.Extract(resp); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return ""
}

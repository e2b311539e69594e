package loop

import (
	"go.uber.org/zap"

	"github.com/Cyclone1070/storyloop/internal/provider"
)

// DefaultMaxIterations is used when a non-positive budget is given.
const DefaultMaxIterations = 10

// Option configures a Loop.
type Option func(*Loop)

// WithOnToolCall registers an observer called once per dispatched tool call.
func WithOnToolCall(fn func(CallRecord)) Option {
	return func(l *Loop) { l.onToolCall = fn }
}

// WithOnThinking registers an observer for extracted reasoning traces.
func WithOnThinking(fn func(string)) Option {
	return func(l *Loop) { l.onThinking = fn }
}

// WithOnState registers an observer for state transitions.
func WithOnState(fn func(State)) Option {
	return func(l *Loop) { l.onState = fn }
}

// WithLogger sets the logger. Nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithExtractors replaces the reasoning fallback chain.
func WithExtractors(extractors ...ReasoningExtractor) Option {
	return func(l *Loop) { l.extractors = extractors }
}

// WithTools sets the tool manager. Without it the loop builds one over a
// crypto-seeded random source.
func WithTools(tools toolManager) Option {
	return func(l *Loop) { l.tools = tools }
}

// WithSampling sets generation parameters sent with every request.
func WithSampling(s provider.Sampling) Option {
	return func(l *Loop) { l.sampling = s }
}

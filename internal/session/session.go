// Package session keeps a game's transcript across player turns and runs
// the tool loop once per player input.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Cyclone1070/storyloop/internal/provider"
	"github.com/Cyclone1070/storyloop/internal/workflow"
	"github.com/Cyclone1070/storyloop/internal/workflow/loop"
	"github.com/Cyclone1070/storyloop/internal/workflow/toolmanager"
)

var (
	// ErrEmptyInput is returned for blank player input.
	ErrEmptyInput = errors.New("empty input")
	// ErrBusy is returned when a turn is started while another is running.
	ErrBusy = errors.New("a turn is already running")
)

// Session holds the conversation with one model.
type Session struct {
	model         provider.Provider
	tools         *toolmanager.ToolManager
	maxIterations int
	sampling      provider.Sampling
	systemPrompt  string
	logger        *zap.Logger

	running    atomic.Bool
	mu         sync.Mutex
	transcript []provider.Message
}

// Option configures a Session.
type Option func(*Session)

// WithSystemPrompt seeds every transcript with a system turn.
func WithSystemPrompt(prompt string) Option {
	return func(s *Session) { s.systemPrompt = strings.TrimSpace(prompt) }
}

// WithMaxIterations sets the per-turn model call budget.
func WithMaxIterations(n int) Option {
	return func(s *Session) { s.maxIterations = n }
}

// WithSampling sets generation parameters for every model call.
func WithSampling(sampling provider.Sampling) Option {
	return func(s *Session) { s.sampling = sampling }
}

// WithTools shares one tool manager, and so one random source, across turns.
func WithTools(tools *toolmanager.ToolManager) Option {
	return func(s *Session) { s.tools = tools }
}

// WithLogger sets the logger. Nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a session with an empty transcript (plus the system prompt, if any).
func New(model provider.Provider, opts ...Option) *Session {
	s := &Session{
		model:         model,
		maxIterations: loop.DefaultMaxIterations,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.transcript = s.seed()
	return s
}

func (s *Session) seed() []provider.Message {
	if s.systemPrompt == "" {
		return nil
	}
	return []provider.Message{{Role: provider.RoleSystem, Content: s.systemPrompt}}
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []provider.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]provider.Message(nil), s.transcript...)
}

// Reset discards everything but the system prompt.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = s.seed()
}

// Model returns the name of the model the session talks to.
func (s *Session) Model() string {
	return s.model.Model()
}

// Turn appends the player's input and runs the tool loop until the model
// answers. emit receives progress events and is always sent a final
// DoneEvent; it may be nil.
//
// The transcript returned by the loop is kept when the budget runs out or the
// turn is cancelled, so a later turn sees the tool results gathered so far.
// When the model call fails the turn is rolled back, input included, so the
// player can retry.
func (s *Session) Turn(ctx context.Context, input string, emit func(workflow.Event)) (string, error) {
	if emit == nil {
		emit = func(workflow.Event) {}
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyInput
	}
	if !s.running.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer s.running.Store(false)

	before := s.Transcript()
	transcript := append(before, provider.Message{Role: provider.RoleUser, Content: input})

	opts := []loop.Option{
		loop.WithLogger(s.logger),
		loop.WithSampling(s.sampling),
		loop.WithOnState(func(st loop.State) {
			if ev, ok := statusFor(st); ok {
				emit(ev)
			}
		}),
		loop.WithOnThinking(func(text string) {
			emit(workflow.ThinkingEvent{Text: text})
		}),
		loop.WithOnToolCall(func(rec loop.CallRecord) {
			emit(workflow.ToolCallEvent{
				Name:      rec.Name,
				Arguments: rec.Arguments,
				Result:    rec.Result.Content(),
				Success:   rec.Result.Success,
			})
		}),
	}
	if s.tools != nil {
		opts = append(opts, loop.WithTools(s.tools))
	}

	res, err := loop.RunToolLoop(ctx, transcript, s.model, s.maxIterations, opts...)

	s.mu.Lock()
	if res.Status == loop.StatusFailed {
		s.transcript = before
	} else {
		s.transcript = res.Transcript
	}
	s.mu.Unlock()

	s.logger.Debug("turn finished",
		zap.Stringer("status", res.Status),
		zap.Int("iterations", res.Iterations),
		zap.Int("tool_calls", len(res.Calls)),
		zap.Error(err))

	var answer string
	if final, ok := res.Final(); ok {
		answer = final.Content
		emit(workflow.TextEvent{Text: answer})
	}
	emit(workflow.DoneEvent{Status: res.Status.String(), Err: err})
	return answer, err
}

func statusFor(st loop.State) (workflow.StatusEvent, bool) {
	switch st {
	case loop.StateAwaitingModel:
		return workflow.StatusEvent{Phase: workflow.PhaseThinking, Status: "Thinking"}, true
	case loop.StateDispatchingTools:
		return workflow.StatusEvent{Phase: workflow.PhaseTools, Status: "Rolling dice"}, true
	default:
		return workflow.StatusEvent{}, false
	}
}

package loop

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Cyclone1070/storyloop/internal/provider"
	"github.com/Cyclone1070/storyloop/internal/tool/random"
	"github.com/Cyclone1070/storyloop/internal/workflow/toolmanager"
)

// CallRecord describes one dispatched tool call.
type CallRecord struct {
	Iteration int
	CallID    string
	Name      string
	Arguments map[string]any
	Result    toolmanager.Result
}

// Result is the outcome of a run. It is returned for every status, so the
// transcript accumulated before a failure is never lost.
type Result struct {
	Transcript []provider.Message
	Status     Status
	Iterations int
	Calls      []CallRecord
}

// Final returns the last assistant turn, if the run ended with one.
func (r *Result) Final() (provider.Message, bool) {
	if r == nil || r.Status != StatusDone || len(r.Transcript) == 0 {
		return provider.Message{}, false
	}
	last := r.Transcript[len(r.Transcript)-1]
	return last, last.Role == provider.RoleAssistant
}

// Loop drives the model and tools until the model answers without tool calls.
type Loop struct {
	model         provider.Provider
	tools         toolManager
	maxIterations int
	sampling      provider.Sampling
	extractors    []ReasoningExtractor
	logger        *zap.Logger

	onToolCall func(CallRecord)
	onThinking func(string)
	onState    func(State)
}

// NewLoop creates a loop. maxIterations <= 0 selects DefaultMaxIterations.
func NewLoop(model provider.Provider, maxIterations int, opts ...Option) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	l := &Loop{
		model:         model,
		maxIterations: maxIterations,
		extractors:    DefaultExtractors(),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RunToolLoop runs one orchestration over transcript. The returned Result is
// non-nil for every outcome; err is set for every status except StatusDone.
func RunToolLoop(ctx context.Context, transcript []provider.Message, model provider.Provider, maxIterations int, opts ...Option) (*Result, error) {
	return NewLoop(model, maxIterations, opts...).Run(ctx, transcript)
}

// Run executes the loop. The caller's transcript slice is not modified.
func (l *Loop) Run(ctx context.Context, transcript []provider.Message) (*Result, error) {
	res := &Result{Transcript: append([]provider.Message(nil), transcript...)}

	if l.tools == nil {
		src, err := random.NewSource()
		if err != nil {
			res.Status = StatusFailed
			return res, fmt.Errorf("seed random source: %w", err)
		}
		l.tools = toolmanager.NewToolManager(src, toolmanager.WithLogger(l.logger))
	}
	decls := l.tools.Declarations()

	for res.Iterations < l.maxIterations {
		if err := ctx.Err(); err != nil {
			l.logger.Info("loop cancelled", zap.Int("iterations", res.Iterations))
			res.Status = StatusCancelled
			return res, err
		}

		l.setState(StateAwaitingModel)
		res.Iterations++
		log := l.logger.With(zap.Int("iteration", res.Iterations))

		resp, err := l.model.Generate(ctx, &provider.Request{
			Model:    l.model.Model(),
			Messages: append([]provider.Message(nil), res.Transcript...),
			Tools:    decls,
			Sampling: l.sampling,
		})
		if err == nil && resp == nil {
			err = ErrEmptyResponse
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info("model call cancelled", zap.Error(err))
				res.Status = StatusCancelled
				return res, err
			}
			log.Error("model call failed", zap.Error(err))
			res.Status = StatusFailed
			return res, fmt.Errorf("provider.Generate: %w", err)
		}

		l.setState(StateModelResponded)
		msg := resp.Message
		if msg.Role == "" {
			msg.Role = provider.RoleAssistant
		}
		res.Transcript = append(res.Transcript, msg)

		if thinking := ExtractReasoning(resp, l.extractors); thinking != "" {
			l.notifyThinking(thinking)
		}

		if len(msg.ToolCalls) == 0 {
			l.setState(StateDone)
			log.Debug("model answered", zap.Int("total_tokens", resp.Usage.TotalTokens))
			res.Status = StatusDone
			return res, nil
		}

		l.setState(StateDispatchingTools)
		for _, tc := range msg.ToolCalls {
			result := l.tools.Execute(tc)
			res.Transcript = append(res.Transcript, result.Message())

			rec := CallRecord{
				Iteration: res.Iterations,
				CallID:    tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
				Result:    result,
			}
			res.Calls = append(res.Calls, rec)
			log.Debug("tool dispatched", zap.String("tool", tc.Name), zap.Bool("success", result.Success))
			l.notifyToolCall(rec)
		}
	}

	l.logger.Warn("iteration budget exhausted", zap.Int("max_iterations", l.maxIterations))
	res.Status = StatusBudgetExceeded
	return res, fmt.Errorf("%w: no final answer after %d model calls", ErrIterationBudgetExceeded, l.maxIterations)
}

// -- Observers --
// Observers are side channels. A panic in one is logged and swallowed.

func (l *Loop) setState(s State) {
	if l.onState == nil {
		return
	}
	l.observe("state", func() { l.onState(s) })
}

func (l *Loop) notifyThinking(text string) {
	if l.onThinking == nil {
		return
	}
	l.observe("thinking", func() { l.onThinking(text) })
}

func (l *Loop) notifyToolCall(rec CallRecord) {
	if l.onToolCall == nil {
		return
	}
	l.observe("tool_call", func() { l.onToolCall(rec) })
}

func (l *Loop) observe(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Warn("observer panicked", zap.String("observer", name), zap.Any("panic", r))
		}
	}()
	fn()
}

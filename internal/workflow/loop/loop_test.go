package loop

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/storyloop/internal/provider"
	"github.com/Cyclone1070/storyloop/internal/testing/mocks"
	"github.com/Cyclone1070/storyloop/internal/testing/testhelpers"
	"github.com/Cyclone1070/storyloop/internal/tool"
	"github.com/Cyclone1070/storyloop/internal/workflow/toolmanager"
)

type mockToolManager struct {
	declarations []tool.Declaration
	executeFunc  func(tc provider.ToolCall) toolmanager.Result
}

func (m *mockToolManager) Declarations() []tool.Declaration {
	return m.declarations
}

func (m *mockToolManager) Execute(tc provider.ToolCall) toolmanager.Result {
	if m.executeFunc != nil {
		return m.executeFunc(tc)
	}
	return toolmanager.Result{CallID: tc.ID, Name: tc.Name, Success: true, Value: "ok"}
}

func userTurn(text string) []provider.Message {
	return []provider.Message{{Role: provider.RoleUser, Content: text}}
}

func tools(src *mocks.SequenceSource) Option {
	return WithTools(toolmanager.NewToolManager(src))
}

func payload(t *testing.T, msg provider.Message) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.Content), &out))
	return out
}

func TestRun_SingleTurn_TextOnly(t *testing.T) {
	mp := testhelpers.NewMockProvider().WithTextResponse("The door creaks open.")
	input := userTurn("open the door")

	res, err := RunToolLoop(context.Background(), input, mp, 5, tools(mocks.NewSequenceSource()))

	require.NoError(t, err)
	assert.Equal(t, StatusDone, res.Status)
	assert.Equal(t, 1, res.Iterations)
	require.Len(t, res.Transcript, 2)
	assert.Equal(t, "The door creaks open.", res.Transcript[1].Content)
	assert.Len(t, input, 1, "caller transcript must not grow")

	final, ok := res.Final()
	require.True(t, ok)
	assert.Equal(t, "The door creaks open.", final.Content)
}

func TestRun_SequentialToolCallsThenAnswer(t *testing.T) {
	mp := testhelpers.NewMockProvider().
		WithToolCallResponse(provider.ToolCall{ID: "call-1", Name: "calculator", Arguments: map[string]any{"expression": "15 * 2 + 3"}}).
		WithToolCallResponse(provider.ToolCall{ID: "call-2", Name: "random_integer", Arguments: map[string]any{"min": 1.0, "max": 20.0}}).
		WithTextResponse("You deal 33 damage and roll a 7.")

	res, err := RunToolLoop(context.Background(), userTurn("attack"), mp, 10,
		tools(mocks.NewSequenceSource().WithInts(6)))

	require.NoError(t, err)
	assert.Equal(t, StatusDone, res.Status)
	assert.Equal(t, 3, res.Iterations)

	roles := make([]provider.Role, len(res.Transcript))
	for i, m := range res.Transcript {
		roles[i] = m.Role
	}
	assert.Equal(t, []provider.Role{
		provider.RoleUser,
		provider.RoleAssistant, provider.RoleTool,
		provider.RoleAssistant, provider.RoleTool,
		provider.RoleAssistant,
	}, roles)

	assert.Equal(t, "call-1", res.Transcript[2].ToolCallID)
	assert.Equal(t, map[string]any{"result": 33.0}, payload(t, res.Transcript[2]))
	assert.Equal(t, "call-2", res.Transcript[4].ToolCallID)
	assert.Equal(t, map[string]any{"result": 7.0}, payload(t, res.Transcript[4]))

	require.Len(t, res.Calls, 2)
	assert.Equal(t, 1, res.Calls[0].Iteration)
	assert.Equal(t, "calculator", res.Calls[0].Name)
	assert.Equal(t, 2, res.Calls[1].Iteration)
	assert.Equal(t, int64(7), res.Calls[1].Result.Value)

	// Each request carries the whole transcript so far.
	require.Len(t, mp.Requests, 3)
	assert.Len(t, mp.Requests[0].Messages, 1)
	assert.Len(t, mp.Requests[1].Messages, 3)
	assert.Len(t, mp.Requests[2].Messages, 5)
}

func TestRun_MultipleCallsInOneTurn_KeepDeclaredOrder(t *testing.T) {
	mp := testhelpers.NewMockProvider().
		WithToolCallResponse(
			provider.ToolCall{ID: "a", Name: "weighted_choice", Arguments: map[string]any{"choices": []any{"goblin", "orc"}}},
			provider.ToolCall{ID: "b", Name: "calculator", Arguments: map[string]any{"expression": "2 ^ 3 ^ 2"}},
			provider.ToolCall{ID: "c", Name: "random_integer", Arguments: map[string]any{"min": 5.0, "max": 5.0}},
		).
		WithTextResponse("An orc appears.")

	var observed []string
	res, err := RunToolLoop(context.Background(), userTurn("explore"), mp, 10,
		tools(mocks.NewSequenceSource().WithInts(1)),
		WithOnToolCall(func(rec CallRecord) { observed = append(observed, rec.CallID) }))

	require.NoError(t, err)
	require.Len(t, res.Transcript, 6)
	assert.Equal(t, "a", res.Transcript[2].ToolCallID)
	assert.Equal(t, "b", res.Transcript[3].ToolCallID)
	assert.Equal(t, "c", res.Transcript[4].ToolCallID)
	assert.Equal(t, map[string]any{"result": "orc"}, payload(t, res.Transcript[2]))
	assert.Equal(t, map[string]any{"result": 64.0}, payload(t, res.Transcript[3]))
	assert.Equal(t, map[string]any{"result": 5.0}, payload(t, res.Transcript[4]))
	assert.Equal(t, []string{"a", "b", "c"}, observed)
}

func TestRun_ToolFailureDoesNotAbort(t *testing.T) {
	mp := testhelpers.NewMockProvider().
		WithToolCallResponse(provider.ToolCall{ID: "x", Name: "calculator", Arguments: map[string]any{"expression": "5 / 0"}}).
		WithToolCallResponse(provider.ToolCall{ID: "y", Name: "summon_dragon"}).
		WithTextResponse("The spell fizzles.")

	res, err := RunToolLoop(context.Background(), userTurn("cast"), mp, 10, tools(mocks.NewSequenceSource()))

	require.NoError(t, err)
	assert.Equal(t, StatusDone, res.Status)
	assert.Equal(t, "division_by_zero", payload(t, res.Transcript[2])["reason"])
	assert.Equal(t, "unknown_tool", payload(t, res.Transcript[4])["reason"])
	assert.False(t, res.Calls[0].Result.Success)
}

func TestRun_MaxIterationsExceeded_ReturnsPartialTranscript(t *testing.T) {
	mp := testhelpers.NewMockProvider().AlwaysCallTool("calculator", map[string]any{"expression": "1 + 1"})

	res, err := RunToolLoop(context.Background(), userTurn("loop forever"), mp, 3, tools(mocks.NewSequenceSource()))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIterationBudgetExceeded)
	assert.Contains(t, err.Error(), "3")
	require.NotNil(t, res)
	assert.Equal(t, StatusBudgetExceeded, res.Status)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, 3, mp.CallCount())
	assert.Len(t, res.Transcript, 1+3*2)
	assert.Len(t, res.Calls, 3)

	_, ok := res.Final()
	assert.False(t, ok)
}

func TestRun_NonPositiveBudget_UsesDefault(t *testing.T) {
	mp := testhelpers.NewMockProvider().AlwaysCallTool("calculator", map[string]any{"expression": "1"})

	res, err := RunToolLoop(context.Background(), userTurn("go"), mp, 0, tools(mocks.NewSequenceSource()))

	assert.ErrorIs(t, err, ErrIterationBudgetExceeded)
	assert.Equal(t, DefaultMaxIterations, res.Iterations)
	assert.Equal(t, DefaultMaxIterations, mp.CallCount())
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mp := testhelpers.NewMockProvider().WithTextResponse("never")

	res, err := RunToolLoop(ctx, userTurn("hi"), mp, 5, tools(mocks.NewSequenceSource()))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, 0, mp.CallCount())
	assert.Equal(t, userTurn("hi"), res.Transcript)
}

func TestRun_CancelledBetweenIterations_KeepsToolResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mp := testhelpers.NewMockProvider().
		WithToolCallResponse(provider.ToolCall{ID: "c1", Name: "calculator", Arguments: map[string]any{"expression": "2 + 2"}}).
		WithTextResponse("never reached")

	res, err := RunToolLoop(ctx, userTurn("hi"), mp, 5,
		tools(mocks.NewSequenceSource()),
		WithOnToolCall(func(CallRecord) { cancel() }))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, 1, mp.CallCount())
	require.Len(t, res.Transcript, 3)
	assert.Equal(t, provider.RoleTool, res.Transcript[2].Role)
}

func TestRun_ProviderError_ReturnsFailedWithPartialTranscript(t *testing.T) {
	transportErr := &provider.Error{Code: provider.ErrorCodeNetwork, Message: "connection reset", Retryable: true}
	mp := testhelpers.NewMockProvider().
		WithToolCallResponse(provider.ToolCall{ID: "c1", Name: "calculator", Arguments: map[string]any{"expression": "3 * 3"}}).
		WithError(transportErr)

	res, err := RunToolLoop(context.Background(), userTurn("hi"), mp, 5, tools(mocks.NewSequenceSource()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.Generate")
	assert.ErrorIs(t, err, provider.ErrNetwork)
	assert.True(t, provider.IsRetryable(err))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Len(t, res.Transcript, 3)
}

func TestRun_ProviderReturnsContextError_IsCancelled(t *testing.T) {
	mp := testhelpers.NewMockProvider().WithError(context.DeadlineExceeded)

	res, err := RunToolLoop(context.Background(), userTurn("hi"), mp, 5, tools(mocks.NewSequenceSource()))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusCancelled, res.Status)
}

func TestRun_NilResponse_Fails(t *testing.T) {
	mp := testhelpers.NewMockProvider().WithResponse(nil)

	res, err := RunToolLoop(context.Background(), userTurn("hi"), mp, 5, tools(mocks.NewSequenceSource()))

	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestRun_ObserverPanicsAreSwallowed(t *testing.T) {
	mp := testhelpers.NewMockProvider().
		WithResponse(&provider.Response{
			Message: provider.Message{
				Role:      provider.RoleAssistant,
				ToolCalls: []provider.ToolCall{{ID: "c1", Name: "calculator", Arguments: map[string]any{"expression": "1"}}},
			},
			Reasoning: "thinking hard",
		}).
		WithTextResponse("done")

	var res *Result
	var err error
	require.NotPanics(t, func() {
		res, err = RunToolLoop(context.Background(), userTurn("hi"), mp, 5,
			tools(mocks.NewSequenceSource()),
			WithOnThinking(func(string) { panic("thinking observer") }),
			WithOnToolCall(func(CallRecord) { panic("tool observer") }),
			WithOnState(func(State) { panic("state observer") }))
	})

	require.NoError(t, err)
	assert.Equal(t, StatusDone, res.Status)
	assert.Len(t, res.Transcript, 4)
}

func TestRun_ThinkingObserverGetsFirstNonEmptyTrace(t *testing.T) {
	mp := testhelpers.NewMockProvider().WithResponse(&provider.Response{
		Message: provider.Message{
			Role:      provider.RoleAssistant,
			Content:   "ok",
			Reasoning: []provider.ReasoningDetail{{Type: "reasoning.text", Text: "per-message"}},
		},
		Reasoning:       "response-level",
		LegacyReasoning: "legacy",
	})

	var got []string
	_, err := RunToolLoop(context.Background(), userTurn("hi"), mp, 5,
		tools(mocks.NewSequenceSource()),
		WithOnThinking(func(s string) { got = append(got, s) }))

	require.NoError(t, err)
	assert.Equal(t, []string{"per-message"}, got)
}

func TestRun_NoThinking_ObserverNotCalled(t *testing.T) {
	mp := testhelpers.NewMockProvider().WithTextResponse("plain")

	called := false
	_, err := RunToolLoop(context.Background(), userTurn("hi"), mp, 5,
		tools(mocks.NewSequenceSource()),
		WithOnThinking(func(string) { called = true }))

	require.NoError(t, err)
	assert.False(t, called)
}

func TestRun_SendsDeclarationsModelAndSampling(t *testing.T) {
	temp := float32(0.7)
	mp := testhelpers.NewMockProvider().WithTextResponse("hi")

	_, err := RunToolLoop(context.Background(), userTurn("hi"), mp, 5,
		tools(mocks.NewSequenceSource()),
		WithSampling(provider.Sampling{Temperature: &temp, MaxTokens: 256}))

	require.NoError(t, err)
	require.Len(t, mp.Requests, 1)
	req := mp.Requests[0]
	assert.Equal(t, "mock-model", req.Model)
	require.Len(t, req.Tools, 3)
	assert.Equal(t, "calculator", req.Tools[0].Name)
	assert.Equal(t, &temp, req.Sampling.Temperature)
	assert.Equal(t, 256, req.Sampling.MaxTokens)
}

func TestRun_StateTransitions(t *testing.T) {
	mp := testhelpers.NewMockProvider().
		WithToolCallResponse(provider.ToolCall{ID: "c1", Name: "noop"}).
		WithTextResponse("done")

	var states []State
	_, err := RunToolLoop(context.Background(), userTurn("hi"), mp, 5,
		WithTools(&mockToolManager{}),
		WithOnState(func(s State) { states = append(states, s) }))

	require.NoError(t, err)
	assert.Equal(t, []State{
		StateAwaitingModel, StateModelResponded, StateDispatchingTools,
		StateAwaitingModel, StateModelResponded, StateDone,
	}, states)
}

func TestRun_AssistantRoleDefaulted(t *testing.T) {
	mp := testhelpers.NewMockProvider().WithResponse(&provider.Response{Message: provider.Message{Content: "hi"}})

	res, err := RunToolLoop(context.Background(), userTurn("hi"), mp, 5, WithTools(&mockToolManager{}))

	require.NoError(t, err)
	assert.Equal(t, provider.RoleAssistant, res.Transcript[1].Role)
}

func TestRun_DefaultToolsAreBuilt(t *testing.T) {
	mp := testhelpers.NewMockProvider().
		WithToolCallResponse(provider.ToolCall{ID: "c1", Name: "random_integer", Arguments: map[string]any{"min": 1.0, "max": 6.0}}).
		WithTextResponse("rolled")

	res, err := RunToolLoop(context.Background(), userTurn("roll"), mp, 5)

	require.NoError(t, err)
	require.Len(t, res.Calls, 1)
	require.True(t, res.Calls[0].Result.Success)
	v := res.Calls[0].Result.Value.(int64)
	assert.GreaterOrEqual(t, v, int64(1))
	assert.LessOrEqual(t, v, int64(6))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "budget_exceeded", StatusBudgetExceeded.String())
	assert.Equal(t, "dispatching_tools", StateDispatchingTools.String())
}

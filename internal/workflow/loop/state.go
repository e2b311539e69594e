package loop

// State is where the loop is within one iteration.
type State int

const (
	StateAwaitingModel State = iota
	StateModelResponded
	StateDispatchingTools
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateModelResponded:
		return "model_responded"
	case StateDispatchingTools:
		return "dispatching_tools"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Status is how a run ended.
type Status int

const (
	// StatusDone means the model produced a final answer.
	StatusDone Status = iota
	// StatusBudgetExceeded means the iteration budget ran out first.
	StatusBudgetExceeded
	// StatusCancelled means the context was cancelled.
	StatusCancelled
	// StatusFailed means the model collaborator returned an error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusBudgetExceeded:
		return "budget_exceeded"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

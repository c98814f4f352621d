package orchestrator

// State is the lifecycle of the calculation in flight.
type State int

const (
	StateIdle State = iota
	StateEvaluating
	StateEvaluatingAI
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEvaluating:
		return "evaluating"
	case StateEvaluatingAI:
		return "evaluating_ai"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Busy reports whether a calculation is in flight in this state.
func (s State) Busy() bool {
	return s == StateEvaluating || s == StateEvaluatingAI
}

// StateChange is sent to subscribers on every transition.
type StateChange struct {
	From       State
	To         State
	Expression string
}

package mypycbuild

import "fmt"

// State is a stage of the build orchestrator.
type State int

const (
	StateIdle State = iota
	StateStaging
	StateCompiling
	StateFinalizing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStaging:
		return "STAGING"
	case StateCompiling:
		return "COMPILING"
	case StateFinalizing:
		return "FINALIZING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether the state is terminal.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateStaging
	case StateStaging:
		return to == StateCompiling || to == StateFailed
	case StateCompiling:
		return to == StateFinalizing || to == StateFailed
	case StateFinalizing:
		return to == StateDone
	default:
		return false
	}
}

// stateMachine tracks the orchestrator state of one build. Every transition
// is validated and recorded.
type stateMachine struct {
	current State
	history []State
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateIdle, history: []State{StateIdle}}
}

func (m *stateMachine) transition(to State) error {
	if !isAllowedTransition(m.current, to) {
		return fmt.Errorf("disallowed build state transition: %s -> %s", m.current, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}

// fail moves to StateFailed when allowed and leaves terminal states alone.
func (m *stateMachine) fail() {
	if isAllowedTransition(m.current, StateFailed) {
		m.current = StateFailed
		m.history = append(m.history, StateFailed)
	}
}

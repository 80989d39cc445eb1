// Package typeenrich implements the Type Enricher (§4.4): it attaches
// resolved types to nodes whose declared type could not be inferred
// structurally, by querying an external language server over LSP.
package typeenrich

import "fmt"

// ClientState is the LSP client's lifecycle state (§4.4): "unstarted ->
// starting -> initialized -> active -> draining -> stopped".
type ClientState int

const (
	StateUnstarted ClientState = iota
	StateStarting
	StateInitialized
	StateActive
	StateDraining
	StateStopped
)

func (s ClientState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateStarting:
		return "starting"
	case StateInitialized:
		return "initialized"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// validTransitions enumerates the state machine's allowed edges, per
// §4.4: "starting->active requires receiving initialize response;
// active->draining on explicit shutdown; any transport error forces
// ->stopped".
var validTransitions = map[ClientState]map[ClientState]bool{
	StateUnstarted:    {StateStarting: true, StateStopped: true},
	StateStarting:     {StateInitialized: true, StateStopped: true},
	StateInitialized:  {StateActive: true, StateStopped: true},
	StateActive:       {StateDraining: true, StateStopped: true},
	StateDraining:     {StateStopped: true},
	StateStopped:      {},
}

// stateMachine is a small guarded state holder; embedded by Client so the
// transport-error "force to stopped" rule is enforced in one place rather
// than at every call site.
type stateMachine struct {
	current ClientState
}

func (m *stateMachine) transition(to ClientState) error {
	allowed := validTransitions[m.current]
	if !allowed[to] {
		return fmt.Errorf("typeenrich: invalid LSP client transition %s -> %s", m.current, to)
	}
	m.current = to
	return nil
}

// forceStopped implements "any transport error forces ->stopped",
// bypassing the transition table since every state can fail this way.
func (m *stateMachine) forceStopped() {
	m.current = StateStopped
}

func (m *stateMachine) state() ClientState { return m.current }

package typeenrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineHappyPath(t *testing.T) {
	var m stateMachine
	require.NoError(t, m.transition(StateStarting))
	require.NoError(t, m.transition(StateInitialized))
	require.NoError(t, m.transition(StateActive))
	require.NoError(t, m.transition(StateDraining))
	require.NoError(t, m.transition(StateStopped))
	assert.Equal(t, StateStopped, m.state())
}

func TestStateMachineRejectsSkippingStates(t *testing.T) {
	var m stateMachine
	err := m.transition(StateActive)
	assert.Error(t, err, "unstarted -> active must be rejected")
}

func TestStateMachineForceStoppedFromAnyState(t *testing.T) {
	var m stateMachine
	require.NoError(t, m.transition(StateStarting))
	require.NoError(t, m.transition(StateInitialized))
	m.forceStopped()
	assert.Equal(t, StateStopped, m.state())
}

func TestStateMachineStoppedIsTerminal(t *testing.T) {
	var m stateMachine
	m.current = StateStopped
	err := m.transition(StateActive)
	assert.Error(t, err)
}

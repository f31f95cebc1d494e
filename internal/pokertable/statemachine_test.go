package pokertable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHooks struct {
	exits   []Phase
	enters  []Phase
	failExit  Phase
	failEnter Phase
}

func (h *recordingHooks) OnExit(from Phase, trigger Trigger) error {
	if from == h.failExit {
		return assert.AnError
	}
	h.exits = append(h.exits, from)
	return nil
}

func (h *recordingHooks) OnEnter(to Phase, trigger Trigger) error {
	if to == h.failEnter {
		return assert.AnError
	}
	h.enters = append(h.enters, to)
	return nil
}

func TestHandStateMachineFullStreetProgression(t *testing.T) {
	m := NewHandStateMachine()
	hooks := &recordingHooks{failExit: -1, failEnter: -1}

	require.NoError(t, m.Fire(StartHand, hooks))
	assert.Equal(t, Preflop, m.Phase())

	require.NoError(t, m.Fire(BettingComplete, hooks))
	assert.Equal(t, Flop, m.Phase())

	require.NoError(t, m.Fire(BettingComplete, hooks))
	assert.Equal(t, Turn, m.Phase())

	require.NoError(t, m.Fire(BettingComplete, hooks))
	assert.Equal(t, River, m.Phase())

	require.NoError(t, m.Fire(BettingComplete, hooks))
	assert.Equal(t, Showdown, m.Phase())

	require.NoError(t, m.Fire(ShowdownComplete, hooks))
	assert.Equal(t, Complete, m.Phase())

	assert.Len(t, m.History(), 6)
}

func TestHandStateMachineRejectsIllegalTransition(t *testing.T) {
	m := NewHandStateMachine()
	hooks := &recordingHooks{failExit: -1, failEnter: -1}
	require.NoError(t, m.Fire(StartHand, hooks))

	err := m.Fire(ShowdownComplete, hooks)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, Preflop, m.Phase(), "phase must not change on a rejected transition")
}

func TestHandStateMachineAllFoldedFromAnyActivePhase(t *testing.T) {
	m := NewHandStateMachine()
	hooks := &recordingHooks{failExit: -1, failEnter: -1}
	require.NoError(t, m.Fire(StartHand, hooks))
	require.NoError(t, m.Fire(BettingComplete, hooks)) // Flop

	require.NoError(t, m.Fire(AllFolded, hooks))
	assert.Equal(t, Complete, m.Phase())
}

func TestHandStateMachineExitErrorAbortsTransition(t *testing.T) {
	m := NewHandStateMachine()
	hooks := &recordingHooks{failExit: Preflop, failEnter: -1}
	require.NoError(t, m.Fire(StartHand, hooks))

	err := m.Fire(BettingComplete, hooks)
	assert.Error(t, err)
	assert.Equal(t, Preflop, m.Phase(), "exit hook failure must abort the transition")
}

func TestHandStateMachineEnterErrorRollsBackPhase(t *testing.T) {
	m := NewHandStateMachine()
	hooks := &recordingHooks{failExit: -1, failEnter: Flop}
	require.NoError(t, m.Fire(StartHand, hooks))

	err := m.Fire(BettingComplete, hooks)
	assert.Error(t, err)
	assert.Equal(t, Preflop, m.Phase(), "enter hook failure must roll back the phase")
}

func TestHandStateMachineForceEndFromAnyPhase(t *testing.T) {
	m := NewHandStateMachine()
	hooks := &recordingHooks{failExit: -1, failEnter: -1}
	require.NoError(t, m.Fire(StartHand, hooks))
	require.NoError(t, m.Fire(ForceEnd, hooks))
	assert.Equal(t, Complete, m.Phase())
}

package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

func TestWorkflowHappyPath(t *testing.T) {
	m, err := NewWorkflowMachine()
	require.NoError(t, err)
	m.Start()
	assert.Equal(t, StateDevelopment, m.CurrentState())

	require.NoError(t, m.Send(EventStage))
	assert.Equal(t, StateStaged, m.CurrentState())

	// Restaging stays in Staged.
	require.NoError(t, m.Send(EventStage))
	assert.Equal(t, StateStaged, m.CurrentState())
}

func TestWorkflowStateTransitions(t *testing.T) {
	tests := []struct {
		from   WorkflowState
		to     WorkflowState
		wantOK bool
	}{
		{StateDevelopment, StateStaged, true},
		{StateDevelopment, StateReleased, false},
		{StateStaged, StateRequested, true},
		{StateStaged, StateDevelopment, true},
		{StateRequested, StateVersionsApplied, true},
		{StateRequested, StateReleased, false},
		// Reapplying versions against an already-versioned checkout is a
		// legal no-op, matching the Staged restage loop.
		{StateVersionsApplied, StateVersionsApplied, true},
		{StateVersionsApplied, StateReleased, true},
		{StateVersionsApplied, StateDevelopment, false},
		{StateReleased, StateTagged, true},
		{StateTagged, StateDevelopment, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.wantOK, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
	assert.True(t, StateTagged.IsTerminal())
	assert.False(t, StateReleased.IsTerminal())
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, ValidateTransition(StateDevelopment, EventStage))
	require.NoError(t, ValidateTransition(StateRequested, EventApplyVersions))
	require.NoError(t, ValidateTransition(StateVersionsApplied, EventApplyVersions))
	require.NoError(t, ValidateTransition(StateVersionsApplied, EventCommit))
	require.NoError(t, ValidateTransition(StateReleased, EventTag))

	err := ValidateTransition(StateDevelopment, EventCommit)
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindState))

	err = ValidateTransition(StateTagged, EventStage)
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindState))

	err = ValidateTransition(StateDevelopment, "BOGUS")
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindState))
}

package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/para-dev/para/internal/state"
)

func TestTransitionTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current state.Phase
		event   Event
		want    state.Phase
		wantErr bool
	}{
		{name: "create from scratch", current: "", event: EventCreate, want: state.PhaseCreating},
		{name: "create over existing fails", current: state.PhaseActive, event: EventCreate, wantErr: true},
		{name: "finish active", current: state.PhaseActive, event: EventFinish, want: state.PhaseFinishing},
		{name: "finish creating fails", current: state.PhaseCreating, event: EventFinish, wantErr: true},
		{name: "cancel active", current: state.PhaseActive, event: EventCancel, want: state.PhaseCancelling},
		{name: "cancel creating", current: state.PhaseCreating, event: EventCancel, want: state.PhaseCancelling},
		{name: "cancel archived fails", current: state.PhaseArchivedFinished, event: EventCancel, wantErr: true},
		{name: "recover archived finished", current: state.PhaseArchivedFinished, event: EventRecover, want: state.PhaseActive},
		{name: "recover archived cancelled", current: state.PhaseArchivedCancelled, event: EventRecover, want: state.PhaseActive},
		{name: "recover active fails", current: state.PhaseActive, event: EventRecover, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Transition(tt.current, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEventString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Create", EventCreate.String())
	require.Equal(t, "Event(99)", Event(99).String())
}

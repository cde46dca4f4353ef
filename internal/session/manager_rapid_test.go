package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/para-dev/para/internal/state"
)

// TestManagerStateInvariant exercises random interleavings of start/cancel/
// finish against a small fixed name pool and checks invariant 1 (spec.md
// §8): after every operation, a session's workspace directory exists if and
// only if its state record is active.
func TestManagerStateInvariant(t *testing.T) {
	names := []string{"a", "b", "c"}

	rapid.Check(t, func(rt *rapid.T) {
		repo := initRepo(t)
		mgr := newTestManager(t, repo)
		ctx := context.Background()

		active := make(map[string]bool, len(names))
		lastWorkspace := make(map[string]string, len(names))

		steps := rapid.IntRange(10, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			name := names[rapid.IntRange(0, len(names)-1).Draw(rt, "name")]
			action := rapid.IntRange(0, 2).Draw(rt, "action")

			switch action {
			case 0: // start
				rec, err := mgr.Start(ctx, StartOptions{Name: name})
				if active[name] {
					require.Error(rt, err, "starting already-active session %q must fail", name)
				} else {
					require.NoError(rt, err)
					active[name] = true
					lastWorkspace[name] = rec.WorkspacePath
				}
			case 1: // cancel (force, so a dirty workspace never blocks the model)
				_, err := mgr.Cancel(ctx, name, true)
				if active[name] {
					require.NoError(rt, err)
					active[name] = false
				} else {
					require.Error(rt, err, "cancelling non-active session %q must fail", name)
				}
			case 2: // finish
				if active[name] {
					rec, err := mgr.store.Get(ctx, name)
					require.NoError(t, err)
					require.NotNil(t, rec)
					require.NoError(t, os.WriteFile(filepath.Join(rec.WorkspacePath, "change.txt"), []byte(name), 0o644))
				}
				_, err := mgr.Finish(ctx, name, "wip", "")
				if active[name] {
					require.NoError(rt, err)
					active[name] = false
				} else {
					require.Error(rt, err, "finishing non-active session %q must fail", name)
				}
			}

			assertWorkspaceMatchesModel(rt, ctx, mgr, name, active[name], lastWorkspace[name])
		}
	})
}

func assertWorkspaceMatchesModel(rt *rapid.T, ctx context.Context, mgr *Manager, name string, wantActive bool, lastWorkspace string) {
	rec, err := mgr.store.Get(ctx, name)
	require.NoError(rt, err)
	require.Equal(rt, wantActive, rec != nil, "state record presence for %q must match the model", name)

	if !wantActive {
		if lastWorkspace != "" {
			require.NoDirExists(rt, lastWorkspace)
		}
		return
	}
	require.Equal(rt, state.PhaseActive, rec.Phase)
	require.DirExists(rt, rec.WorkspacePath)
}

package session

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/para-dev/para/internal/config"
	"github.com/para-dev/para/internal/state"
	"github.com/para-dev/para/internal/status"
	"github.com/para-dev/para/internal/vcs"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	run("add", "-A")
	run("commit", "-m", "initial")
	return dir
}

func newTestManager(t *testing.T, repo string) *Manager {
	t.Helper()
	adapter, err := vcs.NewAdapter(repo)
	require.NoError(t, err)

	stateDir := filepath.Join(repo, ".para")
	store := state.NewFileStore(filepath.Join(stateDir, "sessions"))
	ch := status.NewFileChannel(filepath.Join(stateDir, "status"))

	cfg := &config.Config{
		Git:     config.GitConfig{BranchPrefix: "para"},
		Session: config.SessionConfig{DefaultIsolation: "none"},
		Sandbox: config.SandboxConfig{Profile: "standard"},
	}
	return New(cfg, repo, stateDir, adapter, store, ch)
}

func TestStartFinishHappyPath(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)
	mgr := newTestManager(t, repo)

	rec, err := mgr.Start(ctx, StartOptions{Name: "auth"})
	require.NoError(t, err)
	require.Equal(t, "para/auth", rec.Branch)
	require.Equal(t, state.PhaseActive, rec.Phase)
	require.DirExists(t, rec.WorkspacePath)

	require.NoError(t, os.WriteFile(filepath.Join(rec.WorkspacePath, "auth.go"), []byte("package auth\n"), 0o644))

	finished, err := mgr.Finish(ctx, "auth", "add auth", "")
	require.NoError(t, err)
	require.True(t, finished.Phase.IsArchived())
	require.Equal(t, "para/auth", finished.ReviewBranch)
	require.NoDirExists(t, rec.WorkspacePath)

	active, err := mgr.store.Get(ctx, "auth")
	require.NoError(t, err)
	require.Nil(t, active)

	logCmd := exec.Command("git", "log", "-1", "--pretty=%B", finished.LastCommit)
	logCmd.Dir = repo
	out, err := logCmd.CombinedOutput()
	require.NoError(t, err, string(out))
	require.Contains(t, string(out), "Para-Session: auth")
}

func TestFinishWithNoChangesFails(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)
	mgr := newTestManager(t, repo)

	_, err := mgr.Start(ctx, StartOptions{Name: "empty"})
	require.NoError(t, err)

	_, err = mgr.Finish(ctx, "empty", "nothing", "")
	require.ErrorIs(t, err, vcs.ErrNothingToCommit)
}

func TestCancelWithoutForceRefusesDirtyWorkspace(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)
	mgr := newTestManager(t, repo)

	rec, err := mgr.Start(ctx, StartOptions{Name: "dirty"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(rec.WorkspacePath, "wip.txt"), []byte("wip\n"), 0o644))

	_, err = mgr.Cancel(ctx, "dirty", false)
	require.ErrorIs(t, err, vcs.ErrDirtyWorktree)

	_, err = mgr.Cancel(ctx, "dirty", true)
	require.NoError(t, err)
}

func TestCancelThenRecover(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)
	mgr := newTestManager(t, repo)

	rec, err := mgr.Start(ctx, StartOptions{Name: "feature"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(rec.WorkspacePath, "partial.txt"), []byte("partial\n"), 0o644))

	// commit so cancel leaves a recoverable tip, but don't finish
	adapter, err := vcs.NewAdapter(repo)
	require.NoError(t, err)
	_, err = adapter.CommitAll(ctx, rec.WorkspacePath, "wip commit")
	require.NoError(t, err)

	cancelled, err := mgr.Cancel(ctx, "feature", false)
	require.NoError(t, err)
	require.Equal(t, state.PhaseArchivedCancelled, cancelled.Phase)
	require.NotEmpty(t, cancelled.LastCommit)

	recovered, err := mgr.Recover(ctx, "feature")
	require.NoError(t, err)
	require.Equal(t, state.PhaseActive, recovered.Phase)
	require.DirExists(t, recovered.WorkspacePath)
	require.FileExists(t, filepath.Join(recovered.WorkspacePath, "partial.txt"))
}

func TestResolveAgentUnknownNameErrors(t *testing.T) {
	_, err := resolveAgent("does-not-exist", "")
	require.Error(t, err)
}

func TestCleanRemovesOrphanedWorktree(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)
	mgr := newTestManager(t, repo)

	adapter, err := vcs.NewAdapter(repo)
	require.NoError(t, err)
	path, _, err := adapter.CreateWorkspace(ctx, "orphan", "main", "para/orphan")
	require.NoError(t, err)
	require.DirExists(t, path)

	result, err := mgr.Clean(ctx, false)
	require.NoError(t, err)
	require.Equal(t, []string{path}, result.OrphanedWorkspaces)
	require.NoDirExists(t, path)
}

func TestCleanWithoutForceSkipsDirtyOrphan(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)
	mgr := newTestManager(t, repo)

	adapter, err := vcs.NewAdapter(repo)
	require.NoError(t, err)
	path, _, err := adapter.CreateWorkspace(ctx, "orphan", "main", "para/orphan")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(path, "wip.txt"), []byte("wip\n"), 0o644))

	result, err := mgr.Clean(ctx, false)
	require.NoError(t, err)
	require.Equal(t, []string{path}, result.OrphanedWorkspaces)
	require.DirExists(t, path, "dirty orphan must survive a non-forced clean")

	result, err = mgr.Clean(ctx, true)
	require.NoError(t, err)
	require.Equal(t, []string{path}, result.OrphanedWorkspaces)
	require.NoDirExists(t, path)
}

func TestCleanArchivesMissingWorkspace(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)
	mgr := newTestManager(t, repo)

	rec, err := mgr.Start(ctx, StartOptions{Name: "vanished"})
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(rec.WorkspacePath))

	result, err := mgr.Clean(ctx, false)
	require.NoError(t, err)
	require.Equal(t, []string{"vanished"}, result.MissingWorkspaces)

	active, err := mgr.store.Get(ctx, "vanished")
	require.NoError(t, err)
	require.Nil(t, active)

	archived, err := mgr.store.GetArchived(ctx, "vanished")
	require.NoError(t, err)
	require.NotNil(t, archived)
	require.Equal(t, state.PhaseArchivedCancelled, archived.Phase)
}

func TestResolveSetupScriptPrefersOverride(t *testing.T) {
	repo := initRepo(t)
	mgr := newTestManager(t, repo)
	require.NoError(t, os.MkdirAll(mgr.stateDir, 0o755))
	modeScript := filepath.Join(mgr.stateDir, "setup-worktree.sh")
	require.NoError(t, os.WriteFile(modeScript, []byte("#!/bin/sh\n"), 0o755))

	got := mgr.resolveSetupScript(state.IsolationNone, "/override.sh")
	require.Equal(t, "/override.sh", got)
}

func TestResolveSetupScriptPicksModeSpecificOverGeneric(t *testing.T) {
	repo := initRepo(t)
	mgr := newTestManager(t, repo)
	require.NoError(t, os.MkdirAll(mgr.stateDir, 0o755))

	generic := filepath.Join(mgr.stateDir, "setup.sh")
	require.NoError(t, os.WriteFile(generic, []byte("#!/bin/sh\n"), 0o755))
	modeSpecific := filepath.Join(mgr.stateDir, "setup-docker.sh")
	require.NoError(t, os.WriteFile(modeSpecific, []byte("#!/bin/sh\n"), 0o755))

	got := mgr.resolveSetupScript(state.IsolationContainer, "")
	require.Equal(t, modeSpecific, got)
}

func TestResolveSetupScriptFallsBackToGeneric(t *testing.T) {
	repo := initRepo(t)
	mgr := newTestManager(t, repo)
	require.NoError(t, os.MkdirAll(mgr.stateDir, 0o755))

	generic := filepath.Join(mgr.stateDir, "setup.sh")
	require.NoError(t, os.WriteFile(generic, []byte("#!/bin/sh\n"), 0o755))

	got := mgr.resolveSetupScript(state.IsolationSandbox, "")
	require.Equal(t, generic, got)
}

func TestResolveSetupScriptFallsBackToConfig(t *testing.T) {
	repo := initRepo(t)
	mgr := newTestManager(t, repo)
	mgr.cfg.Session.SetupScript = "/configured/setup.sh"

	got := mgr.resolveSetupScript(state.IsolationNone, "")
	require.Equal(t, "/configured/setup.sh", got)
}

func TestRunSetupScriptOnHostSucceeds(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)
	mgr := newTestManager(t, repo)

	workDir := t.TempDir()
	script := filepath.Join(t.TempDir(), "setup.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ntouch \"$PARA_WORKSPACE/marker\"\n"), 0o755))

	rec := &state.Record{
		Name:          "setup-ok",
		WorkspacePath: workDir,
		AgentMeta:     &state.AgentMeta{SetupScript: script},
	}
	require.NoError(t, mgr.runSetupScriptOnHost(ctx, rec))
	_, err := os.Stat(filepath.Join(workDir, "marker"))
	require.NoError(t, err)
}

func TestRunSetupScriptOnHostPropagatesFailure(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)
	mgr := newTestManager(t, repo)

	workDir := t.TempDir()
	script := filepath.Join(t.TempDir(), "setup.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 1\n"), 0o755))

	rec := &state.Record{
		Name:          "setup-fail",
		WorkspacePath: workDir,
		AgentMeta:     &state.AgentMeta{SetupScript: script},
	}
	require.Error(t, mgr.runSetupScriptOnHost(ctx, rec))
}

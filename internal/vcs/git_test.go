package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
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

func TestCreateAndRemoveWorkspace(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)

	a, err := NewAdapter(repo)
	require.NoError(t, err)

	path, branch, err := a.CreateWorkspace(ctx, "feature-x", "main", "para/feature-x")
	require.NoError(t, err)
	require.Equal(t, "para/feature-x", branch)
	require.DirExists(t, path)

	infos, err := a.ListWorkspaces(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2) // main checkout + new workspace

	require.NoError(t, a.RemoveWorkspace(ctx, "feature-x", false))
	require.NoDirExists(t, path)
}

func TestCommitAllAndPromote(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)

	a, err := NewAdapter(repo)
	require.NoError(t, err)

	path, branch, err := a.CreateWorkspace(ctx, "feature-y", "main", "para/feature-y")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(path, "new.txt"), []byte("content\n"), 0o644))

	dirty, err := a.HasUncommitted(ctx, path)
	require.NoError(t, err)
	require.True(t, dirty)

	commitID, err := a.CommitAll(ctx, path, "add new.txt")
	require.NoError(t, err)
	require.NotEmpty(t, commitID)

	require.NoError(t, a.PromoteBranch(ctx, branch, "main"))

	tip, err := a.BranchTip(ctx, "main")
	require.NoError(t, err)
	require.Equal(t, commitID, tip)
}

func TestCommitAllNothingToCommit(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)

	a, err := NewAdapter(repo)
	require.NoError(t, err)

	_, err = a.CommitAll(ctx, repo, "no changes")
	require.ErrorIs(t, err, ErrNothingToCommit)
}

func TestResolveParentBranchReturnsCurrentBranch(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)

	a, err := NewAdapter(repo)
	require.NoError(t, err)

	branch, err := a.ResolveParentBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, "main", branch)
}

func TestResolveParentBranchReturnsCurrentFeatureBranch(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)

	checkout := exec.Command("git", "checkout", "-b", "feature-z")
	checkout.Dir = repo
	out, err := checkout.CombinedOutput()
	require.NoError(t, err, string(out))

	a, err := NewAdapter(repo)
	require.NoError(t, err)

	branch, err := a.ResolveParentBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, "feature-z", branch, "must parent new sessions on the actual checked-out branch, not main/master")
}

func TestResolveParentBranchFallsBackWhenDetached(t *testing.T) {
	ctx := context.Background()
	repo := initRepo(t)

	detach := exec.Command("git", "checkout", "--detach", "HEAD")
	detach.Dir = repo
	out, err := detach.CombinedOutput()
	require.NoError(t, err, string(out))

	a, err := NewAdapter(repo)
	require.NoError(t, err)

	branch, err := a.ResolveParentBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, "main", branch)
}

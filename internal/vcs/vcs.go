// Package vcs adapts para's session lifecycle to git. Read-only queries go
// through go-git; operations go-git handles unreliably or not at all
// (worktree add/remove, checkout, status respecting the user's global
// gitignore) shell out to the git binary. Each shell-out is commented with
// why go-git was not used, following the teacher's documented split.
package vcs

import (
	"context"

	paraerrors "github.com/para-dev/para/internal/errors"
)

// WorkspaceInfo describes one git worktree para knows about.
type WorkspaceInfo struct {
	Path   string
	Branch string
	Head   string
}

// Adapter is para's git abstraction. One Adapter is bound to a single
// repository (identified by its root, resolved once at construction).
type Adapter interface {
	// CreateWorkspace creates a new worktree at <worktrees dir>/<name> on a
	// new branch named branchName, based on parentBranch. Returns the
	// absolute workspace path and the branch actually checked out.
	CreateWorkspace(ctx context.Context, name, parentBranch, branchName string) (path, branch string, err error)

	// RemoveWorkspace removes the worktree for name. If force is false and
	// the worktree has uncommitted changes, RemoveWorkspace returns
	// ErrDirtyWorktree without removing anything.
	RemoveWorkspace(ctx context.Context, name string, force bool) error

	// CommitAll stages and commits every change in the workspace at path,
	// returning the new commit id. Returns ErrNothingToCommit if the
	// worktree is already clean.
	CommitAll(ctx context.Context, path, message string) (commitID string, err error)

	// PromoteBranch fast-forwards (or, if not possible, merges) from into
	// to, in the main working copy.
	PromoteBranch(ctx context.Context, from, to string) error

	// HasUncommitted reports whether the worktree at path has any
	// uncommitted changes, tracked or untracked.
	HasUncommitted(ctx context.Context, path string) (bool, error)

	// ListWorkspaces lists every worktree currently registered with git.
	ListWorkspaces(ctx context.Context) ([]WorkspaceInfo, error)

	// ResolveParentBranch returns the repository's default branch, used
	// when a session is created without an explicit parent.
	ResolveParentBranch(ctx context.Context) (string, error)

	// BranchExists reports whether a local branch with the given name
	// exists.
	BranchExists(ctx context.Context, name string) (bool, error)

	// BranchTip returns the commit id the given branch currently points
	// to.
	BranchTip(ctx context.Context, name string) (string, error)

	// DeleteBranch deletes a local branch. The caller must ensure it is
	// not checked out in any worktree (RemoveWorkspace first). Used by
	// cancel(), which discards both workspace and branch; finish() never
	// calls this, since its session branch lives on as the review branch.
	DeleteBranch(ctx context.Context, name string) error
}

// Sentinel errors, parsed out of git's stderr by parseGitError or returned
// directly when a precondition check fails. Each is an *errors.Error so
// callers can recover both Kind and an errors.Is-comparable identity.
var (
	ErrBranchExists    = paraerrors.New(paraerrors.KindVCS, "branch already exists")
	ErrPathExists      = paraerrors.New(paraerrors.KindVCS, "workspace path already exists")
	ErrDirtyWorktree   = paraerrors.New(paraerrors.KindPrecondition, "worktree has uncommitted changes")
	ErrNotGitRepo      = paraerrors.New(paraerrors.KindVCS, "not a git repository")
	ErrNothingToCommit = paraerrors.New(paraerrors.KindPrecondition, "nothing to commit")
	ErrWorktreeLocked  = paraerrors.New(paraerrors.KindVCS, "worktree is locked")
)

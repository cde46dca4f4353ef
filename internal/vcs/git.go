package vcs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	paraerrors "github.com/para-dev/para/internal/errors"
	"github.com/para-dev/para/internal/logging"
)

// GitAdapter implements Adapter against a single repository checkout.
type GitAdapter struct {
	repoRoot string
	repo     *gogit.Repository
}

// NewAdapter opens the git repository rooted at repoRoot.
func NewAdapter(repoRoot string) (*GitAdapter, error) {
	repo, err := gogit.PlainOpen(repoRoot)
	if err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindVCS, "open repository", err)
	}
	return &GitAdapter{repoRoot: repoRoot, repo: repo}, nil
}

// runGit shells out to the git binary. Used for every operation go-git
// handles unreliably or not at all: worktree management, checkout, and
// status (go-git's status does not respect the user's global gitignore,
// and its checkout has known untracked-file-deletion bugs upstream).
func (a *GitAdapter) runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), parseGitError(out.String(), err)
	}
	return out.String(), nil
}

// parseGitError maps git's stderr text to para's sentinel vcs errors so
// callers can react with errors.Is instead of string matching. The sentinel
// is kept as the message (via sentinelError) so that the identical Kind and
// Message still compare equal through errors.Is even though each call gets
// its own wrapped Cause.
func parseGitError(stderr string, cause error) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "already exists"):
		return sentinelError(ErrPathExists, cause)
	case strings.Contains(lower, "already checked out"):
		return sentinelError(ErrBranchExists, cause)
	case strings.Contains(lower, "is locked"):
		return sentinelError(ErrWorktreeLocked, cause)
	case strings.Contains(lower, "not a git repository"):
		return sentinelError(ErrNotGitRepo, cause)
	default:
		return paraerrors.Wrap(paraerrors.KindVCS, "git: "+strings.TrimSpace(stderr), cause)
	}
}

// sentinelError rewraps a package sentinel with a fresh Cause, preserving
// Kind and Message so errors.Is(err, sentinel) keeps working.
func sentinelError(sentinel *paraerrors.Error, cause error) error {
	return &paraerrors.Error{Kind: sentinel.Kind, Message: sentinel.Message, Cause: cause}
}

func (a *GitAdapter) CreateWorkspace(ctx context.Context, name, parentBranch, branchName string) (string, string, error) {
	path := filepath.Join(a.repoRoot, ".para", "worktrees", name)

	if parentBranch == "" {
		var err error
		parentBranch, err = a.ResolveParentBranch(ctx)
		if err != nil {
			return "", "", err
		}
	}

	if _, err := a.runGit(ctx, a.repoRoot, "worktree", "add", "-b", branchName, path, parentBranch); err != nil {
		return "", "", err
	}

	logging.Info(ctx, "created workspace", "path", path, "branch", branchName, "parent", parentBranch)
	return path, branchName, nil
}

func (a *GitAdapter) RemoveWorkspace(ctx context.Context, name string, force bool) error {
	path := filepath.Join(a.repoRoot, ".para", "worktrees", name)

	if !force {
		dirty, err := a.HasUncommitted(ctx, path)
		if err != nil {
			return err
		}
		if dirty {
			return ErrDirtyWorktree
		}
	}

	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)

	if _, err := a.runGit(ctx, a.repoRoot, args...); err != nil {
		return err
	}
	return nil
}

func (a *GitAdapter) CommitAll(ctx context.Context, path, message string) (string, error) {
	dirty, err := a.HasUncommitted(ctx, path)
	if err != nil {
		return "", err
	}
	if !dirty {
		return "", ErrNothingToCommit
	}

	if _, err := a.runGit(ctx, path, "add", "-A"); err != nil {
		return "", err
	}
	if _, err := a.runGit(ctx, path, "commit", "-m", message); err != nil {
		return "", err
	}
	out, err := a.runGit(ctx, path, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// PromoteBranch moves the `to` branch's tip to the `from` branch's tip. It
// only touches the ref, never a checked-out index: `to` must not be checked
// out in any worktree when this is called (para's session branches, unlike
// the repository's long-lived branches, are never promote targets).
func (a *GitAdapter) PromoteBranch(ctx context.Context, from, to string) error {
	tip, err := a.BranchTip(ctx, from)
	if err != nil {
		return err
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(to), plumbing.NewHash(tip))
	if err := a.repo.Storer.SetReference(ref); err != nil {
		return paraerrors.Wrap(paraerrors.KindVCS, fmt.Sprintf("promote %s onto %s", from, to), err)
	}
	return nil
}

func (a *GitAdapter) HasUncommitted(ctx context.Context, path string) (bool, error) {
	out, err := a.runGit(ctx, path, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func (a *GitAdapter) ListWorkspaces(ctx context.Context) ([]WorkspaceInfo, error) {
	out, err := a.runGit(ctx, a.repoRoot, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	var infos []WorkspaceInfo
	var cur WorkspaceInfo
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "worktree "):
			if cur.Path != "" {
				infos = append(infos, cur)
			}
			cur = WorkspaceInfo{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "HEAD "):
			cur.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		}
	}
	if cur.Path != "" {
		infos = append(infos, cur)
	}
	return infos, nil
}

// ResolveParentBranch returns the branch a new session should fork from:
// the repository's currently checked-out branch (spec.md §4.1/§4.5 step 2).
// HEAD detached is the only case that falls back to origin/HEAD, then to a
// local main/master, since there is no "current branch" to report.
func (a *GitAdapter) ResolveParentBranch(ctx context.Context) (string, error) {
	out, err := a.runGit(ctx, a.repoRoot, "symbolic-ref", "--short", "HEAD")
	if err == nil {
		return strings.TrimSpace(out), nil
	}

	if out, err := a.runGit(ctx, a.repoRoot, "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		return strings.TrimPrefix(strings.TrimSpace(out), "refs/remotes/origin/"), nil
	}

	for _, candidate := range []string{"main", "master"} {
		if exists, _ := a.BranchExists(ctx, candidate); exists {
			return candidate, nil
		}
	}
	return "", paraerrors.New(paraerrors.KindVCS, "could not determine default branch")
}

func (a *GitAdapter) BranchExists(ctx context.Context, name string) (bool, error) {
	_, err := a.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err == plumbing.ErrReferenceNotFound {
		return false, nil
	}
	if err != nil {
		return false, paraerrors.Wrap(paraerrors.KindVCS, "look up branch "+name, err)
	}
	return true, nil
}

func (a *GitAdapter) BranchTip(ctx context.Context, name string) (string, error) {
	ref, err := a.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		return "", paraerrors.Wrap(paraerrors.KindVCS, "resolve branch "+name, err)
	}
	return ref.Hash().String(), nil
}

func (a *GitAdapter) DeleteBranch(ctx context.Context, name string) error {
	if _, err := a.runGit(ctx, a.repoRoot, "branch", "-D", name); err != nil {
		return err
	}
	return nil
}

// Package paths resolves the on-disk layout para uses: the repository root,
// the state directory, per-workspace directories, and generated identifiers.
package paths

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/para-dev/para/internal/validate"
)

// StateDirName is the directory (relative to the repository root) where
// para keeps session state, the status channel, and its lock file.
const StateDirName = ".para"

// WorkspacesDirName is the directory (relative to the repository root)
// under which per-session worktrees are created.
const WorktreesDirName = ".para/worktrees"

var (
	repoRootMu    sync.RWMutex
	repoRootCache = map[string]string{}
)

// RepoRoot returns the absolute path to the root of the git repository
// containing the current working directory, shelling out to
// `git rev-parse --show-toplevel` and caching the result per cwd.
func RepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}

	repoRootMu.RLock()
	if root, ok := repoRootCache[cwd]; ok {
		repoRootMu.RUnlock()
		return root, nil
	}
	repoRootMu.RUnlock()

	cmd := exec.CommandContext(context.Background(), "git", "rev-parse", "--show-toplevel")
	cmd.Dir = cwd
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (or any parent): %w", err)
	}
	root := strings.TrimSpace(string(out))

	repoRootMu.Lock()
	repoRootCache[cwd] = root
	repoRootMu.Unlock()

	return root, nil
}

// ClearRepoRootCache drops all cached repo-root lookups. Tests that chdir
// between git repositories must call this between cases.
func ClearRepoRootCache() {
	repoRootMu.Lock()
	defer repoRootMu.Unlock()
	repoRootCache = map[string]string{}
}

// StateDir returns the absolute path to the repository's para state
// directory (<repo root>/.para).
func StateDir() (string, error) {
	root, err := RepoRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, StateDirName), nil
}

// WorkspacesDir returns the absolute path under which per-session worktrees
// live (<repo root>/.para/worktrees).
func WorkspacesDir() (string, error) {
	root, err := RepoRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, WorktreesDirName), nil
}

// WorkspacePath returns the absolute worktree path for a given session name.
// The name has already been validated by the caller (see internal/validate);
// this function re-validates defensively since it is a path boundary.
func WorkspacePath(name string) (string, error) {
	if err := validate.Name(name); err != nil {
		return "", err
	}
	dir, err := WorkspacesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GenerateID returns a random identifier, used for default session names,
// container labels, and lock-file tie-breaking where a human-readable name
// is not required.
func GenerateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate random id: %w", err)
	}
	return id.String(), nil
}

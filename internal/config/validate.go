package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/para-dev/para/internal/validate"
)

// Validate refuses configuration that would let a session start from a
// broken or insecure state (spec.md §4.3): an unknown sandbox profile, a
// directory override that escapes its configured root, an IDE launch
// requested with no IDE command configured, or a branch prefix that isn't a
// legal git ref component.
func Validate(cfg *Config, repoRoot string, launchIDE bool) error {
	switch cfg.Sandbox.Profile {
	case "standard", "standard-proxied":
	default:
		return fmt.Errorf("unknown sandbox profile %q (must be \"standard\" or \"standard-proxied\")", cfg.Sandbox.Profile)
	}

	if err := validate.BranchPrefix(cfg.Git.BranchPrefix); err != nil {
		return fmt.Errorf("invalid git branch prefix: %w", err)
	}

	if escapesRoot(repoRoot, cfg.Directories.StateDir) {
		return fmt.Errorf("directories.state_dir %q escapes its repository root", cfg.Directories.StateDir)
	}
	if escapesRoot(repoRoot, cfg.Directories.WorktreesDir) {
		return fmt.Errorf("directories.worktrees_dir %q escapes its repository root", cfg.Directories.WorktreesDir)
	}

	if launchIDE && cfg.IDE.Command == "" {
		return fmt.Errorf("ide launch requested but ide.command is not configured")
	}

	return nil
}

// escapesRoot reports whether a relative directory override, once joined
// onto root, resolves outside of root. An absolute override is treated as
// an explicit choice and is never rejected here.
func escapesRoot(root, rel string) bool {
	if rel == "" || filepath.IsAbs(rel) {
		return false
	}
	joined := filepath.Join(root, rel)
	back, err := filepath.Rel(root, joined)
	if err != nil {
		return true
	}
	return back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator))
}

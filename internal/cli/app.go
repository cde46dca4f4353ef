package cli

import (
	"path/filepath"

	"github.com/para-dev/para/internal/config"
	"github.com/para-dev/para/internal/paths"
	"github.com/para-dev/para/internal/session"
	"github.com/para-dev/para/internal/state"
	"github.com/para-dev/para/internal/status"
	"github.com/para-dev/para/internal/vcs"
)

// statusDirName is the Status Channel's subdirectory under the state
// directory (spec.md §4.6).
const statusDirName = "status"

// newManager resolves the repository root and config, then wires a
// session.Manager over real VCS, state, and status backends. Every
// subcommand calls this once before dispatching to Manager.
func newManager() (*session.Manager, *config.Config, error) {
	repoRoot, err := paths.RepoRoot()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Resolve(repoRoot)
	if err != nil {
		return nil, nil, err
	}

	stateDir, err := resolveStateDir(repoRoot, cfg)
	if err != nil {
		return nil, nil, err
	}

	adapter, err := vcs.NewAdapter(repoRoot)
	if err != nil {
		return nil, nil, err
	}
	store := state.NewFileStore(stateDir)
	ch := status.NewFileChannel(filepath.Join(stateDir, statusDirName))

	mgr := session.New(cfg, repoRoot, stateDir, adapter, store, ch)
	return mgr, cfg, nil
}

// resolveStateDir honors cfg.Directories.StateDir as an override (relative
// paths are resolved against repoRoot), falling back to the XDG-style
// default from paths.StateDir.
func resolveStateDir(repoRoot string, cfg *config.Config) (string, error) {
	stateDir := cfg.Directories.StateDir
	if stateDir == "" {
		return paths.StateDir()
	}
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(repoRoot, stateDir)
	}
	return stateDir, nil
}

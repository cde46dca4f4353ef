// Package config resolves para's configuration from two layered JSON files:
// a global user config (~/.config/para/config.json) and a project config
// (<repo root>/.para/config.json). Project values override global values
// field-by-field, except for a small set of list-valued fields that are
// unioned instead of replaced (see Resolve).
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is para's fully-resolved configuration.
type Config struct {
	IDE         IDEConfig     `mapstructure:"ide"`
	Directories DirConfig     `mapstructure:"directories"`
	Git         GitConfig     `mapstructure:"git"`
	Session     SessionConfig `mapstructure:"session"`
	Docker      DockerConfig  `mapstructure:"docker"`
	Sandbox     SandboxConfig `mapstructure:"sandbox"`
}

// IDEConfig controls which editor para opens for a session, if any.
type IDEConfig struct {
	Command string `mapstructure:"command"` // e.g. "code", "cursor"; empty disables auto-open
	Args    []string `mapstructure:"args"`
}

// DirConfig overrides para's default directory layout.
type DirConfig struct {
	StateDir      string `mapstructure:"state_dir"`      // default: <repo>/.para
	WorktreesDir  string `mapstructure:"worktrees_dir"`   // default: <repo>/.para/worktrees
	SubtreePrefix string `mapstructure:"subtree_prefix"`  // used only by non-worktree backends, if ever added
}

// GitConfig controls branch naming and worktree behaviour.
type GitConfig struct {
	BranchPrefix    string `mapstructure:"branch_prefix"`     // default: "para/"
	DefaultBase     string `mapstructure:"default_base"`      // empty = detect repo default branch
	AutoCommitOnFin bool   `mapstructure:"auto_commit_on_fin"` // commit-all is still required; this only skips the confirmation prompt
}

// SessionConfig controls default session behaviour.
type SessionConfig struct {
	DefaultAgent            string   `mapstructure:"default_agent"`
	ForwardEnvKeys          []string `mapstructure:"forward_env_keys"`           // set-union merged across config layers
	DefaultIsolation        string   `mapstructure:"default_isolation"`          // "none" | "sandbox" | "container"
	Telemetry               bool     `mapstructure:"telemetry"`                  // opt-in; off by default unlike the teacher
	SetupScript             string   `mapstructure:"setup_script"`               // fallback when no setup-<mode>.sh/setup.sh exists under the state dir
	StatusStaleAfterSeconds int      `mapstructure:"status_stale_after_seconds"` // a status report older than this is shown as stale by the monitor
}

// DockerConfig controls the container isolation provider.
type DockerConfig struct {
	Image      string `mapstructure:"image"`
	Host       string `mapstructure:"host"` // DOCKER_HOST override; empty uses client defaults
	AutoRemove bool   `mapstructure:"auto_remove"`
}

// SandboxConfig controls the OS sandbox isolation provider.
type SandboxConfig struct {
	Profile        string   `mapstructure:"profile"`         // "standard" | "standard-proxied"; Validate rejects anything else
	AllowedDomains []string `mapstructure:"allowed_domains"` // set-union merged across config layers; used by the "standard-proxied" sandbox profile and, when non-empty, the container provider's firewall init
}

func defaults() Config {
	return Config{
		Git: GitConfig{
			BranchPrefix: "para/",
		},
		Session: SessionConfig{
			DefaultAgent:            "claude-code",
			DefaultIsolation:        "none",
			StatusStaleAfterSeconds: 300,
		},
		Docker: DockerConfig{
			AutoRemove: true,
		},
		Sandbox: SandboxConfig{
			Profile: "standard",
		},
	}
}

// GlobalConfigPath returns the user-level config file path
// (~/.config/para/config.json), honoring XDG_CONFIG_HOME.
func GlobalConfigPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "para", "config.json"), nil
}

// ProjectConfigPath returns the project-level config file path
// (<repo root>/.para/config.json).
func ProjectConfigPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".para", "config.json")
}

// Resolve loads and merges the global and project config files using viper,
// with defaults from defaults(). Fields absent from both files keep their
// default. ForwardEnvKeys and AllowedDomains are unioned across both layers
// instead of letting the project value replace the global value outright —
// viper's own merge is last-value-wins, which would silently drop global
// entries a user expects to always apply (e.g. an org-wide allowed domain).
func Resolve(repoRoot string) (*Config, error) {
	globalPath, err := GlobalConfigPath()
	if err != nil {
		return nil, err
	}
	projectPath := ProjectConfigPath(repoRoot)

	def := defaults()
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigType("json")
	setDefaults(v, def)

	globalKeys, err := mergeFile(v, globalPath)
	if err != nil {
		return nil, err
	}
	projectKeys, err := mergeFile(v, projectPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse merged config: %w", err)
	}

	cfg.Session.ForwardEnvKeys = union(globalKeys.forwardEnvKeys, projectKeys.forwardEnvKeys)
	cfg.Sandbox.AllowedDomains = union(globalKeys.allowedDomains, projectKeys.allowedDomains)

	return &cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("ide::command", def.IDE.Command)
	v.SetDefault("git::branch_prefix", def.Git.BranchPrefix)
	v.SetDefault("git::default_base", def.Git.DefaultBase)
	v.SetDefault("git::auto_commit_on_fin", def.Git.AutoCommitOnFin)
	v.SetDefault("session::default_agent", def.Session.DefaultAgent)
	v.SetDefault("session::default_isolation", def.Session.DefaultIsolation)
	v.SetDefault("session::telemetry", def.Session.Telemetry)
	v.SetDefault("session::status_stale_after_seconds", def.Session.StatusStaleAfterSeconds)
	v.SetDefault("docker::auto_remove", def.Docker.AutoRemove)
	v.SetDefault("sandbox::profile", def.Sandbox.Profile)
}

// layerKeys holds the raw set-union fields read from one config layer,
// before viper's last-value-wins merge has discarded the other layer's copy.
type layerKeys struct {
	forwardEnvKeys []string
	allowedDomains []string
}

func mergeFile(v *viper.Viper, path string) (layerKeys, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from trusted config locations
	if os.IsNotExist(err) {
		return layerKeys{}, nil
	}
	if err != nil {
		return layerKeys{}, fmt.Errorf("read config %s: %w", path, err)
	}

	layer := viper.NewWithOptions(viper.KeyDelimiter("::"))
	layer.SetConfigType("json")
	if err := layer.ReadConfig(bytes.NewReader(data)); err != nil {
		return layerKeys{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
		return layerKeys{}, fmt.Errorf("merge config %s: %w", path, err)
	}

	return layerKeys{
		forwardEnvKeys: layer.GetStringSlice("session::forward_env_keys"),
		allowedDomains: layer.GetStringSlice("sandbox::allowed_domains"),
	}, nil
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

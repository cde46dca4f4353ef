package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestResolveDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	repo := t.TempDir()

	cfg, err := Resolve(repo)
	require.NoError(t, err)
	require.Equal(t, "para/", cfg.Git.BranchPrefix)
	require.Equal(t, "standard", cfg.Sandbox.Profile)
	require.Equal(t, "none", cfg.Session.DefaultIsolation)
}

func TestResolveProjectOverridesGlobal(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	repo := t.TempDir()

	writeJSON(t, filepath.Join(xdg, "para", "config.json"), map[string]any{
		"git": map[string]any{"branch_prefix": "global/"},
	})
	writeJSON(t, ProjectConfigPath(repo), map[string]any{
		"git": map[string]any{"branch_prefix": "project/"},
	})

	cfg, err := Resolve(repo)
	require.NoError(t, err)
	require.Equal(t, "project/", cfg.Git.BranchPrefix)
}

func TestResolveUnionsListFields(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	repo := t.TempDir()

	writeJSON(t, filepath.Join(xdg, "para", "config.json"), map[string]any{
		"sandbox": map[string]any{"allowed_domains": []string{"org.internal"}},
	})
	writeJSON(t, ProjectConfigPath(repo), map[string]any{
		"sandbox": map[string]any{"allowed_domains": []string{"registry.npmjs.org"}},
	})

	cfg, err := Resolve(repo)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"org.internal", "registry.npmjs.org"}, cfg.Sandbox.AllowedDomains)
}

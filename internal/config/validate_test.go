package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := defaults()
	return &cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, Validate(validConfig(), "/repo", false))
}

func TestValidateRejectsUnknownSandboxProfile(t *testing.T) {
	cfg := validConfig()
	cfg.Sandbox.Profile = "readonly"
	require.Error(t, Validate(cfg, "/repo", false))
}

func TestValidateRejectsInvalidBranchPrefix(t *testing.T) {
	cfg := validConfig()
	cfg.Git.BranchPrefix = "../escape"
	require.Error(t, Validate(cfg, "/repo", false))
}

func TestValidateRejectsEscapingStateDir(t *testing.T) {
	cfg := validConfig()
	cfg.Directories.StateDir = "../../outside"
	require.Error(t, Validate(cfg, "/repo", false))
}

func TestValidateAllowsAbsoluteStateDir(t *testing.T) {
	cfg := validConfig()
	cfg.Directories.StateDir = "/var/para-state"
	require.NoError(t, Validate(cfg, "/repo", false))
}

func TestValidateRejectsLaunchIDEWithoutCommand(t *testing.T) {
	cfg := validConfig()
	require.Error(t, Validate(cfg, "/repo", true))

	cfg.IDE.Command = "code"
	require.NoError(t, Validate(cfg, "/repo", true))
}

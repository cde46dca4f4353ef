package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/para-dev/para/internal/config"
)

func TestResolveStateDir_RelativeOverride(t *testing.T) {
	cfg := &config.Config{Directories: config.DirConfig{StateDir: ".custom-para"}}
	got, err := resolveStateDir("/repo", cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/repo", ".custom-para"), got)
}

func TestResolveStateDir_AbsoluteOverride(t *testing.T) {
	cfg := &config.Config{Directories: config.DirConfig{StateDir: "/var/para-state"}}
	got, err := resolveStateDir("/repo", cfg)
	require.NoError(t, err)
	assert.Equal(t, "/var/para-state", got)
}

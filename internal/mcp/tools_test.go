package mcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/para-dev/para/internal/state"
)

func TestSummarize(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := &state.Record{
		Name:          "feature-x",
		Branch:        "para/feature-x",
		WorkspacePath: "/repo/.para/worktrees/feature-x",
		Phase:         state.Phase("active"),
		Isolation:     state.IsolationMode("sandbox"),
		CreatedAt:     created,
		LastActivity:  created,
		LastCommit:    "abc123",
		ReviewBranch:  "review/feature-x",
	}

	got := summarize(rec)

	assert.Equal(t, "feature-x", got.Name)
	assert.Equal(t, "para/feature-x", got.Branch)
	assert.Equal(t, "/repo/.para/worktrees/feature-x", got.WorkspacePath)
	assert.Equal(t, "active", got.Phase)
	assert.Equal(t, "sandbox", got.Isolation)
	assert.Equal(t, "abc123", got.LastCommit)
	assert.Equal(t, "review/feature-x", got.ReviewBranch)
	assert.Contains(t, got.CreatedAt, "2026-01-02T03:04:05")
}

func TestParseScope(t *testing.T) {
	cases := map[string]state.Scope{
		"":         state.ScopeActive,
		"active":   state.ScopeActive,
		"archived": state.ScopeArchived,
		"all":      state.ScopeAll,
	}
	for in, want := range cases {
		got, err := parseScope(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseScope_Unknown(t *testing.T) {
	_, err := parseScope("bogus")
	assert.Error(t, err)
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/para-dev/para/internal/state"
)

func TestParseScopeFlag(t *testing.T) {
	cases := map[string]state.Scope{
		"":         state.ScopeActive,
		"active":   state.ScopeActive,
		"archived": state.ScopeArchived,
		"all":      state.ScopeAll,
	}
	for in, want := range cases {
		got, err := parseScopeFlag(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseScopeFlag_Unknown(t *testing.T) {
	_, err := parseScopeFlag("bogus")
	assert.Error(t, err)
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/para-dev/para/internal/status"
)

func TestParseTestStatus(t *testing.T) {
	cases := map[string]status.TestStatus{
		"passed":  status.TestsPassed,
		"failed":  status.TestsFailed,
		"unknown": status.TestsUnknown,
	}
	for in, want := range cases {
		got, err := parseTestStatus(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseTestStatus_Unknown(t *testing.T) {
	_, err := parseTestStatus("flaky")
	assert.Error(t, err)
}

package jsonutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalIndentWithNewlineAddsTrailingNewline(t *testing.T) {
	data, err := MarshalIndentWithNewline(map[string]string{"name": "feature-x"}, "", "  ")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(string(data), "\n"))
	assert.Contains(t, string(data), "\"name\": \"feature-x\"")
}

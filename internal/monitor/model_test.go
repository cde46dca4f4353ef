package monitor

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/para-dev/para/internal/state"
	"github.com/para-dev/para/internal/status"
)

func TestToTableRows(t *testing.T) {
	activity := time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC)
	rows := []Row{
		{
			Name:         "feature-x",
			Phase:        state.Phase("active"),
			Branch:       "para/feature-x",
			Isolation:    state.IsolationMode("sandbox"),
			Task:         "writing tests",
			Tests:        status.TestsPassed,
			Todos:        status.Todos{Completed: 2, Total: 5},
			Blocked:      true,
			Stale:        true,
			LastActivity: activity,
		},
		{
			Name:         "feature-y",
			Phase:        state.Phase("active"),
			Branch:       "para/feature-y",
			Isolation:    state.IsolationMode("none"),
			Tests:        status.TestsUnknown,
			LastActivity: activity,
		},
	}

	out := toTableRows(rows)
	require.Len(t, out, 2)

	assert.Equal(t, table.Row{"feature-x", "active", "para/feature-x", "sandbox", "writing tests", "passed", "2/5", "blocked,stale", "09:30:00"}, out[0])
	assert.Equal(t, table.Row{"feature-y", "active", "para/feature-y", "none", "-", "unknown", "-", "-", "09:30:00"}, out[1])
}

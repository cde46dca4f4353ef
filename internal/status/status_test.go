package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteReadList(t *testing.T) {
	ctx := context.Background()
	ch := NewFileChannel(t.TempDir())

	r := Report{
		SessionName: "feature-x",
		Task:        "editing file.go",
		Tests:       TestsPassed,
		Todos:       Todos{Completed: 2, Total: 5},
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, ch.Write(ctx, r))

	got, err := ch.Read(ctx, "feature-x")
	require.NoError(t, err)
	require.Equal(t, TestsPassed, got.Tests)
	require.Equal(t, Todos{Completed: 2, Total: 5}, got.Todos)
	require.False(t, got.Blocked)

	list, err := ch.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, ch.Remove(ctx, "feature-x"))
	got, err = ch.Read(ctx, "feature-x")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestReadMissingIsNotError(t *testing.T) {
	ch := NewFileChannel(t.TempDir())
	r, err := ch.Read(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.Nil(t, r)
}

func TestStale(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	fresh := Report{UpdatedAt: now.Add(-1 * time.Minute)}
	require.False(t, fresh.Stale(now, 5*time.Minute))

	old := Report{UpdatedAt: now.Add(-10 * time.Minute)}
	require.True(t, old.Stale(now, 5*time.Minute))
}

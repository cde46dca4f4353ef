package status

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventLogAppendAndFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "feature-x.jsonl")

	log, err := OpenEventLog(path)
	require.NoError(t, err)

	require.NoError(t, log.Append(Event{SessionName: "feature-x", Kind: "start", Detail: "branch=para/feature-x", At: time.Now()}))
	require.NoError(t, log.Append(Event{SessionName: "feature-x", Kind: "finish", At: time.Now()}))

	// Not yet flushed (below threshold, ticker hasn't fired): forcing a
	// Flush should still make both events durable before Close.
	require.NoError(t, log.Flush())
	require.NoError(t, log.Close())

	f, err := os.Open(path) //nolint:gosec // test-owned temp path
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 2)
	require.Equal(t, "start", events[0].Kind)
	require.Equal(t, "branch=para/feature-x", events[0].Detail)
	require.Equal(t, "finish", events[1].Kind)
	require.Zero(t, log.ErrorCount())
}

func TestEventLogCloseIsIdempotentSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feature-y.jsonl")
	log, err := OpenEventLog(path)
	require.NoError(t, err)

	require.NoError(t, log.Close())
	require.ErrorIs(t, log.Close(), os.ErrClosed)
	require.ErrorIs(t, log.Append(Event{SessionName: "feature-y", Kind: "start", At: time.Now()}), os.ErrClosed)
}

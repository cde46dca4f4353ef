package versioncheck

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOutdated(t *testing.T) {
	cases := []struct {
		current, latest string
		want             bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.0", "1.1.0", true},
		{"1.0.0", "2.0.0", true},
		{"1.0.1", "1.0.0", false},
		{"1.0.0", "1.0.0", false},
		{"v1.0.0", "v1.0.1", true},
		{"1.0.0", "v1.0.1", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isOutdated(c.current, c.latest), "isOutdated(%q, %q)", c.current, c.latest)
	}
}

func newVersionServer(t *testing.T, version string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GitHubRelease{TagName: version})
	}))
	t.Cleanup(server.Close)
	return server
}

// setupCheckAndNotifyTest isolates the cache under a temp HOME and points
// githubAPIURL at a local test server, so no test touches the real network
// or the invoking user's actual config directory.
func setupCheckAndNotifyTest(t *testing.T, serverURL string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	orig := githubAPIURL
	githubAPIURL = serverURL
	t.Cleanup(func() { githubAPIURL = orig })

	var buf bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestCheckAndNotify_SkipsHiddenCommand(t *testing.T) {
	server := newVersionServer(t, "v9.9.9")
	cmd, buf := setupCheckAndNotifyTest(t, server.URL)
	cmd.Hidden = true

	CheckAndNotify(cmd, "1.0.0")

	assert.Zero(t, buf.Len())
}

func TestCheckAndNotify_SkipsDevAndEmptyVersion(t *testing.T) {
	server := newVersionServer(t, "v9.9.9")

	cmd, buf := setupCheckAndNotifyTest(t, server.URL)
	CheckAndNotify(cmd, "dev")
	assert.Zero(t, buf.Len())

	cmd2, buf2 := setupCheckAndNotifyTest(t, server.URL)
	CheckAndNotify(cmd2, "")
	assert.Zero(t, buf2.Len())
}

func TestCheckAndNotify_PrintsNotificationWhenOutdated(t *testing.T) {
	server := newVersionServer(t, "v9.9.9")
	cmd, buf := setupCheckAndNotifyTest(t, server.URL)

	CheckAndNotify(cmd, "1.0.0")

	assert.Contains(t, buf.String(), "v9.9.9")
	assert.Contains(t, buf.String(), "1.0.0")
}

func TestCheckAndNotify_SkipsWhenCacheIsFresh(t *testing.T) {
	server := newVersionServer(t, "v9.9.9")
	cmd, buf := setupCheckAndNotifyTest(t, server.URL)

	require.NoError(t, ensureConfigDir())
	require.NoError(t, saveCache(&VersionCache{LastCheckTime: time.Now()}))

	CheckAndNotify(cmd, "1.0.0")

	assert.Zero(t, buf.Len())
}

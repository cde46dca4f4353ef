// Package versioncheck periodically checks GitHub for a newer para release
// and prints a one-line notice, throttled to once per 24 hours via a cache
// file in the user's global config directory.
package versioncheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/para-dev/para/internal/atomicfile"
	"github.com/para-dev/para/internal/jsonutil"
	"github.com/para-dev/para/internal/logging"
)

// VersionCache is the on-disk record of when para last checked for updates.
type VersionCache struct {
	LastCheckTime time.Time `json:"last_check_time"`
}

// GitHubRelease is the subset of GitHub's release API response this package
// reads.
type GitHubRelease struct {
	TagName    string `json:"tag_name"`
	Prerelease bool   `json:"prerelease"`
}

// githubAPIURL is a var, not a const, so tests can point it at a fake server.
var githubAPIURL = "https://api.github.com/repos/para-dev/para/releases/latest"

const (
	checkInterval = 24 * time.Hour
	httpTimeout   = 2 * time.Second
	cacheFileName = "version_check.json"
	configDirName = ".config/para"
)

// CheckAndNotify checks for a newer release and prints a notice to cmd's
// stdout if one is found. Silent on every error: a failed version check
// must never interrupt or fail a para invocation. Skipped for hidden
// commands (internal plumbing like `para status`) and dev builds.
func CheckAndNotify(cmd *cobra.Command, currentVersion string) {
	if cmd.Hidden || currentVersion == "" || currentVersion == "dev" {
		return
	}

	if err := ensureConfigDir(); err != nil {
		return
	}

	cache, err := loadCache()
	if err != nil {
		cache = &VersionCache{}
	}
	if time.Since(cache.LastCheckTime) < checkInterval {
		return
	}

	latest, fetchErr := fetchLatestVersion()

	cache.LastCheckTime = time.Now()
	if err := saveCache(cache); err != nil {
		logging.Debug(context.Background(), "version check: failed to save cache", "error", err.Error())
	}

	if fetchErr != nil {
		logging.Debug(context.Background(), "version check: failed to fetch latest version", "error", fetchErr.Error())
		return
	}

	if isOutdated(currentVersion, latest) {
		printNotification(cmd, currentVersion, latest)
	}
}

func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

func ensureConfigDir() error {
	dir, err := configDirPath()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755) //nolint:gosec // ~/.config/para is user home
}

func cacheFilePath() (string, error) {
	dir, err := configDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheFileName), nil
}

func loadCache() (*VersionCache, error) {
	path, err := cacheFilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // cacheFilePath is derived, not user input
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}
	var cache VersionCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing cache: %w", err)
	}
	return &cache, nil
}

func saveCache(cache *VersionCache) error {
	path, err := cacheFilePath()
	if err != nil {
		return err
	}
	data, err := jsonutil.MarshalIndentWithNewline(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	return atomicfile.Write(path, data)
}

func fetchLatestVersion() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubAPIURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "para-cli")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return parseGitHubRelease(body)
}

func parseGitHubRelease(body []byte) (string, error) {
	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", fmt.Errorf("parsing JSON: %w", err)
	}
	if release.Prerelease {
		return "", errors.New("only prerelease versions available")
	}
	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}
	return release.TagName, nil
}

func isOutdated(current, latest string) bool {
	if !strings.HasPrefix(current, "v") {
		current = "v" + current
	}
	if !strings.HasPrefix(latest, "v") {
		latest = "v" + latest
	}
	return semver.Compare(current, latest) < 0
}

func printNotification(cmd *cobra.Command, current, latest string) {
	fmt.Fprintf(cmd.OutOrStdout(), "\nA newer version of para is available: %s (current: %s)\nRun 'go install github.com/para-dev/para/cmd/para@latest' to update.\n",
		latest, current)
}

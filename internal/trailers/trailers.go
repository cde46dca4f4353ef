// Package trailers formats and parses the git trailer para stamps on a
// session's finish commit, identifying which session produced it.
package trailers

import (
	"fmt"
	"regexp"
	"strings"
)

// SessionTrailerKey is the git trailer key linking a commit back to the
// para session that created it.
const SessionTrailerKey = "Para-Session"

var sessionTrailerRegex = regexp.MustCompile(SessionTrailerKey + `:\s*(.+)`)

// FormatSession appends a Para-Session trailer to message, in the git
// trailer convention (blank line, then "Key: value").
func FormatSession(message, sessionName string) string {
	return fmt.Sprintf("%s\n\n%s: %s\n", message, SessionTrailerKey, sessionName)
}

// ParseSession extracts the session name from a commit message's
// Para-Session trailer, if present.
func ParseSession(commitMessage string) (string, bool) {
	matches := sessionTrailerRegex.FindStringSubmatch(commitMessage)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1]), true
	}
	return "", false
}

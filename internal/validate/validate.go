// Package validate provides path-safe format checks for identifiers that are
// turned into filesystem paths or git branch names. It has no dependencies
// on the rest of para to avoid import cycles: every package that needs to
// validate an identifier can import validate without pulling in state,
// config, or vcs.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// pathSafeRegex matches identifiers safe to embed in a filesystem path or
// branch name component: no path separators, no "..", no shell metacharacters.
var pathSafeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const maxNameLength = 128

// Name validates a session name used as a workspace directory name and
// branch suffix.
func Name(name string) error {
	return pathSafe("session name", name)
}

// Branch validates a git branch name component para generates itself
// (not user-supplied upstream branch names, which git itself validates).
func Branch(branch string) error {
	return pathSafe("branch name", branch)
}

// AgentID validates an agent-reported identifier (session id, tool-call id)
// before it is used to build a log or transcript file path.
func AgentID(id string) error {
	return pathSafe("agent identifier", id)
}

// BranchPrefix validates a configured branch-name prefix (e.g. "para/" or
// "team-x"). Unlike Branch it allows an internal "/" as a git namespace
// separator, but every segment it produces must still be path-safe.
func BranchPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("branch prefix must not be empty")
	}
	if len(prefix) > maxNameLength {
		return fmt.Errorf("branch prefix exceeds maximum length of %d characters", maxNameLength)
	}
	for _, seg := range strings.Split(strings.TrimSuffix(prefix, "/"), "/") {
		if seg == "" || !pathSafeRegex.MatchString(seg) {
			return fmt.Errorf("branch prefix %q contains an invalid path segment %q", prefix, seg)
		}
	}
	return nil
}

func pathSafe(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%s must not be empty", kind)
	}
	if len(value) > maxNameLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters", kind, maxNameLength)
	}
	if !pathSafeRegex.MatchString(value) {
		return fmt.Errorf("%s %q contains invalid characters (only letters, digits, '-', '_' allowed)", kind, value)
	}
	return nil
}

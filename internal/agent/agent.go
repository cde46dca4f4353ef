// Package agent provides interfaces and types for launching AI coding
// agents inside a session's workspace. It abstracts agent-specific launch
// and resume argv construction so the Session Manager never needs to know
// which agent CLI a session uses.
//
// Grounded on cmd/entire/cli/agent/{agent.go,registry.go}: the same
// registry-of-factories shape, trimmed to what Para needs (launch/resume
// argv construction) and without the teacher's hook-transcript condensation
// machinery, which has no Para analogue -- Para never rewrites commit
// history from an agent transcript.
package agent

import "context"

// TaskOrigin describes the task a session was started with, in whichever
// form the caller supplied it.
type TaskOrigin struct {
	Prompt string // inline prompt text, empty if FilePath is set
	File   string // path to a file containing the prompt, empty if Prompt is set
}

// LaunchCommand is an argv/env pair ready to be wrapped by an isolation
// Provider and executed.
type LaunchCommand struct {
	Path string
	Args []string
	Env  []string
}

// Agent knows how to build the command line for one AI coding CLI.
type Agent interface {
	// Name returns the agent identifier (e.g. "claude-code", "gemini").
	Name() string

	// DetectPresence reports whether this agent's CLI binary is available
	// on PATH.
	DetectPresence() (bool, error)

	// BuildLaunchCommand builds the argv to start the agent fresh in
	// workspacePath with the given task. task may be zero-valued, in which
	// case the agent starts with no initial prompt.
	BuildLaunchCommand(ctx context.Context, workspacePath string, task TaskOrigin) (LaunchCommand, error)

	// BuildResumeCommand builds the argv to reattach to the agent's own
	// session state inside workspacePath (e.g. `claude --resume`),
	// optionally appending new task context.
	BuildResumeCommand(ctx context.Context, workspacePath string, task TaskOrigin) (LaunchCommand, error)
}

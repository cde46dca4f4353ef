// Package claudecode implements agent.Agent for Claude Code.
package claudecode

import (
	"context"
	"os/exec"

	"github.com/para-dev/para/internal/agent"
)

func init() {
	agent.Register(Name, New)
}

// Name is the registry key for this agent.
const Name = "claude-code"

// Agent implements agent.Agent for Anthropic's claude CLI.
type Agent struct{}

// New creates a new Claude Code agent instance.
func New() agent.Agent { return &Agent{} }

func (a *Agent) Name() string { return Name }

// DetectPresence reports whether the claude binary is on PATH.
func (a *Agent) DetectPresence() (bool, error) {
	_, err := exec.LookPath("claude")
	return err == nil, nil
}

// BuildLaunchCommand starts claude fresh, passing the task (if any) as an
// initial prompt argument.
func (a *Agent) BuildLaunchCommand(_ context.Context, workspacePath string, task agent.TaskOrigin) (agent.LaunchCommand, error) {
	args := []string{}
	if prompt, ok, err := resolvePrompt(task); err != nil {
		return agent.LaunchCommand{}, err
	} else if ok {
		args = append(args, prompt)
	}
	return agent.LaunchCommand{Path: "claude", Args: args, Env: nil}, nil
}

// BuildResumeCommand reattaches to claude's own session state for the
// workspace via --continue, optionally appending new task context.
func (a *Agent) BuildResumeCommand(_ context.Context, workspacePath string, task agent.TaskOrigin) (agent.LaunchCommand, error) {
	args := []string{"--continue"}
	if prompt, ok, err := resolvePrompt(task); err != nil {
		return agent.LaunchCommand{}, err
	} else if ok {
		args = append(args, prompt)
	}
	return agent.LaunchCommand{Path: "claude", Args: args, Env: nil}, nil
}

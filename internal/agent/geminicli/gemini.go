// Package geminicli implements agent.Agent for Gemini CLI.
package geminicli

import (
	"context"
	"os"
	"os/exec"

	"github.com/para-dev/para/internal/agent"
	paraerrors "github.com/para-dev/para/internal/errors"
)

func init() {
	agent.Register(Name, New)
}

// Name is the registry key for this agent.
const Name = "gemini"

// Agent implements agent.Agent for Google's gemini CLI.
type Agent struct{}

// New creates a new Gemini CLI agent instance.
func New() agent.Agent { return &Agent{} }

func (a *Agent) Name() string { return Name }

// DetectPresence reports whether the gemini binary is on PATH.
func (a *Agent) DetectPresence() (bool, error) {
	_, err := exec.LookPath("gemini")
	return err == nil, nil
}

// BuildLaunchCommand starts gemini fresh with an initial prompt, if any.
func (a *Agent) BuildLaunchCommand(_ context.Context, _ string, task agent.TaskOrigin) (agent.LaunchCommand, error) {
	args := []string{}
	if prompt, ok, err := resolvePrompt(task); err != nil {
		return agent.LaunchCommand{}, err
	} else if ok {
		args = append(args, "--prompt", prompt)
	}
	return agent.LaunchCommand{Path: "gemini", Args: args, Env: nil}, nil
}

// BuildResumeCommand reattaches to gemini's checkpointed session.
func (a *Agent) BuildResumeCommand(_ context.Context, _ string, task agent.TaskOrigin) (agent.LaunchCommand, error) {
	args := []string{"--checkpointing"}
	if prompt, ok, err := resolvePrompt(task); err != nil {
		return agent.LaunchCommand{}, err
	} else if ok {
		args = append(args, "--prompt", prompt)
	}
	return agent.LaunchCommand{Path: "gemini", Args: args, Env: nil}, nil
}

func resolvePrompt(task agent.TaskOrigin) (prompt string, ok bool, err error) {
	if task.Prompt != "" {
		return task.Prompt, true, nil
	}
	if task.File == "" {
		return "", false, nil
	}
	data, readErr := os.ReadFile(task.File)
	if readErr != nil {
		return "", false, paraerrors.Wrap(paraerrors.KindIO, "read task file "+task.File, readErr)
	}
	return string(data), true, nil
}

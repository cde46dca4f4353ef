// Package isolation defines the provider abstraction C4 of spec.md: a small
// capability set {wrap, start_session, stop_session} satisfied by the OS
// sandbox provider (internal/isolation/sandbox) and the container provider
// (internal/isolation/container). Neither backend has a teacher precedent;
// both are grounded on other pack repositories, see DESIGN.md.
package isolation

import (
	"context"

	"github.com/para-dev/para/internal/isolation/ispec"
	"github.com/para-dev/para/internal/state"
)

// Command and SpawnSpec are aliased from ispec so callers of this package
// never need to import the leaf package directly.
type (
	Command   = ispec.Command
	SpawnSpec = ispec.SpawnSpec
)

// Provider wraps commands and manages the isolation backend's lifecycle for
// one session.
type Provider interface {
	// Name identifies the provider for state records and logs.
	Name() state.IsolationMode

	// Wrap rewrites cmd into a SpawnSpec that runs it inside this
	// provider's isolation boundary rooted at workspacePath.
	Wrap(ctx context.Context, cmd Command, workspacePath string, env []string) (SpawnSpec, error)

	// StartSession prepares any long-lived backing resource the session
	// needs before Wrap is first called (e.g. starting a container).
	// Providers with no such resource (the OS sandbox) implement this as
	// a no-op.
	StartSession(ctx context.Context, rec *state.Record) error

	// StopSession tears down any resource created by StartSession.
	StopSession(ctx context.Context, rec *state.Record) error
}

// NoneProvider is the identity provider used when a session opts out of
// isolation: Wrap returns cmd unchanged, Start/StopSession are no-ops.
type NoneProvider struct{}

func (NoneProvider) Name() state.IsolationMode { return state.IsolationNone }

func (NoneProvider) Wrap(_ context.Context, cmd Command, workspacePath string, env []string) (SpawnSpec, error) {
	dir := cmd.Dir
	if dir == "" {
		dir = workspacePath
	}
	argv := append([]string{cmd.Path}, cmd.Args...)
	return SpawnSpec{Argv: argv, Env: append(append([]string{}, cmd.Env...), env...), Dir: dir}, nil
}

func (NoneProvider) StartSession(_ context.Context, _ *state.Record) error { return nil }
func (NoneProvider) StopSession(_ context.Context, _ *state.Record) error  { return nil }

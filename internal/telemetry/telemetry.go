// Package telemetry implements para's opt-in, best-effort command usage
// tracking. Near-verbatim adaptation of the teacher's
// cmd/entire/cli/telemetry/telemetry.go, renamed to Para's event/property
// namespace (command + isolation mode + agent instead of strategy/agent).
package telemetry

import (
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// PostHogAPIKey is set at build time for production.
	PostHogAPIKey = "phc_development_key"
	// PostHogEndpoint is set at build time for production.
	PostHogEndpoint = "https://eu.i.posthog.com"
)

// Client defines the telemetry interface.
type Client interface {
	TrackCommand(cmd *cobra.Command, isolation string, agent string)
	Close()
}

// NoOpClient is a no-op implementation used when telemetry is disabled.
type NoOpClient struct{}

func (NoOpClient) TrackCommand(*cobra.Command, string, string) {}
func (NoOpClient) Close()                                      {}

// silentLogger suppresses PostHog log output, expected for best-effort CLI telemetry.
type silentLogger struct{}

func (silentLogger) Logf(string, ...interface{})   {}
func (silentLogger) Debugf(string, ...interface{}) {}
func (silentLogger) Warnf(string, ...interface{})  {}
func (silentLogger) Errorf(string, ...interface{}) {}

// PostHogClient is the real telemetry client.
type PostHogClient struct {
	client     posthog.Client
	machineID  string
	cliVersion string
	mu         sync.RWMutex
}

// NewClient creates a telemetry client based on the user's opt-in setting.
// enabled comes from config (session.telemetry is opt-in, unlike the
// teacher's opt-out default); nil or false disables telemetry entirely.
func NewClient(version string, enabled *bool) Client { //nolint:ireturn // factory returns NoOpClient or PostHogClient
	if os.Getenv("PARA_TELEMETRY_OPTOUT") != "" {
		return NoOpClient{}
	}
	if enabled == nil || !*enabled {
		return NoOpClient{}
	}

	id, err := machineid.ProtectedID("para-cli")
	if err != nil {
		return NoOpClient{}
	}

	// Fast-timeout transport: telemetry must never delay CLI exit.
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 100 * time.Millisecond,
		}).DialContext,
		TLSHandshakeTimeout:   100 * time.Millisecond,
		ResponseHeaderTimeout: 100 * time.Millisecond,
	}

	client, err := posthog.NewWithConfig(PostHogAPIKey, posthog.Config{
		Endpoint:           PostHogEndpoint,
		ShutdownTimeout:    100 * time.Millisecond,
		BatchUploadTimeout: 200 * time.Millisecond,
		Transport:          transport,
		Logger:             silentLogger{},
		DisableGeoIP:       posthog.Ptr(true),
		DefaultEventProperties: posthog.NewProperties().
			Set("cli_version", version).
			Set("os", runtime.GOOS).
			Set("arch", runtime.GOARCH),
	})
	if err != nil {
		return NoOpClient{}
	}

	return &PostHogClient{client: client, machineID: id, cliVersion: version}
}

// TrackCommand records one command invocation: the command path, the
// isolation mode in effect, and which agent (if any) drove the session.
func (p *PostHogClient) TrackCommand(cmd *cobra.Command, isolation string, agent string) {
	if cmd == nil || cmd.Hidden {
		return
	}

	p.mu.RLock()
	id := p.machineID
	c := p.client
	p.mu.RUnlock()
	if c == nil {
		return
	}

	var flags []string
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		flags = append(flags, flag.Name)
	})

	selectedAgent := agent
	if selectedAgent == "" {
		selectedAgent = "none"
	}
	props := posthog.NewProperties().
		Set("command", cmd.CommandPath()).
		Set("isolation", isolation).
		Set("agent", selectedAgent)
	if len(flags) > 0 {
		props.Set("flags", strings.Join(flags, ","))
	}

	_ = c.Enqueue(posthog.Capture{ //nolint:errcheck // best-effort telemetry, failures must not affect the CLI
		DistinctId: id,
		Event:      "cli_command_executed",
		Properties: props,
	})
}

// Close flushes pending events.
func (p *PostHogClient) Close() {
	p.mu.RLock()
	c := p.client
	p.mu.RUnlock()
	if c != nil {
		_ = c.Close()
	}
}

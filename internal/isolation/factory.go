package isolation

import (
	"fmt"

	"github.com/para-dev/para/internal/config"
	"github.com/para-dev/para/internal/isolation/container"
	"github.com/para-dev/para/internal/isolation/sandbox"
	"github.com/para-dev/para/internal/state"
)

// New builds the Provider for the requested mode, wiring it from cfg.
func New(mode state.IsolationMode, cfg *config.Config) (Provider, error) {
	switch mode {
	case state.IsolationNone, "":
		return NoneProvider{}, nil
	case state.IsolationSandbox:
		return sandbox.New(sandbox.Profile(cfg.Sandbox.Profile), cfg.Sandbox.AllowedDomains), nil
	case state.IsolationContainer:
		return container.New(cfg.Docker.Image, cfg.Docker.Host, cfg.Docker.AutoRemove, cfg.Sandbox.AllowedDomains)
	default:
		return nil, fmt.Errorf("unknown isolation mode %q", mode)
	}
}

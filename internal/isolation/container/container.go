// Package container implements the container isolation provider: each
// session gets a dedicated, long-running container with the workspace bind
// mounted in, and every wrapped command runs inside it via `docker exec`.
//
// Grounded on other_examples/*raphaeltm-simple-agent-manager* for the
// shape of a container-per-workspace runtime record (WorkspaceRuntime) and
// other_examples/*jmgilman-headjack* for the choice of SDK: both use
// github.com/docker/docker directly rather than hand-rolling calls to the
// Engine API.
package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"

	paraerrors "github.com/para-dev/para/internal/errors"
	"github.com/para-dev/para/internal/isolation/ispec"
	"github.com/para-dev/para/internal/logging"
	"github.com/para-dev/para/internal/state"
)

// builtinAllowedHosts are reachable regardless of the configured allow-list
// once network isolation is enabled: without them a firewalled container
// can't resolve anything or pull further packages during setup.
var builtinAllowedHosts = []string{
	"registry.npmjs.org",
	"pypi.org",
	"files.pythonhosted.org",
	"github.com",
}

// Runtime is the per-session container runtime record, mirroring the shape
// of WorkspaceRuntime in the grounding example: enough to reattach,
// docker-exec into, and tear down the container without re-deriving it from
// the image name alone.
type Runtime struct {
	SessionName   string
	ContainerID   string
	ContainerName string
	Image         string
	WorkspaceDir  string
	ContainerUser string
}

// Provider is the container isolation Provider.
type Provider struct {
	Image          string
	AutoRemove     bool
	AllowedDomains []string // non-empty enables the firewall init script (spec.md §4.4.2 bullet 3)

	cli     *client.Client
	runtime map[string]*Runtime // keyed by session name
}

// New creates a container Provider. dockerHost may be empty to use the
// client's default (DOCKER_HOST env var or the platform default socket).
func New(imageRef string, dockerHost string, autoRemove bool, allowedDomains []string) (*Provider, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if dockerHost != "" {
		opts = append(opts, client.WithHost(dockerHost))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIsolation, "create docker client", err)
	}
	return &Provider{Image: imageRef, AutoRemove: autoRemove, AllowedDomains: allowedDomains, cli: cli, runtime: map[string]*Runtime{}}, nil
}

func (p *Provider) Name() state.IsolationMode { return state.IsolationContainer }

// StartSession creates and starts a long-running container for rec,
// bind-mounting rec.WorkspacePath at the same path inside the container so
// relative paths the agent emits (e.g. in diagnostics) stay meaningful.
func (p *Provider) StartSession(ctx context.Context, rec *state.Record) error {
	img := p.Image
	if rec.ContainerImage != "" {
		img = rec.ContainerImage
	}

	if err := p.ensureImage(ctx, img); err != nil {
		return err
	}

	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: rec.WorkspacePath,
			Target: rec.WorkspacePath,
		}},
		AutoRemove: p.AutoRemove,
	}
	if len(p.AllowedDomains) > 0 {
		// NET_ADMIN/NET_RAW let the firewall init script install iptables
		// rules; without them the container has no netfilter access at all.
		hostConfig.CapAdd = []string{"NET_ADMIN", "NET_RAW"}
	}

	name := "para-" + rec.Name
	resp, err := p.cli.ContainerCreate(ctx,
		&container.Config{
			Image:      img,
			Cmd:        []string{"sleep", "infinity"},
			WorkingDir: rec.WorkspacePath,
			Tty:        false,
		},
		hostConfig,
		nil, nil, name,
	)
	if err != nil {
		return paraerrors.Wrap(paraerrors.KindIsolation, "create container for session "+rec.Name, err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return paraerrors.Wrap(paraerrors.KindIsolation, "start container for session "+rec.Name, err)
	}

	rt := &Runtime{
		SessionName:   rec.Name,
		ContainerID:   resp.ID,
		ContainerName: name,
		Image:         img,
		WorkspaceDir:  rec.WorkspacePath,
	}
	p.runtime[rec.Name] = rt
	rec.ContainerID = resp.ID
	rec.ContainerImage = img

	if len(p.AllowedDomains) > 0 {
		if err := p.initFirewall(ctx, resp.ID); err != nil {
			p.abortStart(ctx, resp.ID, rec.Name)
			return err
		}
	}

	if rec.AgentMeta != nil && rec.AgentMeta.SetupScript != "" {
		if err := p.runSetupScript(ctx, resp.ID, rec); err != nil {
			p.abortStart(ctx, resp.ID, rec.Name)
			return err
		}
	}

	logging.Info(ctx, "container session started", "session", rec.Name, "container_id", resp.ID, "image", img)
	return nil
}

// ensureImage inspects img locally, pulling it on a miss (spec.md §4.4.2
// bullet 1). A pull failure leaves nothing behind for the caller to
// compensate beyond the image itself: no container was ever created.
func (p *Provider) ensureImage(ctx context.Context, img string) error {
	if _, _, err := p.cli.ImageInspectWithRaw(ctx, img); err == nil {
		return nil
	}
	rc, err := p.cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return paraerrors.Wrap(paraerrors.KindIsolation, "fetch image "+img, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return paraerrors.Wrap(paraerrors.KindIsolation, "fetch image "+img, err)
	}
	return nil
}

// initFirewall runs a one-shot default-deny iptables script inside the
// container, opening only the built-in essentials and the configured
// allow-list (spec.md §4.4.2 bullet 3).
func (p *Provider) initFirewall(ctx context.Context, containerID string) error {
	script := firewallInitScript(append(append([]string{}, builtinAllowedHosts...), p.AllowedDomains...))
	if err := p.execInContainer(ctx, containerID, script, nil); err != nil {
		return paraerrors.Wrap(paraerrors.KindIsolation, "firewall init", err)
	}
	return nil
}

// firewallInitScript renders a default-deny outbound policy that allows
// loopback, DNS, and a resolved allow-list of domains.
func firewallInitScript(domains []string) string {
	var b strings.Builder
	b.WriteString("set -e\n")
	b.WriteString("iptables -P OUTPUT DROP\n")
	b.WriteString("iptables -F OUTPUT\n")
	b.WriteString("iptables -A OUTPUT -o lo -j ACCEPT\n")
	b.WriteString("iptables -A OUTPUT -p udp --dport 53 -j ACCEPT\n")
	b.WriteString("iptables -A OUTPUT -p tcp --dport 53 -j ACCEPT\n")
	for _, d := range domains {
		fmt.Fprintf(&b, "for ip in $(getent ahostsv4 %s | awk '{print $1}' | sort -u); do iptables -A OUTPUT -d \"$ip\" -j ACCEPT; done\n", d)
	}
	return b.String()
}

// runSetupScript reads the host-resolved setup script and executes its
// contents inside the container (the state directory it was discovered
// under isn't bind-mounted, so the script travels as a command body rather
// than a path).
func (p *Provider) runSetupScript(ctx context.Context, containerID string, rec *state.Record) error {
	content, err := os.ReadFile(rec.AgentMeta.SetupScript) //nolint:gosec // path resolved from trusted config/state-dir locations, not user input
	if err != nil {
		return paraerrors.Wrap(paraerrors.KindIsolation, "read setup script", err)
	}
	env := []string{"PARA_WORKSPACE=" + rec.WorkspacePath, "PARA_SESSION=" + rec.Name}
	if err := p.execInContainer(ctx, containerID, string(content), env); err != nil {
		return paraerrors.Wrap(paraerrors.KindExternalProcess, "setup script", err)
	}
	return nil
}

// execInContainer runs script via `sh -c` inside containerID and returns an
// error describing its output if it exits non-zero.
func (p *Provider) execInContainer(ctx context.Context, containerID, script string, env []string) error {
	execResp, err := p.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:          []string{"sh", "-c", script},
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return err
	}
	attach, err := p.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return err
	}
	defer attach.Close()
	output, _ := io.ReadAll(attach.Reader)

	inspect, err := p.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return err
	}
	if inspect.ExitCode != 0 {
		return fmt.Errorf("exit %d: %s", inspect.ExitCode, strings.TrimSpace(string(output)))
	}
	return nil
}

// abortStart tears down a container created earlier in StartSession after a
// later step (firewall init, setup script) fails, so the compensator's
// StopSession call on an already-gone container is a harmless no-op.
func (p *Provider) abortStart(ctx context.Context, containerID, sessionName string) {
	timeout := 5
	if err := p.cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		logging.Error(ctx, "stop container after failed start", "session", sessionName, "error", err)
	}
	if err := p.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		logging.Error(ctx, "remove container after failed start", "session", sessionName, "error", err)
	}
}

// StopSession stops and (unless AutoRemove already handled it) removes the
// session's container.
func (p *Provider) StopSession(ctx context.Context, rec *state.Record) error {
	rt, ok := p.runtime[rec.Name]
	if !ok {
		if rec.ContainerID == "" {
			return nil
		}
		rt = &Runtime{SessionName: rec.Name, ContainerID: rec.ContainerID}
	}

	timeout := 10
	if err := p.cli.ContainerStop(ctx, rt.ContainerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return paraerrors.Wrap(paraerrors.KindIsolation, "stop container for session "+rec.Name, err)
	}
	if !p.AutoRemove {
		if err := p.cli.ContainerRemove(ctx, rt.ContainerID, container.RemoveOptions{Force: true}); err != nil {
			return paraerrors.Wrap(paraerrors.KindIsolation, "remove container for session "+rec.Name, err)
		}
	}
	delete(p.runtime, rec.Name)
	return nil
}

// Wrap builds a `docker exec` invocation into the session's container. The
// returned SpawnSpec is still a plain argv/env pair so the caller runs it
// the same way it runs every other provider's spec (exec.Command), rather
// than threading a second, container-specific execution path through the
// Session Manager.
func (p *Provider) Wrap(ctx context.Context, cmd ispec.Command, workspacePath string, env []string) (ispec.SpawnSpec, error) {
	sessionName := sessionNameFromEnv(env)
	rt, ok := p.runtime[sessionName]
	if !ok {
		return ispec.SpawnSpec{}, paraerrors.New(paraerrors.KindIsolation, fmt.Sprintf("no running container for session %q", sessionName))
	}

	argv := []string{"docker", "exec", "-w", workspacePath}
	for _, kv := range env {
		argv = append(argv, "-e", kv)
	}
	argv = append(argv, rt.ContainerID, cmd.Path)
	argv = append(argv, cmd.Args...)

	return ispec.SpawnSpec{Argv: argv, Env: nil, Dir: ""}, nil
}

func sessionNameFromEnv(env []string) string {
	const prefix = "PARA_SESSION="
	for _, kv := range env {
		if len(kv) > len(prefix) && kv[:len(prefix)] == prefix {
			return kv[len(prefix):]
		}
	}
	return ""
}

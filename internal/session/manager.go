// Package session implements the Session Manager: para's central state
// machine (spec.md §4.5), generalizing the teacher's command layer
// (resume.go/session.go/setup.go/rewind.go -- "resolve state, validate
// preconditions, mutate git, write state, handle compensations on error")
// from a shadow-branch-per-turn model to create/destroy-workspace-per-task.
package session

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/para-dev/para/internal/agent"
	"github.com/para-dev/para/internal/config"
	paraerrors "github.com/para-dev/para/internal/errors"
	"github.com/para-dev/para/internal/isolation"
	"github.com/para-dev/para/internal/lock"
	"github.com/para-dev/para/internal/logging"
	"github.com/para-dev/para/internal/paths"
	"github.com/para-dev/para/internal/state"
	"github.com/para-dev/para/internal/status"
	"github.com/para-dev/para/internal/trailers"
	"github.com/para-dev/para/internal/vcs"
)

// Manager orchestrates para's session lifecycle, coordinating the VCS
// Adapter, State Store, Status Channel, and Isolation Provider for every
// operation while holding the repository lock.
type Manager struct {
	cfg      *config.Config
	repoRoot string
	stateDir string
	vcs      vcs.Adapter
	store    state.Store
	status   status.Channel
}

// New builds a Manager rooted at repoRoot, wiring it from the already
// resolved config cfg.
func New(cfg *config.Config, repoRoot, stateDir string, adapter vcs.Adapter, store state.Store, ch status.Channel) *Manager {
	return &Manager{cfg: cfg, repoRoot: repoRoot, stateDir: stateDir, vcs: adapter, store: store, status: ch}
}

// StartOptions configures Manager.Start.
type StartOptions struct {
	Name        string // generated via paths.GenerateID if empty
	Task        agent.TaskOrigin
	AgentName   string // defaults to cfg.Session.DefaultAgent, then agent.DefaultName
	Isolation   state.IsolationMode
	LaunchIDE   bool   // launch the configured IDE instead of an agent process
	SetupScript string // overrides setup-script discovery (spec.md §4.4.2); highest priority
}

// Start creates a new session: a fresh workspace and branch, an isolation
// boundary if requested, and either an agent or IDE process, following the
// ordered, compensated sequence in spec.md §4.5 start().
func (m *Manager) Start(ctx context.Context, opts StartOptions) (*state.Record, error) {
	if err := config.Validate(m.cfg, m.repoRoot, opts.LaunchIDE); err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		id, err := paths.GenerateID()
		if err != nil {
			return nil, err
		}
		name = "session-" + id
	}

	l, err := lock.Acquire(ctx, m.stateDir)
	if err != nil {
		return nil, err
	}
	defer l.Close() //nolint:errcheck // best-effort release; process exit also clears an advisory flock

	if existing, err := m.store.Get(ctx, name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, paraerrors.New(paraerrors.KindPrecondition, "session "+name+" already exists")
	}

	parentBranch, err := m.vcs.ResolveParentBranch(ctx)
	if err != nil {
		return nil, err
	}
	branchName := m.cfg.Git.BranchPrefix + "/" + name

	isolationMode := opts.Isolation
	if isolationMode == "" {
		isolationMode = state.IsolationMode(m.cfg.Session.DefaultIsolation)
	}
	provider, err := isolation.New(isolationMode, m.cfg)
	if err != nil {
		return nil, err
	}

	comp := &compensator{}
	defer func() {
		if err != nil {
			comp.unwind(ctx)
		}
	}()

	now := time.Now()
	rec := &state.Record{
		Name:         name,
		Branch:       branchName,
		ParentBranch: parentBranch,
		TaskOrigin:   toStateTaskOrigin(opts.Task),
		Isolation:    isolationMode,
		Phase:        state.PhaseCreating,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err = m.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	comp.push(func(ctx context.Context) error { return m.store.Archive(ctx, name) })

	workspacePath, checkedOutBranch, err := m.vcs.CreateWorkspace(ctx, name, parentBranch, branchName)
	if err != nil {
		return nil, err
	}
	rec.WorkspacePath = workspacePath
	rec.Branch = checkedOutBranch
	comp.push(func(ctx context.Context) error { return m.vcs.RemoveWorkspace(ctx, name, true) })

	if setupScript := m.resolveSetupScript(isolationMode, opts.SetupScript); setupScript != "" {
		rec.AgentMeta = &state.AgentMeta{SetupScript: setupScript}
	}

	if err = provider.StartSession(ctx, rec); err != nil {
		return nil, err
	}
	comp.push(func(ctx context.Context) error { return provider.StopSession(ctx, rec) })

	// Container mode runs its setup script in-image as part of StartSession;
	// every other mode runs it directly on the host once the workspace exists.
	if isolationMode != state.IsolationContainer && rec.AgentMeta != nil && rec.AgentMeta.SetupScript != "" {
		if err = m.runSetupScriptOnHost(ctx, rec); err != nil {
			return nil, err
		}
	}

	rec.Phase = state.PhaseActive
	if err = m.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	m.logEvent(ctx, rec.Name, "start", "branch="+rec.Branch)

	if opts.Task.Prompt != "" || opts.Task.File != "" {
		if err = m.launchAgent(ctx, provider, rec, opts.AgentName, opts.Task); err != nil {
			return nil, err
		}
	} else if opts.LaunchIDE {
		if err = m.launchIDE(ctx, provider, rec); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

// Resume reopens an existing, active session, optionally appending new task
// context and relaunching its agent process.
func (m *Manager) Resume(ctx context.Context, name string, task agent.TaskOrigin, agentName string) (*state.Record, error) {
	rec, err := m.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, paraerrors.New(paraerrors.KindPrecondition, "no active session named "+name)
	}
	if rec.Phase.IsArchived() {
		return nil, paraerrors.New(paraerrors.KindPrecondition, "session "+name+" is archived; use recover")
	}

	provider, err := isolation.New(rec.Isolation, m.cfg)
	if err != nil {
		return nil, err
	}

	if task.Prompt != "" || task.File != "" {
		if err := m.launchAgentResume(ctx, provider, rec, agentName, task); err != nil {
			return nil, err
		}
	}

	rec.Touch(time.Now())
	if err := m.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	m.logEvent(ctx, rec.Name, "resume", task.Prompt)
	return rec, nil
}

// Finish completes a session successfully: commits everything, promotes the
// session branch to a review branch, tears down isolation, and archives the
// record (spec.md §4.5 finish()).
func (m *Manager) Finish(ctx context.Context, name, message, branchOverride string) (*state.Record, error) {
	l, err := lock.Acquire(ctx, m.stateDir)
	if err != nil {
		return nil, err
	}
	defer l.Close() //nolint:errcheck // best-effort release

	rec, err := m.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, paraerrors.New(paraerrors.KindPrecondition, "no active session named "+name)
	}
	if _, err := Transition(rec.Phase, EventFinish); err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindPrecondition, "finish", err)
	}

	commitID, err := m.vcs.CommitAll(ctx, rec.WorkspacePath, trailers.FormatSession(message, rec.Name))
	if err != nil {
		return nil, err
	}

	targetBranch := rec.Branch
	if branchOverride != "" {
		targetBranch = branchOverride
	}
	if targetBranch != rec.Branch {
		exists, err := m.vcs.BranchExists(ctx, targetBranch)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, paraerrors.New(paraerrors.KindVCS,
				fmt.Sprintf("branch %q already exists; choose a different --branch or omit it to keep %q", targetBranch, rec.Branch))
		}
	}
	if err := m.vcs.PromoteBranch(ctx, rec.Branch, targetBranch); err != nil {
		return nil, err
	}

	provider, err := isolation.New(rec.Isolation, m.cfg)
	if err != nil {
		return nil, err
	}
	if err := provider.StopSession(ctx, rec); err != nil {
		return nil, err
	}
	if err := m.status.Remove(ctx, name); err != nil {
		return nil, err
	}
	if err := m.vcs.RemoveWorkspace(ctx, name, true); err != nil {
		return nil, err
	}

	now := time.Now()
	rec.Phase = state.PhaseArchivedFinished
	rec.LastCommit = commitID
	rec.ReviewBranch = targetBranch
	rec.FinishMessage = message
	rec.ArchivedAt = &now
	rec.Touch(now)

	if err := m.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	if err := m.store.Archive(ctx, name); err != nil {
		return nil, err
	}
	m.logEvent(ctx, rec.Name, "finish", "review_branch="+rec.ReviewBranch)
	return rec, nil
}

// Cancel abandons a session: without force it refuses if uncommitted work
// exists, otherwise it tears down isolation, removes the workspace and
// branch, and archives the record (spec.md §4.5 cancel()).
func (m *Manager) Cancel(ctx context.Context, name string, force bool) (*state.Record, error) {
	l, err := lock.Acquire(ctx, m.stateDir)
	if err != nil {
		return nil, err
	}
	defer l.Close() //nolint:errcheck // best-effort release

	rec, err := m.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, paraerrors.New(paraerrors.KindPrecondition, "no active session named "+name)
	}
	if _, err := Transition(rec.Phase, EventCancel); err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindPrecondition, "cancel", err)
	}

	if !force {
		dirty, err := m.vcs.HasUncommitted(ctx, rec.WorkspacePath)
		if err != nil {
			return nil, err
		}
		if dirty {
			return nil, vcs.ErrDirtyWorktree
		}
	}

	provider, err := isolation.New(rec.Isolation, m.cfg)
	if err != nil {
		return nil, err
	}
	if err := provider.StopSession(ctx, rec); err != nil {
		logging.Error(ctx, "stop session during cancel", "session", name, "error", err)
	}
	if err := m.status.Remove(ctx, name); err != nil {
		logging.Error(ctx, "remove status during cancel", "session", name, "error", err)
	}

	tip, err := m.vcs.BranchTip(ctx, rec.Branch)
	if err == nil {
		rec.LastCommit = tip
	}

	if err := m.vcs.RemoveWorkspace(ctx, name, force); err != nil {
		return nil, err
	}
	if err := m.vcs.DeleteBranch(ctx, rec.Branch); err != nil {
		logging.Error(ctx, "delete branch during cancel", "session", name, "branch", rec.Branch, "error", err)
	}

	now := time.Now()
	rec.Phase = state.PhaseArchivedCancelled
	rec.ArchivedAt = &now
	rec.Touch(now)

	if err := m.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	if err := m.store.Archive(ctx, name); err != nil {
		return nil, err
	}
	m.logEvent(ctx, rec.Name, "cancel", "")
	return rec, nil
}

// Recover restores an archived session: recreates its workspace and branch
// from the archived record's last commit and moves the record back to
// active (spec.md §4.5 recover()).
func (m *Manager) Recover(ctx context.Context, name string) (*state.Record, error) {
	l, err := lock.Acquire(ctx, m.stateDir)
	if err != nil {
		return nil, err
	}
	defer l.Close() //nolint:errcheck // best-effort release

	if active, err := m.store.Get(ctx, name); err != nil {
		return nil, err
	} else if active != nil {
		return nil, paraerrors.New(paraerrors.KindPrecondition, "an active session named "+name+" already exists")
	}

	rec, err := m.store.GetArchived(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, paraerrors.New(paraerrors.KindPrecondition, "no archived session named "+name)
	}
	if _, err := Transition(rec.Phase, EventRecover); err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindPrecondition, "recover", err)
	}

	if exists, err := m.vcs.BranchExists(ctx, rec.Branch); err != nil {
		return nil, err
	} else if exists {
		return nil, paraerrors.New(paraerrors.KindVCS, "branch "+rec.Branch+" already exists; cannot recover")
	}

	comp := &compensator{}
	defer func() {
		if err != nil {
			comp.unwind(ctx)
		}
	}()

	base := rec.LastCommit
	if base == "" {
		base = rec.ParentBranch
	}
	workspacePath, checkedOutBranch, err := m.vcs.CreateWorkspace(ctx, name, base, rec.Branch)
	if err != nil {
		return nil, err
	}
	comp.push(func(ctx context.Context) error { return m.vcs.RemoveWorkspace(ctx, name, true) })

	provider, provErr := isolation.New(rec.Isolation, m.cfg)
	if provErr != nil {
		err = provErr
		return nil, err
	}
	if err = provider.StartSession(ctx, rec); err != nil {
		return nil, err
	}
	comp.push(func(ctx context.Context) error { return provider.StopSession(ctx, rec) })

	now := time.Now()
	rec.WorkspacePath = workspacePath
	rec.Branch = checkedOutBranch
	rec.Phase = state.PhaseActive
	rec.ArchivedAt = nil
	rec.Touch(now)

	if err = m.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	if err = m.store.RemoveArchived(ctx, name); err != nil {
		return nil, err
	}
	m.logEvent(ctx, rec.Name, "recover", "")
	return rec, nil
}

// List enumerates sessions in the given scope.
func (m *Manager) List(ctx context.Context, scope state.Scope) ([]*state.Record, error) {
	return m.store.List(ctx, scope)
}

// StatusReports returns every published Status Channel report, keyed by
// session name, for the Monitor to join against List's records.
func (m *Manager) StatusReports(ctx context.Context) (map[string]status.Report, error) {
	reports, err := m.status.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]status.Report, len(reports))
	for _, r := range reports {
		out[r.SessionName] = r
	}
	return out, nil
}

// StatusStaleThreshold returns the configured age past which the monitor
// should display a session's status report as stale (spec.md §4.6).
func (m *Manager) StatusStaleThreshold() time.Duration {
	seconds := m.cfg.Session.StatusStaleAfterSeconds
	if seconds <= 0 {
		seconds = 300
	}
	return time.Duration(seconds) * time.Second
}

// Reconcile cross-references state records with the repository's actual
// worktrees, reporting orphaned and missing workspaces (spec.md §4.4
// scan()).
func (m *Manager) Reconcile(ctx context.Context) (state.ScanResult, error) {
	return m.store.Scan(ctx, m.vcs)
}

// Clean removes the unrecoverable partial states Reconcile finds: orphaned
// worktrees (no matching record) are removed from git, and records whose
// worktree has vanished are archived as cancelled (spec.md §4.2 "used by
// clean"). Without force, an orphaned worktree with uncommitted changes is
// skipped rather than destroyed; force removes it regardless.
func (m *Manager) Clean(ctx context.Context, force bool) (state.ScanResult, error) {
	l, err := lock.Acquire(ctx, m.stateDir)
	if err != nil {
		return state.ScanResult{}, err
	}
	defer l.Close() //nolint:errcheck // best-effort release

	result, err := m.store.Scan(ctx, m.vcs)
	if err != nil {
		return result, err
	}

	for _, path := range result.OrphanedWorkspaces {
		name := filepath.Base(path)
		if !force {
			dirty, err := m.vcs.HasUncommitted(ctx, path)
			if err != nil {
				logging.Error(ctx, "check orphaned worktree", "path", path, "error", err)
				continue
			}
			if dirty {
				logging.Info(ctx, "skipped dirty orphaned worktree; rerun with --force", "path", path)
				continue
			}
		}
		if err := m.vcs.RemoveWorkspace(ctx, name, force); err != nil {
			return result, paraerrors.Wrap(paraerrors.KindVCS, "remove orphaned worktree "+path, err)
		}
	}

	for _, name := range result.MissingWorkspaces {
		rec, err := m.store.Get(ctx, name)
		if err != nil {
			return result, err
		}
		if rec == nil {
			continue
		}
		now := time.Now()
		rec.Phase = state.PhaseArchivedCancelled
		rec.ArchivedAt = &now
		rec.Touch(now)
		if err := m.store.Put(ctx, rec); err != nil {
			return result, err
		}
		if err := m.store.Archive(ctx, name); err != nil {
			return result, err
		}
		m.logEvent(ctx, name, "clean", "workspace missing")
	}

	return result, nil
}

func (m *Manager) launchAgent(ctx context.Context, provider isolation.Provider, rec *state.Record, agentName string, task agent.TaskOrigin) error {
	ag, err := resolveAgent(agentName, m.cfg.Session.DefaultAgent)
	if err != nil {
		return err
	}
	cmd, err := ag.BuildLaunchCommand(ctx, rec.WorkspacePath, task)
	if err != nil {
		return err
	}
	if rec.AgentMeta == nil {
		rec.AgentMeta = &state.AgentMeta{}
	}
	rec.AgentMeta.Name = ag.Name()
	rec.AgentMeta.ForwardKeys = m.cfg.Session.ForwardEnvKeys
	return m.spawn(ctx, provider, rec, cmd)
}

func (m *Manager) launchAgentResume(ctx context.Context, provider isolation.Provider, rec *state.Record, agentName string, task agent.TaskOrigin) error {
	ag, err := resolveAgent(agentName, m.cfg.Session.DefaultAgent)
	if err != nil {
		return err
	}
	cmd, err := ag.BuildResumeCommand(ctx, rec.WorkspacePath, task)
	if err != nil {
		return err
	}
	return m.spawn(ctx, provider, rec, cmd)
}

// resolveSetupScript picks the setup script to run once a workspace exists,
// in spec.md §4.4.2's priority order: an explicit override (CLI/caller
// supplied), then a mode-specific script under the state directory, then a
// mode-generic one, then the configured fallback. mode is "docker" for
// container isolation and "worktree" otherwise.
func (m *Manager) resolveSetupScript(isolationMode state.IsolationMode, override string) string {
	if override != "" {
		return override
	}
	mode := "worktree"
	if isolationMode == state.IsolationContainer {
		mode = "docker"
	}
	if p := filepath.Join(m.stateDir, "setup-"+mode+".sh"); fileExists(p) {
		return p
	}
	if p := filepath.Join(m.stateDir, "setup.sh"); fileExists(p) {
		return p
	}
	return m.cfg.Session.SetupScript
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// runSetupScriptOnHost runs the session's setup script directly (no
// isolation wrapper): used for none/sandbox sessions, since the container
// provider runs its own copy inside the container as part of StartSession.
// A non-zero exit aborts session creation (spec.md §4.4.2).
func (m *Manager) runSetupScriptOnHost(ctx context.Context, rec *state.Record) error {
	env := append(append([]string{}, os.Environ()...), "PARA_WORKSPACE="+rec.WorkspacePath, "PARA_SESSION="+rec.Name)
	cmd := exec.CommandContext(ctx, "sh", rec.AgentMeta.SetupScript) //nolint:gosec // script path resolved from trusted config/state-dir locations, not user input
	cmd.Dir = rec.WorkspacePath
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		return paraerrors.Wrap(paraerrors.KindExternalProcess, fmt.Sprintf("setup script failed: %s", string(out)), err)
	}
	return nil
}

func (m *Manager) launchIDE(ctx context.Context, provider isolation.Provider, rec *state.Record) error {
	if m.cfg.IDE.Command == "" {
		return nil
	}
	cmd := agent.LaunchCommand{Path: m.cfg.IDE.Command, Args: m.cfg.IDE.Args}
	return m.spawn(ctx, provider, rec, cmd)
}

func (m *Manager) spawn(ctx context.Context, provider isolation.Provider, rec *state.Record, cmd agent.LaunchCommand) error {
	// PARA_STATE_DIR lets `para status`, run by the agent from inside its
	// worktree, find the shared status channel directly: `git rev-parse
	// --show-toplevel` from inside a linked worktree returns the worktree
	// itself, not the main repository root where .para lives. PARA_WORKSPACE
	// gives setup scripts and the agent a stable handle on the worktree root
	// without having to re-derive it from argv[0]'s working directory.
	env := append([]string{
		"PARA_SESSION=" + rec.Name,
		"PARA_STATE_DIR=" + m.stateDir,
		"PARA_WORKSPACE=" + rec.WorkspacePath,
	}, m.forwardedEnv()...)
	spec, err := provider.Wrap(ctx, isolation.Command{Path: cmd.Path, Args: cmd.Args, Env: cmd.Env, Dir: rec.WorkspacePath}, rec.WorkspacePath, env)
	if err != nil {
		return err
	}
	if len(spec.Argv) == 0 {
		return paraerrors.New(paraerrors.KindIsolation, "isolation provider produced an empty command")
	}

	c := exec.Command(spec.Argv[0], spec.Argv[1:]...) //nolint:gosec // argv built from config/agent launch command, not untrusted input
	c.Dir = spec.Dir
	c.Env = spec.Env
	if err := c.Start(); err != nil {
		return paraerrors.Wrap(paraerrors.KindExternalProcess, "launch agent process", err)
	}
	logging.Info(ctx, "launched session process", "session", rec.Name, "pid", c.Process.Pid)
	return nil
}

// eventLogDirName is the Event Log's subdirectory under the state directory,
// sibling to the Status Channel's "status" directory.
const eventLogDirName = "events"

// logEvent appends one lifecycle event to the named session's event log,
// opening and closing the log inline: lifecycle transitions are infrequent
// enough (one per Start/Resume/Finish/Cancel/Recover call, not a hot
// per-byte stream) that holding the file open across the Manager's lifetime
// isn't worth the extra bookkeeping. Logging failures are non-fatal: the
// event log is a supplementary audit trail, not the source of truth for
// session state.
func (m *Manager) logEvent(ctx context.Context, name, kind, detail string) {
	path := filepath.Join(m.stateDir, eventLogDirName, name+".jsonl")
	log, err := status.OpenEventLog(path)
	if err != nil {
		logging.Error(ctx, "open event log", "session", name, "kind", kind, "error", err)
		return
	}
	defer func() {
		if cerr := log.Close(); cerr != nil {
			logging.Error(ctx, "close event log", "session", name, "error", cerr)
		}
	}()
	if err := log.Append(status.Event{SessionName: name, Kind: kind, Detail: detail, At: time.Now()}); err != nil {
		logging.Error(ctx, "append event log", "session", name, "kind", kind, "error", err)
	}
}

func (m *Manager) forwardedEnv() []string {
	var out []string
	for _, key := range m.cfg.Session.ForwardEnvKeys {
		if v, ok := os.LookupEnv(key); ok {
			out = append(out, key+"="+v)
		}
	}
	return out
}

func resolveAgent(name, fallback string) (agent.Agent, error) {
	if name == "" {
		name = fallback
	}
	if name == "" {
		return agent.Detect()
	}
	return agent.Get(name)
}

func toStateTaskOrigin(t agent.TaskOrigin) state.TaskOrigin {
	switch {
	case t.Prompt != "":
		return state.TaskOrigin{Kind: state.TaskOriginInline, Text: t.Prompt}
	case t.File != "":
		return state.TaskOrigin{Kind: state.TaskOriginFile, Path: t.File}
	default:
		return state.TaskOrigin{Kind: state.TaskOriginNone}
	}
}

package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/para-dev/para/internal/agent"
	paraerrors "github.com/para-dev/para/internal/errors"
	"github.com/para-dev/para/internal/session"
	"github.com/para-dev/para/internal/state"
)

// recordSummary is the MCP-facing projection of a state.Record: plain
// strings only, so every SDK client can render it without a custom decoder.
type recordSummary struct {
	Name          string `json:"name"`
	Branch        string `json:"branch"`
	WorkspacePath string `json:"workspace_path" jsonschema:"Absolute path of the session's worktree, empty once archived"`
	Phase         string `json:"phase"`
	Isolation     string `json:"isolation"`
	CreatedAt     string `json:"created_at" jsonschema:"RFC3339 timestamp"`
	LastActivity  string `json:"last_activity" jsonschema:"RFC3339 timestamp"`
	LastCommit    string `json:"last_commit,omitempty"`
	ReviewBranch  string `json:"review_branch,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

func summarize(rec *state.Record) recordSummary {
	return recordSummary{
		Name:          rec.Name,
		Branch:        rec.Branch,
		WorkspacePath: rec.WorkspacePath,
		Phase:         string(rec.Phase),
		Isolation:     string(rec.Isolation),
		CreatedAt:     rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		LastActivity:  rec.LastActivity.Format("2006-01-02T15:04:05Z07:00"),
		LastCommit:    rec.LastCommit,
		ReviewBranch:  rec.ReviewBranch,
		LastError:     rec.LastError,
	}
}

func (s *Server) registerTools() {
	s.registerStartTool()
	s.registerResumeTool()
	s.registerFinishTool()
	s.registerCancelTool()
	s.registerRecoverTool()
	s.registerListTool()
	s.registerReconcileTool()
	s.registerCleanTool()
}

type startInput struct {
	Name        string `json:"name,omitempty" jsonschema:"Session name; generated if omitted"`
	Prompt      string `json:"prompt,omitempty" jsonschema:"Inline task prompt for the driving agent"`
	File        string `json:"file,omitempty" jsonschema:"Path to a file containing the task prompt"`
	Agent       string `json:"agent,omitempty" jsonschema:"Agent adapter name; defaults to the configured default"`
	Isolation   string `json:"isolation,omitempty" jsonschema:"none, sandbox, or container; defaults to the configured default"`
	LaunchIDE   bool   `json:"launch_ide,omitempty" jsonschema:"Launch the configured IDE instead of an agent process"`
	SetupScript string `json:"setup_script,omitempty" jsonschema:"Script to run once the workspace exists, overriding discovery under the state dir"`
}

func (s *Server) registerStartTool() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "session_start",
		Description: "Create a new parallel session: a fresh workspace and branch, optionally driven by an AI agent",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in startInput) (*sdkmcp.CallToolResult, recordSummary, error) {
		rec, err := s.mgr.Start(ctx, session.StartOptions{
			Name:        in.Name,
			Task:        agent.TaskOrigin{Prompt: in.Prompt, File: in.File},
			AgentName:   in.Agent,
			Isolation:   state.IsolationMode(in.Isolation),
			LaunchIDE:   in.LaunchIDE,
			SetupScript: in.SetupScript,
		})
		if err != nil {
			return nil, recordSummary{}, err
		}
		return nil, summarize(rec), nil
	})
}

type resumeInput struct {
	Name   string `json:"name" jsonschema:"required,Session name to resume"`
	Prompt string `json:"prompt,omitempty" jsonschema:"New inline task prompt to hand the agent"`
	File   string `json:"file,omitempty" jsonschema:"Path to a file containing new task context"`
	Agent  string `json:"agent,omitempty" jsonschema:"Agent adapter name; defaults to the session's own agent"`
}

func (s *Server) registerResumeTool() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "session_resume",
		Description: "Reopen an existing active session, optionally with new task context",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in resumeInput) (*sdkmcp.CallToolResult, recordSummary, error) {
		rec, err := s.mgr.Resume(ctx, in.Name, agent.TaskOrigin{Prompt: in.Prompt, File: in.File}, in.Agent)
		if err != nil {
			return nil, recordSummary{}, err
		}
		return nil, summarize(rec), nil
	})
}

type finishInput struct {
	Name    string `json:"name" jsonschema:"required,Session name to finish"`
	Message string `json:"message" jsonschema:"required,Commit message for the final commit"`
	Branch  string `json:"branch,omitempty" jsonschema:"Review branch name override; defaults to the session's own branch"`
}

func (s *Server) registerFinishTool() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "session_finish",
		Description: "Commit all changes, promote the session branch to a review branch, and archive the session",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in finishInput) (*sdkmcp.CallToolResult, recordSummary, error) {
		rec, err := s.mgr.Finish(ctx, in.Name, in.Message, in.Branch)
		if err != nil {
			return nil, recordSummary{}, err
		}
		return nil, summarize(rec), nil
	})
}

type cancelInput struct {
	Name  string `json:"name" jsonschema:"required,Session name to cancel"`
	Force bool   `json:"force,omitempty" jsonschema:"Discard uncommitted changes instead of refusing"`
}

func (s *Server) registerCancelTool() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "session_cancel",
		Description: "Abandon a session, removing its workspace and branch",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in cancelInput) (*sdkmcp.CallToolResult, recordSummary, error) {
		rec, err := s.mgr.Cancel(ctx, in.Name, in.Force)
		if err != nil {
			return nil, recordSummary{}, err
		}
		return nil, summarize(rec), nil
	})
}

type recoverInput struct {
	Name string `json:"name" jsonschema:"required,Archived session name to restore"`
}

func (s *Server) registerRecoverTool() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "session_recover",
		Description: "Restore an archived session's workspace and branch from its last commit",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in recoverInput) (*sdkmcp.CallToolResult, recordSummary, error) {
		rec, err := s.mgr.Recover(ctx, in.Name)
		if err != nil {
			return nil, recordSummary{}, err
		}
		return nil, summarize(rec), nil
	})
}

type listInput struct {
	Scope string `json:"scope,omitempty" jsonschema:"active, archived, or all; defaults to active"`
}

type listOutput struct {
	Sessions []recordSummary `json:"sessions"`
}

func (s *Server) registerListTool() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "session_list",
		Description: "Enumerate sessions in the given scope",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in listInput) (*sdkmcp.CallToolResult, listOutput, error) {
		scope, err := parseScope(in.Scope)
		if err != nil {
			return nil, listOutput{}, err
		}
		recs, err := s.mgr.List(ctx, scope)
		if err != nil {
			return nil, listOutput{}, err
		}
		out := listOutput{Sessions: make([]recordSummary, 0, len(recs))}
		for _, rec := range recs {
			out.Sessions = append(out.Sessions, summarize(rec))
		}
		return nil, out, nil
	})
}

type reconcileOutput struct {
	OrphanedWorkspaces []string `json:"orphaned_workspaces"`
	MissingWorkspaces  []string `json:"missing_workspaces"`
}

func (s *Server) registerReconcileTool() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "session_reconcile",
		Description: "Cross-reference session records with the repository's actual worktrees and report orphans",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, reconcileOutput, error) {
		result, err := s.mgr.Reconcile(ctx)
		if err != nil {
			return nil, reconcileOutput{}, err
		}
		return nil, reconcileOutput{
			OrphanedWorkspaces: result.OrphanedWorkspaces,
			MissingWorkspaces:  result.MissingWorkspaces,
		}, nil
	})
}

type cleanInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Remove orphaned worktrees even with uncommitted changes"`
}

type cleanOutput struct {
	RemovedWorkspaces []string `json:"removed_workspaces"`
	ArchivedSessions  []string `json:"archived_sessions"`
}

func (s *Server) registerCleanTool() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "session_clean",
		Description: "Reconcile session records against actual worktrees and repair what's found: remove orphaned worktrees and archive records whose workspace is missing",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in cleanInput) (*sdkmcp.CallToolResult, cleanOutput, error) {
		result, err := s.mgr.Clean(ctx, in.Force)
		if err != nil {
			return nil, cleanOutput{}, err
		}
		return nil, cleanOutput{
			RemovedWorkspaces: result.OrphanedWorkspaces,
			ArchivedSessions:  result.MissingWorkspaces,
		}, nil
	})
}

func parseScope(s string) (state.Scope, error) {
	switch s {
	case "", "active":
		return state.ScopeActive, nil
	case "archived":
		return state.ScopeArchived, nil
	case "all":
		return state.ScopeAll, nil
	default:
		return 0, paraerrors.New(paraerrors.KindValidation, "unknown scope "+s)
	}
}

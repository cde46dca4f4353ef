package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/para-dev/para/internal/agent"
	"github.com/para-dev/para/internal/session"
	"github.com/para-dev/para/internal/state"
)

func newStartCmd() *cobra.Command {
	var (
		name        string
		prompt      string
		file        string
		agentName   string
		isolation   string
		launchIDE   bool
		setupScript string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Create a new parallel session",
		Long: `Create a new session: a fresh git worktree and branch, isolated from
every other session on this repository. With --prompt or --file, an AI
agent is spawned inside the workspace; with --ide, the configured editor
is launched instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// With no task-shaping flags at all, fall into an interactive
			// prompt instead of starting a bare idle session by surprise.
			if prompt == "" && file == "" && !launchIDE && !cmd.Flags().Changed("agent") {
				if err := promptStartTask(&prompt, &agentName); err != nil {
					return err
				}
			}

			mgr, _, err := newManager()
			if err != nil {
				return err
			}
			rec, err := mgr.Start(cmd.Context(), session.StartOptions{
				Name:        name,
				Task:        agent.TaskOrigin{Prompt: prompt, File: file},
				AgentName:   agentName,
				Isolation:   state.IsolationMode(isolation),
				LaunchIDE:   launchIDE,
				SetupScript: setupScript,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started session %q on branch %q (%s)\n", rec.Name, rec.Branch, rec.WorkspacePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "session name (generated if omitted)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "inline task prompt for the driving agent")
	cmd.Flags().StringVar(&file, "file", "", "path to a file containing the task prompt")
	cmd.Flags().StringVar(&agentName, "agent", "", "agent adapter name (defaults to session.default_agent)")
	cmd.Flags().StringVar(&isolation, "isolation", "", "none, sandbox, or container (defaults to session.default_isolation)")
	cmd.Flags().BoolVar(&launchIDE, "ide", false, "launch the configured IDE instead of an agent process")
	cmd.Flags().StringVar(&setupScript, "setup-script", "", "script to run once the workspace exists, overriding discovery under the state dir")

	return cmd
}

// promptStartTask asks for a task prompt and an agent when `para start` is
// invoked bare, rather than silently opening an idle session.
func promptStartTask(prompt, agentName *string) error {
	names := agent.List()
	options := make([]huh.Option[string], 0, len(names)+1)
	options = append(options, huh.NewOption("default (session.default_agent)", ""))
	for _, n := range names {
		options = append(options, huh.NewOption(n, n))
	}

	form := newAccessibleForm(
		huh.NewGroup(
			huh.NewText().
				Title("Task for the driving agent").
				Description("Leave blank to open an idle session with no agent.").
				Value(prompt),
			huh.NewSelect[string]().
				Title("Agent").
				Options(options...).
				Value(agentName),
		),
	)
	return form.Run()
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/para-dev/para/internal/agent"
)

func newResumeCmd() *cobra.Command {
	var (
		prompt    string
		file      string
		agentName string
	)

	cmd := &cobra.Command{
		Use:   "resume <session>",
		Short: "Reopen an existing active session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := newManager()
			if err != nil {
				return err
			}
			rec, err := mgr.Resume(cmd.Context(), args[0], agent.TaskOrigin{Prompt: prompt, File: file}, agentName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resumed session %q at %s\n", rec.Name, rec.WorkspacePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "new inline task context to hand the agent")
	cmd.Flags().StringVar(&file, "file", "", "path to a file containing new task context")
	cmd.Flags().StringVar(&agentName, "agent", "", "agent adapter name (defaults to the session's own agent)")

	return cmd
}

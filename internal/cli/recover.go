package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/para-dev/para/internal/state"
)

func newRecoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover [session]",
		Short: "Restore an archived session",
		Long: `Recreate an archived session's workspace and branch from its last commit
and move it back to active. With no argument, lists the archive to pick
from.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := newManager()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				archived, err := mgr.List(cmd.Context(), state.ScopeArchived)
				if err != nil {
					return err
				}
				if len(archived) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No archived sessions.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Archived sessions:")
				for _, rec := range archived {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", rec.Name, rec.Phase)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "\nRun `para recover <session>` to restore one.")
				return nil
			}

			rec, err := mgr.Recover(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recovered session %q at %s\n", rec.Name, rec.WorkspacePath)
			return nil
		},
	}

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Detect orphaned or missing session workspaces",
		Long: `Cross-reference session state records with the repository's actual git
worktrees. Reports sessions whose workspace directory is gone (state
survives without a worktree) and worktrees with no matching session record
(orphans left behind by an interrupted operation). Unrecoverable partial
states are reported, never silently repaired.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, _, err := newManager()
			if err != nil {
				return err
			}
			result, err := mgr.Reconcile(cmd.Context())
			if err != nil {
				return err
			}

			if len(result.OrphanedWorkspaces) == 0 && len(result.MissingWorkspaces) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No inconsistencies found.")
				return nil
			}

			w := cmd.OutOrStdout()
			if len(result.OrphanedWorkspaces) > 0 {
				fmt.Fprintln(w, "Orphaned worktrees (no matching session record):")
				for _, path := range result.OrphanedWorkspaces {
					fmt.Fprintf(w, "  %s\n", path)
				}
			}
			if len(result.MissingWorkspaces) > 0 {
				fmt.Fprintln(w, "Sessions with a missing worktree:")
				for _, name := range result.MissingWorkspaces {
					fmt.Fprintf(w, "  %s\n", name)
				}
			}
			fmt.Fprintln(w, "\npara doctor does not remove anything automatically; run `para clean` to repair these, or `para cancel --force` for a specific session.")
			return nil
		},
	}

	return cmd
}

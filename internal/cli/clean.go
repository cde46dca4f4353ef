package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove orphaned worktrees and archive records with a missing workspace",
		Long: `clean reconciles state records against the repository's actual git worktrees
(the same cross-reference para doctor reports) and repairs what it finds:
orphaned worktrees (no matching session record) are removed from git, and
records whose worktree has vanished are archived as cancelled. Without
--force, a dirty orphaned worktree is left alone rather than destroyed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, _, err := newManager()
			if err != nil {
				return err
			}
			result, err := mgr.Clean(cmd.Context(), force)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(result.OrphanedWorkspaces) == 0 && len(result.MissingWorkspaces) == 0 {
				fmt.Fprintln(w, "Nothing to clean.")
				return nil
			}
			for _, path := range result.OrphanedWorkspaces {
				fmt.Fprintf(w, "Removed orphaned worktree %s\n", path)
			}
			for _, name := range result.MissingWorkspaces {
				fmt.Fprintf(w, "Archived %s (workspace missing)\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "remove orphaned worktrees even with uncommitted changes")

	return cmd
}

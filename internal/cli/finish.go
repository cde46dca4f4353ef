package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFinishCmd() *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "finish <session> <message>",
		Short: "Commit a session's changes and archive it",
		Long: `Commit all changes in the session's workspace, promote its branch to a
review branch (its own branch by default, or --branch), tear down
isolation, and archive the session record.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := newManager()
			if err != nil {
				return err
			}
			rec, err := mgr.Finish(cmd.Context(), args[0], args[1], branch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Finished session %q; review branch %q\n", rec.Name, rec.ReviewBranch)
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "review branch name override")

	return cmd
}

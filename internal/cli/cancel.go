package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCancelCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "cancel <session>",
		Short: "Abandon a session, removing its workspace and branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := newManager()
			if err != nil {
				return err
			}
			rec, err := mgr.Cancel(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled session %q\n", rec.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "discard uncommitted changes instead of refusing")

	return cmd
}

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/para-dev/para/internal/state"
)

func newListCmd() *cobra.Command {
	var scopeFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope, err := parseScopeFlag(scopeFlag)
			if err != nil {
				return err
			}
			mgr, _, err := newManager()
			if err != nil {
				return err
			}
			recs, err := mgr.List(cmd.Context(), scope)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPHASE\tBRANCH\tISOLATION\tLAST ACTIVITY")
			for _, rec := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rec.Name, rec.Phase, rec.Branch, rec.Isolation, rec.LastActivity.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&scopeFlag, "scope", "active", "active, archived, or all")

	return cmd
}

func parseScopeFlag(s string) (state.Scope, error) {
	switch s {
	case "", "active":
		return state.ScopeActive, nil
	case "archived":
		return state.ScopeArchived, nil
	case "all":
		return state.ScopeAll, nil
	default:
		return 0, fmt.Errorf("unknown --scope %q: want active, archived, or all", s)
	}
}

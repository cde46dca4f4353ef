package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/para-dev/para/internal/monitor"
)

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Launch the live session dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("monitor requires an interactive terminal; use `para list` when piping or scripting")
			}
			mgr, _, err := newManager()
			if err != nil {
				return err
			}
			p := tea.NewProgram(monitor.New(mgr))
			_, err = p.Run()
			return err
		},
	}
}

// Package cli implements para's command surface: a cobra command tree
// mirroring the teacher's cmd/entire/cli/root.go shape (silence errors at
// cobra level, hidden completion command, PersistentPostRun telemetry),
// with subcommands dispatching one-to-one to session.Manager operations.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/para-dev/para/internal/telemetry"
	"github.com/para-dev/para/internal/versioncheck"
)

// Version and Commit are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const gettingStarted = `

Getting Started:
  Run 'para start' inside a git repository to open a new parallel session.
  Each session gets its own worktree and branch, so you can run several
  agents or editors against the same repository at once without stepping
  on each other.
`

// NewRootCmd builds para's root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "para",
		Short: "Run many isolated coding sessions against one repository",
		Long:  "para orchestrates parallel, isolated coding sessions against a single git repository." + gettingStarted,
		// main.go handles error printing to avoid duplication.
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			_, cfg, err := newManager()
			var enabled *bool
			var agentName, isolation string
			if err == nil {
				enabled = &cfg.Session.Telemetry
				agentName = cfg.Session.DefaultAgent
				isolation = cfg.Session.DefaultIsolation
			}
			client := telemetry.NewClient(Version, enabled)
			defer client.Close()
			client.TrackCommand(cmd, isolation, agentName)

			versioncheck.CheckAndNotify(cmd, Version)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newFinishCmd())
	cmd.AddCommand(newCancelCmd())
	cmd.AddCommand(newRecoverCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newMonitorCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "para %s (%s)\n", Version, Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

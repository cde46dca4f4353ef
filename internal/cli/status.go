package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/para-dev/para/internal/config"
	"github.com/para-dev/para/internal/paths"
	"github.com/para-dev/para/internal/status"
)

const statusDirEnv = "PARA_STATE_DIR"

// newStatusCmd builds the subcommand a driving agent invokes (not a human,
// typically) to publish its current activity to the Status Channel. It
// reads PARA_SESSION and PARA_STATE_DIR from its environment, both set by
// Manager.spawn when the agent process is launched.
func newStatusCmd() *cobra.Command {
	var (
		task           string
		tests          string
		todosCompleted int
		todosTotal     int
		blocked        bool
	)

	cmd := &cobra.Command{
		Use:    "status",
		Short:  "Publish this session's current status (invoked by the driving agent)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := os.Getenv("PARA_SESSION")
			if name == "" {
				return fmt.Errorf("PARA_SESSION is not set; `para status` must run inside an agent session")
			}
			testStatus, err := parseTestStatus(tests)
			if err != nil {
				return err
			}

			ch, err := statusChannelFromEnv()
			if err != nil {
				return err
			}

			report := status.Report{
				SessionName: name,
				Task:        task,
				Tests:       testStatus,
				Todos:       status.Todos{Completed: todosCompleted, Total: todosTotal},
				Blocked:     blocked,
				UpdatedAt:   time.Now(),
			}
			return ch.Write(cmd.Context(), report)
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "short human-readable description of current work")
	cmd.Flags().StringVar(&tests, "tests", "unknown", "passed, failed, or unknown")
	cmd.Flags().IntVar(&todosCompleted, "todos-completed", 0, "number of self-tracked todos completed")
	cmd.Flags().IntVar(&todosTotal, "todos-total", 0, "total number of self-tracked todos")
	cmd.Flags().BoolVar(&blocked, "blocked", false, "mark the session as blocked on a tool call or user input")

	return cmd
}

func parseTestStatus(s string) (status.TestStatus, error) {
	switch status.TestStatus(s) {
	case status.TestsPassed, status.TestsFailed, status.TestsUnknown:
		return status.TestStatus(s), nil
	default:
		return "", fmt.Errorf("unknown --tests %q: want passed, failed, or unknown", s)
	}
}

// statusChannelFromEnv resolves the status directory from PARA_STATE_DIR
// when set (the normal case, inside a spawned session), falling back to
// full repo/config resolution for manual use outside a session.
func statusChannelFromEnv() (*status.FileChannel, error) {
	if dir := os.Getenv(statusDirEnv); dir != "" {
		return status.NewFileChannel(filepath.Join(dir, statusDirName)), nil
	}

	repoRoot, err := paths.RepoRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(repoRoot)
	if err != nil {
		return nil, err
	}
	stateDir, err := resolveStateDir(repoRoot, cfg)
	if err != nil {
		return nil, err
	}
	return status.NewFileChannel(filepath.Join(stateDir, statusDirName)), nil
}

// Package status implements the Status Channel: a small, frequently
// rewritten JSON record per session reporting what the driving agent is
// currently doing, read by the Monitor and by `para list`.
package status

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/para-dev/para/internal/atomicfile"
	paraerrors "github.com/para-dev/para/internal/errors"
	"github.com/para-dev/para/internal/redact"
	"github.com/para-dev/para/internal/validate"
)

// TestStatus is the driving agent's last known test-suite outcome.
type TestStatus string

const (
	TestsUnknown TestStatus = "unknown"
	TestsPassed  TestStatus = "passed"
	TestsFailed  TestStatus = "failed"
)

// Todos reports the agent's self-tracked todo-list progress.
type Todos struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Report is one session's current status, as published by the agent
// driving it (spec.md §4.6: `task`, `tests`, `todos`, `blocked`,
// `updated_at`).
type Report struct {
	SessionName string     `json:"session_name"`
	Task        string     `json:"task,omitempty"` // short human-readable description of current work
	Tests       TestStatus `json:"tests"`
	Todos       Todos      `json:"todos"`
	Blocked     bool       `json:"blocked,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Stale reports whether r was last updated more than threshold ago,
// relative to now. The monitor displays a stale report rather than
// blocking on a fresher one that may never arrive (spec.md §4.6).
func (r Report) Stale(now time.Time, threshold time.Duration) bool {
	return now.Sub(r.UpdatedAt) > threshold
}

// Channel publishes and reads session status reports.
type Channel interface {
	Write(ctx context.Context, r Report) error
	Read(ctx context.Context, sessionName string) (*Report, error)
	List(ctx context.Context) ([]Report, error)
	Remove(ctx context.Context, sessionName string) error
}

// FileChannel is the on-disk Channel implementation: one JSON file per
// session directly under dir, rewritten wholesale on every Write.
type FileChannel struct {
	dir string
}

// NewFileChannel creates a FileChannel rooted at dir (typically
// <repo>/.para/status).
func NewFileChannel(dir string) *FileChannel {
	return &FileChannel{dir: dir}
}

func (c *FileChannel) path(name string) string {
	return filepath.Join(c.dir, name+".json")
}

func (c *FileChannel) Write(ctx context.Context, r Report) error {
	if err := validate.Name(r.SessionName); err != nil {
		return paraerrors.Wrap(paraerrors.KindValidation, "write status report", err)
	}
	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return paraerrors.Wrap(paraerrors.KindIO, "create status directory", err)
	}

	// Task comes from the agent adapter, which may echo shell commands or
	// tool output verbatim; scrub it before it lands in a file the Monitor
	// and `para list` read back.
	r.Task = redact.String(r.Task)

	data, err := json.Marshal(r)
	if err != nil {
		return paraerrors.Wrap(paraerrors.KindIO, "marshal status report", err)
	}
	return atomicfile.Write(c.path(r.SessionName), data)
}

func (c *FileChannel) Read(ctx context.Context, sessionName string) (*Report, error) {
	data, err := os.ReadFile(c.path(sessionName)) //nolint:gosec // path built from validated session name
	if os.IsNotExist(err) {
		return nil, nil //nolint:nilnil // no report published yet is not an error
	}
	if err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIO, "read status report", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIO, "parse status report", err)
	}
	return &r, nil
}

func (c *FileChannel) List(ctx context.Context) ([]Report, error) {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIO, "list status directory", err)
	}

	var out []Report
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		r, err := c.Read(ctx, name)
		if err != nil || r == nil {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (c *FileChannel) Remove(ctx context.Context, sessionName string) error {
	if err := os.Remove(c.path(sessionName)); err != nil && !os.IsNotExist(err) {
		return paraerrors.Wrap(paraerrors.KindIO, "remove status report", err)
	}
	return nil
}

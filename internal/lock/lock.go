// Package lock provides a repository-scoped advisory lock guarding
// concurrent mutation of para's state directory. Every Session Manager
// operation that writes more than one file (state record, status report,
// git worktree) holds this lock for the duration of the mutation so that
// two `para` processes racing on the same repository serialize instead of
// corrupting state.
//
// The locking primitive is platform-specific (see lock_unix.go,
// lock_windows.go); this file defines the shared Lock type and error.
package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	paraerrors "github.com/para-dev/para/internal/errors"
)

// FileName is the lock file created under the state directory.
const FileName = "para.lock"

// ErrLocked is returned by TryAcquire when another process holds the lock.
var ErrLocked = paraerrors.New(paraerrors.KindPrecondition, "repository is locked by another para process")

// Lock is a held advisory lock. Release it with Close.
type Lock struct {
	path string
	impl lockImpl
}

// Acquire blocks (honoring ctx) until the lock at <stateDir>/para.lock is
// obtained, retrying on a short interval while the lock is held elsewhere.
func Acquire(ctx context.Context, stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIO, "create state directory for lock", err)
	}
	path := filepath.Join(stateDir, FileName)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		l, err := TryAcquire(stateDir)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, ErrLocked) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, paraerrors.Wrap(paraerrors.KindPrecondition, "acquire lock", ctx.Err())
		case <-ticker.C:
		}
	}
}

// TryAcquire attempts to obtain the lock once, returning ErrLocked
// immediately if another process holds it.
func TryAcquire(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIO, "create state directory for lock", err)
	}
	path := filepath.Join(stateDir, FileName)

	impl, err := acquireImpl(path)
	if err != nil {
		return nil, err
	}
	return &Lock{path: path, impl: impl}, nil
}

// Close releases the lock.
func (l *Lock) Close() error {
	return l.impl.release()
}

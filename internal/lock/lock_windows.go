//go:build windows

package lock

import (
	"os"

	paraerrors "github.com/para-dev/para/internal/errors"
)

// lockImpl on Windows relies on the exclusive-create semantics of
// os.O_EXCL rather than flock, which has no direct Windows equivalent
// reachable without cgo. The lock file's existence, not its byte-range
// locking, is the mutex: Release removes it.
type lockImpl struct {
	path string
}

func acquireImpl(path string) (lockImpl, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return lockImpl{}, ErrLocked
		}
		return lockImpl{}, paraerrors.Wrap(paraerrors.KindIO, "create lock file", err)
	}
	f.Close()
	return lockImpl{path: path}, nil
}

func (l lockImpl) release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return paraerrors.Wrap(paraerrors.KindIO, "remove lock file", err)
	}
	return nil
}

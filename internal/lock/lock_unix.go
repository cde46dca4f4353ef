//go:build !windows

package lock

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	paraerrors "github.com/para-dev/para/internal/errors"
)

// lockImpl is the platform-specific handle kept alive for the duration of
// the lock.
type lockImpl struct {
	f *os.File
}

func acquireImpl(path string) (lockImpl, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return lockImpl{}, paraerrors.Wrap(paraerrors.KindIO, "open lock file", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return lockImpl{}, ErrLocked
		}
		return lockImpl{}, paraerrors.Wrap(paraerrors.KindIO, "flock lock file", err)
	}

	return lockImpl{f: f}, nil
}

func (l lockImpl) release() error {
	defer l.f.Close()
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		return paraerrors.Wrap(paraerrors.KindIO, "unlock lock file", err)
	}
	return nil
}

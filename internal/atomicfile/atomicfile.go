// Package atomicfile implements the temp-file-then-rename write pattern
// used throughout para wherever a small JSON file must never be observed
// half-written: session records, the status channel, and session metadata
// all go through Write.
package atomicfile

import (
	"fmt"
	"os"

	paraerrors "github.com/para-dev/para/internal/errors"
)

// Write writes data to path atomically: it writes to a sibling temp file,
// fsyncs it, closes it, then renames it over path. The temp file is removed
// on any failure before rename.
func Write(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.tmp-%d", path, os.Getpid())

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return paraerrors.Wrap(paraerrors.KindIO, "create temp file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return paraerrors.Wrap(paraerrors.KindIO, "write temp file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return paraerrors.Wrap(paraerrors.KindIO, "fsync temp file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return paraerrors.Wrap(paraerrors.KindIO, "close temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return paraerrors.Wrap(paraerrors.KindIO, "rename temp file into place", err)
	}
	return nil
}

package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/para-dev/para/internal/atomicfile"
	paraerrors "github.com/para-dev/para/internal/errors"
	"github.com/para-dev/para/internal/jsonutil"
	"github.com/para-dev/para/internal/validate"
	"github.com/para-dev/para/internal/vcs"
)

// Scope selects which records List returns.
type Scope int

const (
	ScopeActive Scope = iota
	ScopeArchived
	ScopeAll
)

const archivedDirName = "archived"

// Store persists session Records under one directory, one JSON file per
// session.
type Store interface {
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, name string) (*Record, error)
	List(ctx context.Context, scope Scope) ([]*Record, error)
	Archive(ctx context.Context, name string) error
	Recover(ctx context.Context, name string) (*Record, error)
	// GetArchived loads an archived record by name without moving it,
	// returning (nil, nil) if none exists. Used by callers (e.g. the
	// Session Manager's recover operation) that need to inspect and modify
	// an archived record themselves before it becomes active, rather than
	// moving it verbatim the way Recover does.
	GetArchived(ctx context.Context, name string) (*Record, error)
	// RemoveArchived deletes an archived record's file. Used together with
	// GetArchived + Put when a caller writes its own modified record to the
	// active directory instead of using Recover's verbatim move.
	RemoveArchived(ctx context.Context, name string) error
	Scan(ctx context.Context, adapter vcs.Adapter) (ScanResult, error)
}

// ScanResult reports discrepancies found between recorded state and the
// repository's actual worktrees.
type ScanResult struct {
	// OrphanedWorkspaces are git worktrees with no matching active record.
	OrphanedWorkspaces []string
	// MissingWorkspaces are active records whose worktree directory no
	// longer exists on disk.
	MissingWorkspaces []string
}

// FileStore is the on-disk Store implementation: one JSON file per active
// session directly under dir, archived sessions moved to dir/archived/.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir (typically
// <repo>/.para/sessions). The directory is created lazily on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) activePath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) archivedPath(name string) string {
	return filepath.Join(s.dir, archivedDirName, name+".json")
}

// Put writes rec atomically: marshal to a temp file in the same directory,
// fsync it, then rename over the destination. The fsync (absent from the
// teacher's equivalent metadata.Save) is required here because a session
// record must survive a crash immediately after Put returns -- Invariant 2
// in spec.md depends on state surviving an unexpected process exit.
func (s *FileStore) Put(ctx context.Context, rec *Record) error {
	if err := validate.Name(rec.Name); err != nil {
		return paraerrors.Wrap(paraerrors.KindValidation, "put session record", err)
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return paraerrors.Wrap(paraerrors.KindIO, "create state directory", err)
	}

	data, err := jsonutil.MarshalIndentWithNewline(rec, "", "  ")
	if err != nil {
		return paraerrors.Wrap(paraerrors.KindIO, "marshal session record", err)
	}

	return atomicfile.Write(s.activePath(rec.Name), data)
}

// Get loads an active session record by name. Returns (nil, nil) if no
// active record exists with that name (not an error condition, matching
// the teacher's Load semantics).
func (s *FileStore) Get(ctx context.Context, name string) (*Record, error) {
	return loadFile(s.activePath(name))
}

func loadFile(path string) (*Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path built from validated session names
	if os.IsNotExist(err) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIO, "read session record", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIO, "parse session record", err)
	}
	return &rec, nil
}

// List returns records in the requested scope, sorted by name.
func (s *FileStore) List(ctx context.Context, scope Scope) ([]*Record, error) {
	var out []*Record

	if scope == ScopeActive || scope == ScopeAll {
		recs, err := listDir(s.dir)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	if scope == ScopeArchived || scope == ScopeAll {
		recs, err := listDir(filepath.Join(s.dir, archivedDirName))
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func listDir(dir string) ([]*Record, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, paraerrors.Wrap(paraerrors.KindIO, "list state directory", err)
	}

	var out []*Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		rec, err := loadFile(filepath.Join(dir, entry.Name()))
		if err != nil || rec == nil {
			continue // skip unreadable/corrupt records rather than fail the whole list
		}
		out = append(out, rec)
	}
	return out, nil
}

// Archive moves an active session record to the archived/ subdirectory,
// preserving its JSON file rather than deleting it so `para list
// --archived` can still show completed sessions.
func (s *FileStore) Archive(ctx context.Context, name string) error {
	rec, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if rec == nil {
		return paraerrors.New(paraerrors.KindPrecondition, "no active session named "+name)
	}

	if err := os.MkdirAll(filepath.Join(s.dir, archivedDirName), 0o750); err != nil {
		return paraerrors.Wrap(paraerrors.KindIO, "create archive directory", err)
	}

	data, err := jsonutil.MarshalIndentWithNewline(rec, "", "  ")
	if err != nil {
		return paraerrors.Wrap(paraerrors.KindIO, "marshal session record", err)
	}

	if err := atomicfile.Write(s.archivedPath(name), data); err != nil {
		return err
	}
	if err := os.Remove(s.activePath(name)); err != nil && !os.IsNotExist(err) {
		return paraerrors.Wrap(paraerrors.KindIO, "remove active session record", err)
	}
	return nil
}

// Recover moves an archived session record back to the active directory,
// used by `para resume` on an archived session name.
func (s *FileStore) Recover(ctx context.Context, name string) (*Record, error) {
	rec, err := loadFile(s.archivedPath(name))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, paraerrors.New(paraerrors.KindPrecondition, "no archived session named "+name)
	}

	if err := s.Put(ctx, rec); err != nil {
		return nil, err
	}
	if err := os.Remove(s.archivedPath(name)); err != nil && !os.IsNotExist(err) {
		return nil, paraerrors.Wrap(paraerrors.KindIO, "remove archived session record", err)
	}
	return rec, nil
}

// GetArchived loads an archived session record by name. Returns (nil, nil)
// if no archived record exists with that name.
func (s *FileStore) GetArchived(ctx context.Context, name string) (*Record, error) {
	return loadFile(s.archivedPath(name))
}

// RemoveArchived deletes an archived session record's file.
func (s *FileStore) RemoveArchived(ctx context.Context, name string) error {
	if err := os.Remove(s.archivedPath(name)); err != nil && !os.IsNotExist(err) {
		return paraerrors.Wrap(paraerrors.KindIO, "remove archived session record", err)
	}
	return nil
}

// Scan reconciles active records against the repository's actual git
// worktrees, surfacing orphaned worktrees (no record) and missing
// worktrees (a record whose directory vanished, e.g. deleted outside
// para).
func (s *FileStore) Scan(ctx context.Context, adapter vcs.Adapter) (ScanResult, error) {
	var result ScanResult

	records, err := s.List(ctx, ScopeActive)
	if err != nil {
		return result, err
	}
	byPath := make(map[string]*Record, len(records))
	for _, rec := range records {
		byPath[rec.WorkspacePath] = rec
		if _, err := os.Stat(rec.WorkspacePath); os.IsNotExist(err) {
			result.MissingWorkspaces = append(result.MissingWorkspaces, rec.Name)
		}
	}

	workspaces, err := adapter.ListWorkspaces(ctx)
	if err != nil {
		return result, err
	}
	for _, ws := range workspaces {
		if _, ok := byPath[ws.Path]; !ok && strings.Contains(ws.Path, string(filepath.Separator)+"worktrees"+string(filepath.Separator)) {
			result.OrphanedWorkspaces = append(result.OrphanedWorkspaces, ws.Path)
		}
	}

	return result, nil
}

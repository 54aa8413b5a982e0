package docconv

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// preferredTempDir is a memory-backed filesystem used for staging when
// available. Falls back to the system temp directory otherwise.
const preferredTempDir = "/dev/shm"

// workspacePrefix names workspace directories so stray ones are
// recognizable in a filesystem listing.
const workspacePrefix = "docconv-"

// Workspace is an exclusively owned ephemeral directory for one
// conversion attempt, plus an extension-less file stem inside it.
// The input is staged at Stem+".<from>" and the converter is expected
// to write Stem+".<to>" next to it.
//
// Destroy is idempotent and never propagates failures: cleanup is a
// best-effort final step on every exit path.
type Workspace struct {
	Dir  string
	Stem string

	log       *zap.Logger
	destroyed atomic.Bool
}

// NewWorkspace creates a uniquely named directory under baseDir.
// An empty baseDir selects the preferred fast directory when writable,
// else the system temp directory.
func NewWorkspace(baseDir string, log *zap.Logger) (*Workspace, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if baseDir == "" {
		baseDir = defaultTempBase()
	}

	dir := filepath.Join(baseDir, workspacePrefix+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	return &Workspace{
		Dir:  dir,
		Stem: filepath.Join(dir, "document"),
		log:  log,
	}, nil
}

// InputPath returns the staging path for the given source format.
func (w *Workspace) InputPath(format string) string {
	return w.Stem + "." + format
}

// OutputPath returns where the converter is expected to write the
// artifact for the given target format.
func (w *Workspace) OutputPath(format string) string {
	return w.Stem + "." + format
}

// Destroy recursively removes the workspace directory. Safe to call
// zero, one, or more times; failures are logged, never returned.
func (w *Workspace) Destroy() {
	if !w.destroyed.CompareAndSwap(false, true) {
		return
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		w.log.Warn("workspace cleanup failed",
			zap.String("dir", w.Dir),
			zap.Error(err),
		)
	}
}

// Destroyed reports whether Destroy has run.
func (w *Workspace) Destroyed() bool { return w.destroyed.Load() }

// ReleaseOnClose transfers workspace ownership to the returned reader:
// closing it closes rc and then destroys the workspace. Used when an
// on-disk artifact must outlive the conversion stage, making response
// completion the cleanup trigger.
func (w *Workspace) ReleaseOnClose(rc io.ReadCloser) io.ReadCloser {
	return &owningReader{rc: rc, ws: w}
}

type owningReader struct {
	rc io.ReadCloser
	ws *Workspace
}

func (r *owningReader) Read(p []byte) (int, error) { return r.rc.Read(p) }

func (r *owningReader) Close() error {
	err := r.rc.Close()
	r.ws.Destroy()
	return err
}

// defaultTempBase prefers the memory-backed directory when it exists
// and accepts writes, probed with a throwaway file.
func defaultTempBase() string {
	info, err := os.Stat(preferredTempDir)
	if err != nil || !info.IsDir() {
		return os.TempDir()
	}
	probe, err := os.CreateTemp(preferredTempDir, ".docconv-probe-*")
	if err != nil {
		return os.TempDir()
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return preferredTempDir
}

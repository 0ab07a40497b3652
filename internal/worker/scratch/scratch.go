// Package scratch owns the temporary files of a generation job. Every file is
// created through a per-job Scope and removed by Scope.Release unless its
// ownership was handed to the caller.
package scratch

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"reelgen/internal/pkg/errors"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/pkg/metrics"
)

// Manager hands out job scopes rooted in one directory.
type Manager struct {
	dir string
	log *logger.Logger
}

func NewManager(dir string, log *logger.Logger) *Manager {
	if dir == "" {
		dir = os.TempDir()
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Manager{dir: dir, log: log.WithComponent("scratch")}
}

func (m *Manager) Dir() string { return m.dir }

// NewScope starts tracking files for one job.
func (m *Manager) NewScope(jobID string) *Scope {
	return &Scope{
		jobID: jobID,
		dir:   m.dir,
		log:   m.log.WithJobID(jobID),
	}
}

// Scope tracks the temporary files of a single job.
type Scope struct {
	jobID string
	dir   string
	log   *logger.Logger

	mu       sync.Mutex
	files    []*File
	outputs  []*Output
	released bool
}

func (s *Scope) JobID() string { return s.jobID }

// Create opens a new empty file named <job>-<pattern>. The last "*" in pattern
// is replaced by a random string, as with os.CreateTemp.
func (s *Scope) Create(pattern string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, errors.New(errors.CodeResource, "scope already released").WithField("job_id", s.jobID)
	}

	f, err := os.CreateTemp(s.dir, s.prefixed(pattern))
	if err != nil {
		return nil, errors.ResourceFailed("scratch.create", s.dir, err)
	}

	file := &File{f: f, path: f.Name()}
	s.files = append(s.files, file)
	return file, nil
}

// Release removes every tracked file that was not handed over. It keeps going
// after a failure and returns all failures joined. Calling it twice is a no-op.
func (s *Scope) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true

	var errs []error
	for _, o := range s.outputs {
		if err := o.Discard(); err != nil {
			errs = append(errs, s.cleanupFailed(o.path, err))
		}
	}
	for _, f := range s.files {
		if err := f.Remove(); err != nil {
			errs = append(errs, s.cleanupFailed(f.path, err))
		}
	}
	s.files = nil
	s.outputs = nil

	return stderrors.Join(errs...)
}

func (s *Scope) cleanupFailed(path string, err error) error {
	metrics.CleanupErrors.Inc()
	e := errors.ResourceFailed("scratch.release", path, err)
	s.log.Warn("temporary file cleanup failed", e.LogArgs()...)
	return e
}

func (s *Scope) prefixed(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = "*"
	}
	if s.jobID == "" {
		return pattern
	}
	return SanitizeName(s.jobID) + "-" + pattern
}

// SanitizeName strips path separators and traversal from a name fragment.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "..", "")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return "job"
	}
	return s
}

// File is a temporary file exclusively owned by one scope.
type File struct {
	mu      sync.Mutex
	f       *os.File
	path    string
	removed bool
}

func (f *File) Path() string { return f.path }

func (f *File) Write(p []byte) (int, error) { return f.f.Write(p) }

// Sync flushes written bytes to disk.
func (f *File) Sync() error { return f.f.Sync() }

// Close closes the handle and leaves the file on disk.
func (f *File) Close() error {
	if err := f.f.Close(); err != nil && !stderrors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// Remove closes and deletes the file. It is idempotent.
func (f *File) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removed {
		return nil
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.path, err)
	}
	if err := os.Remove(f.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return err
	}
	f.removed = true
	return nil
}

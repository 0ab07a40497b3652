package scratch

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"reelgen/internal/pkg/errors"
)

// ErrEmptyOutput marks an output file the engine never wrote to.
var ErrEmptyOutput = stderrors.New("render output is empty")

// Output is the file the render engine writes into. Until Commit it belongs to
// the scope and is deleted by Release.
type Output struct {
	mu        sync.Mutex
	path      string
	final     string
	committed bool
}

// Output reserves the engine's output file. With an empty finalPath the engine
// writes into a scope file <job>-video-*.mp4 that is handed to the caller on
// Commit. Otherwise it writes into a hidden sibling of finalPath which Commit
// renames over finalPath, so finalPath only ever holds a complete video.
func (s *Scope) Output(finalPath string) (*Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, errors.New(errors.CodeResource, "scope already released").WithField("job_id", s.jobID)
	}

	dir, pattern := s.dir, s.prefixed("video-*.mp4")
	if finalPath != "" {
		abs, err := filepath.Abs(finalPath)
		if err != nil {
			return nil, errors.ResourceFailed("scratch.output", finalPath, err)
		}
		finalPath = abs
		dir = filepath.Dir(finalPath)
		// The engine picks its muxer from the extension, so the temp name keeps it.
		ext := filepath.Ext(finalPath)
		stem := strings.TrimSuffix(filepath.Base(finalPath), ext)
		pattern = "." + stem + "-*" + ext
	}

	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, errors.ResourceFailed("scratch.output", dir, err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, errors.ResourceFailed("scratch.output", path, err)
	}

	o := &Output{path: path, final: finalPath}
	s.outputs = append(s.outputs, o)
	return o, nil
}

// Path is where the engine must write.
func (o *Output) Path() string { return o.path }

// Commit hands the rendered file to the caller and returns its final path.
// The file must exist and be non-empty; a fixed destination is replaced
// atomically.
func (o *Output) Commit() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.committed {
		return o.destination(), nil
	}

	f, err := os.OpenFile(o.path, os.O_RDWR, 0)
	if err != nil {
		return "", errors.ResourceFailed("scratch.commit", o.path, err)
	}
	info, err := f.Stat()
	if err == nil && info.Size() == 0 {
		err = ErrEmptyOutput
	}
	if err != nil {
		_ = f.Close()
		return "", errors.ResourceFailed("scratch.commit", o.path, err)
	}
	syncErr := f.Sync()
	closeErr := f.Close()
	if err := stderrors.Join(syncErr, closeErr); err != nil {
		return "", errors.ResourceFailed("scratch.commit", o.path, err)
	}

	if o.final != "" {
		if err := os.Rename(o.path, o.final); err != nil {
			return "", errors.ResourceFailed("scratch.commit", o.final, err)
		}
		syncDir(filepath.Dir(o.final))
	}

	o.committed = true
	return o.destination(), nil
}

// Discard deletes the uncommitted file. A committed output is left alone.
func (o *Output) Discard() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.committed {
		return nil
	}
	if err := os.Remove(o.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (o *Output) destination() string {
	if o.final != "" {
		return o.final
	}
	return o.path
}

// syncDir persists a rename. Not every platform can open a directory for
// syncing, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

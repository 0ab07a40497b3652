//go:build !windows

package localfs

import (
	"io"

	"github.com/google/renameio/v2"
)

// writeAtomic streams r into a pending file next to dst, then fsyncs and
// renames it over dst.
func writeAtomic(dst string, r io.Reader) (int64, error) {
	pending, err := renameio.NewPendingFile(dst, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, err
	}
	// No-op once the file has been committed.
	defer func() { _ = pending.Cleanup() }()

	n, err := io.Copy(pending, r)
	if err != nil {
		return n, err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return n, err
	}
	return n, nil
}

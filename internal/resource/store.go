package resource

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Store opens named game data files (MEMLIST.BIN, BANK01..BANK0D) for
// reading. The catalog only ever needs sequential reads and seeks, so any
// byte-range reader can back it.
type Store interface {
	Open(name string) (io.ReadSeekCloser, error)
}

// DirStore serves game data files out of a single directory.
type DirStore struct {
	basePath string
}

// NewDirStore returns a Store rooted at basePath.
func NewDirStore(basePath string) DirStore {
	return DirStore{basePath: basePath}
}

// Open opens the named data file under the store's directory.
func (s DirStore) Open(name string) (io.ReadSeekCloser, error) {
	path := filepath.Join(s.basePath, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open data file %q", path)
	}
	return f, nil
}

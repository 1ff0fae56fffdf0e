// Package romfile is the named configuration-blob store the firmware
// consults for externally supplied table fragments, keyed by path-like
// names such as "etc/smbios/smbios-tables".
package romfile

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/firmcore/fwtables/log"
)

const xzSuffix = ".xz"

// File is one named blob. Size and Copy are the whole contract the
// table code relies on.
type File struct {
	Name string

	data []byte
}

func (f *File) Size() int {
	return len(f.data)
}

// Copy fills dst with at most Size bytes and returns how many were
// written.
func (f *File) Copy(dst []byte) int {
	return copy(dst, f.data)
}

type Store struct {
	files map[string]*File
}

func NewStore() *Store {
	return &Store{files: make(map[string]*File)}
}

// Add registers a blob under name, replacing any previous entry.
func (s *Store) Add(name string, data []byte) {
	s.files[name] = &File{Name: name, data: data}
}

// Find returns the named file, or nil. A missing name means the caller
// falls back to its legacy path; it is not an error.
func (s *Store) Find(name string) *File {
	return s.files[name]
}

// LoadDir populates the store from a directory tree. Entry names are
// slash-separated paths relative to dir. Files ending in ".xz" are
// decompressed transparently and registered without the suffix.
func (s *Store) LoadDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		name := filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("romfile %s: %w", name, err)
		}

		if strings.HasSuffix(name, xzSuffix) {
			data, err = decompress(data)
			if err != nil {
				return fmt.Errorf("romfile %s: %w", name, err)
			}

			name = strings.TrimSuffix(name, xzSuffix)
		}

		log.Debugf("romfile %s (%d bytes)", name, len(data))
		s.Add(name, data)

		return nil
	})
}

func decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return io.ReadAll(r)
}

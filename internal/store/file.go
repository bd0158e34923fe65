package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Persistence is the port the store writes through. Load reports found=false
// for a missing document, which is not an error.
type Persistence interface {
	Load() (data []byte, found bool, err error)
	Save(data []byte) error
}

// Quarantiner is implemented by ports that can move an unreadable document
// out of the way so a fresh one can be started without destroying evidence.
type Quarantiner interface {
	Quarantine() (string, error)
}

// FilePersistence keeps the document in a single JSON file. Saves go through
// a temp file in the same directory plus a rename, so a crashed write never
// leaves a half-document behind.
type FilePersistence struct {
	path string
	now  func() time.Time
}

func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{path: path, now: time.Now}
}

func (f *FilePersistence) Load() ([]byte, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", f.path, err)
	}
	return data, true, nil
}

func (f *FilePersistence) Save(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}

// Quarantine renames a corrupt document aside and reports where it went.
func (f *FilePersistence) Quarantine() (string, error) {
	dest := fmt.Sprintf("%s.corrupt-%d", f.path, f.now().Unix())
	if err := os.Rename(f.path, dest); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", f.path, err)
	}
	return dest, nil
}

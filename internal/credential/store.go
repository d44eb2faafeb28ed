package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	// FilePerms restricts the token file to owner-only read/write.
	FilePerms = 0o600
	// DirPerms is used when creating the token directory.
	DirPerms = 0o700
)

// ErrCorrupt marks a token file that exists but cannot be decoded.
var ErrCorrupt = errors.New("token file is corrupt")

// Store persists the single process-wide credential.
type Store interface {
	// Load returns (nil, nil) when nothing has been stored yet and an error
	// wrapping ErrCorrupt when the stored data cannot be decoded.
	Load() (*Credential, error)
	// Save replaces the stored credential wholesale.
	Save(c *Credential) error
}

// FileStore keeps the credential as JSON in one file.
type FileStore struct {
	fs   afero.Fs
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store at path on the given filesystem. A nil fs means the OS filesystem.
func NewFileStore(fsys afero.Fs, path string) *FileStore {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileStore{fs: fsys, path: path}
}

// Path returns the token file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the token file.
func (s *FileStore) Load() (*Credential, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // nothing stored yet
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: reading %s: %w", s.path, err)
	}

	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("tokenstore: decoding %s: %w: %w", s.path, ErrCorrupt, err)
	}
	return &c, nil
}

// Save writes the credential atomically: temp file in the same directory,
// fsync, then rename over the old file. A failure at any step leaves the
// previous file untouched.
func (s *FileStore) Save(c *Credential) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenstore: encoding: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, DirPerms); err != nil {
		return fmt.Errorf("tokenstore: creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenstore: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = s.fs.Remove(tmpPath)
		}
	}()

	if err := s.fs.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: setting permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: writing: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: syncing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: closing: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("tokenstore: renaming: %w", err)
	}

	success = true
	return nil
}

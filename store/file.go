package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

const fileMode = 0o600

// FileStore persists the token in a small JSON document. Writes go to a
// temporary file that is renamed over the target, so readers never see a
// partial document.
type FileStore struct {
	mu   sync.Mutex
	path string
	opts options
}

// DefaultPath returns <user config dir>/campus/session.json
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "cannot locate user config directory")
	}
	return filepath.Join(dir, "campus", "session.json"), nil
}

// NewFileStore returns a store backed by the file at path. The file and its
// directory are created on the first Write.
func NewFileStore(path string, opts ...Option) *FileStore {
	return &FileStore{
		path: path,
		opts: newOptions(opts),
	}
}

// Path returns the backing file location
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Read() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		s.opts.logger.Error("token file %s unreadable, treating as empty: %v", s.path, err)
		return "", false
	}

	token, ok := doc[s.opts.key]
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (s *FileStore) Write(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		s.opts.logger.Info("replacing unreadable token file %s: %v", s.path, err)
		doc = map[string]string{}
	}
	doc[s.opts.key] = token
	return s.save(doc)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		doc = map[string]string{}
	}
	if _, ok := doc[s.opts.key]; !ok && err == nil {
		return nil
	}
	delete(doc, s.opts.key)

	if len(doc) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove token file")
		}
		return nil
	}
	return s.save(doc)
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	doc := map[string]string{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) save(doc map[string]string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode token file")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create token directory")
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create temporary token file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write token file")
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set token file mode")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sync token file")
	}
	if err := tmp.Close(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to close token file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace token file")
	}
	return nil
}

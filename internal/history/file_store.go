package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps the history in a YAML file so it survives between CLI runs.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	return s.write(slices.Insert(entries, 0, entry))
}

func (s *FileStore) List(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("os.Remove(%s) > %w", s.path, err)
	}
	return nil
}

func (s *FileStore) read() ([]Entry, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", s.path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	var entries []Entry
	if err := yaml.NewDecoder(file).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("yaml.NewDecoder().Decode(%s) > %w", s.path, err)
	}
	return entries, nil
}

// write replaces the history file atomically: entries are encoded into a
// temporary file in the same directory, which is then renamed over the file.
func (s *FileStore) write(entries []Entry) (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp(%s) > %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(file.Name())
		}
	}()

	if err := yaml.NewEncoder(file).Encode(entries); err != nil {
		return fmt.Errorf("yaml.NewEncoder().Encode(%s) > %w", file.Name(), err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("file.Sync(%s) > %w", file.Name(), err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("file.Close(%s) > %w", file.Name(), err)
	}
	if err := os.Rename(file.Name(), s.path); err != nil {
		return fmt.Errorf("os.Rename(%s) > %w", s.path, err)
	}
	return nil
}

// Package localstore is the device-local key/value storage the cart persists to.
package localstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// ErrNotExist is returned by Read when no record is stored under the key.
var ErrNotExist = errors.New("localstore: key not found")

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Storage reads and writes whole records by key.
type Storage interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Delete(key string) error
}

// FileStorage keeps one file per key in a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage creates dir if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) Read(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return data, err
}

// Write replaces the record atomically via a temp file and rename.
func (s *FileStorage) Write(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStorage) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStorage) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("localstore: invalid key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// MemoryStorage is an in-process Storage, used by tests and guest sessions
// that should not touch disk.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

func (s *MemoryStorage) Read(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[key]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStorage) Write(key string, data []byte) error {
	s.mu.Lock()
	s.records[key] = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

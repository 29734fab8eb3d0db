package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// HomeDirName is the default state directory name under $HOME.
	HomeDirName = ".servwatch"
	// ConfigFile is the root configuration document file name.
	ConfigFile = "config.json"
)

// Home resolves the state directory: SERVWATCH_HOME if set, otherwise
// ~/.servwatch. Failing to resolve a home directory is the one startup
// condition that justifies aborting.
func Home() (string, error) {
	if h := strings.TrimSpace(os.Getenv("SERVWATCH_HOME")); h != "" {
		if strings.HasPrefix(h, "~") {
			base, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home dir: %w", err)
			}
			return filepath.Join(base, h[1:]), nil
		}
		return h, nil
	}
	base, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(base, HomeDirName), nil
}

// Store is a JSON document store for one file. Reads substitute the default
// document when the file does not exist; writes go through a temp file plus
// rename so a crash never leaves a partial document. One mutex serializes
// all readers and writers of the same store, so read-modify-write through
// Update never interleaves with a concurrent write.
type Store[T any] struct {
	mu       sync.Mutex
	path     string
	defaults func() T
}

// NewStore creates a store for the document at path.
func NewStore[T any](path string, defaults func() T) *Store[T] {
	return &Store[T]{path: path, defaults: defaults}
}

// Path returns the backing file path.
func (s *Store[T]) Path() string { return s.path }

// Read loads the document, or returns the default when the file is absent.
func (s *Store[T]) Read() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store[T]) read() (T, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.defaults(), nil
		}
		var zero T
		return zero, fmt.Errorf("read %s: %w", s.path, err)
	}
	doc := s.defaults()
	if err := json.Unmarshal(data, &doc); err != nil {
		var zero T
		return zero, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return doc, nil
}

// Write atomically replaces the document.
func (s *Store[T]) Write(doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(doc)
}

func (s *Store[T]) write(doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Update runs a read-modify-write cycle under the store lock. fn may return
// an error to abort without writing.
func (s *Store[T]) Update(fn func(doc *T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.write(doc)
}

// OpenConfigStore opens the root configuration store under the state dir.
func OpenConfigStore() (*Store[Config], error) {
	home, err := Home()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(home, ConfigFile), func() Config { return Config{} }), nil
}

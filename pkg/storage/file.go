package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/pagecraft/pkg/value"
)

// FileStore keeps each namespace in <dir>/<locale>/<namespace>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted at it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create translations dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(locale, namespace string) string {
	return filepath.Join(s.dir, locale, namespace+".json")
}

func (s *FileStore) Read(ctx context.Context, locale, namespace string) (value.Map, error) {
	if err := validate(locale, namespace); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(locale, namespace))
	if err != nil {
		if os.IsNotExist(err) {
			return value.Map{}, nil
		}
		return nil, persistErr("read", locale, namespace, err)
	}
	var m value.Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, persistErr("parse", locale, namespace, err)
	}
	if m == nil {
		m = value.Map{}
	}
	return m, nil
}

func (s *FileStore) Write(ctx context.Context, locale, namespace string, m value.Map) error {
	if err := validate(locale, namespace); err != nil {
		return err
	}
	if m == nil {
		m = value.Map{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return persistErr("encode", locale, namespace, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(locale, namespace)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return persistErr("write", locale, namespace, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return persistErr("write", locale, namespace, err)
	}
	return nil
}

func (s *FileStore) Namespaces(ctx context.Context, locale string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, locale))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", locale, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	slices.Sort(out)
	return out, nil
}

// Close does nothing.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)

package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/pagecraft/pkg/value"
)

// MemoryStore keeps namespaces in memory. Values are copied on the way in
// and out.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]value.Map

	// FailWrites, when set, is returned by every Write. Tests use it to
	// exercise persistence failures.
	FailWrites error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]value.Map)}
}

func (s *MemoryStore) Read(ctx context.Context, locale, namespace string) (value.Map, error) {
	if err := validate(locale, namespace); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.data[locale][namespace]; ok {
		return m.Clone(), nil
	}
	return value.Map{}, nil
}

func (s *MemoryStore) Write(ctx context.Context, locale, namespace string, m value.Map) error {
	if err := validate(locale, namespace); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return persistErr("write", locale, namespace, s.FailWrites)
	}
	if s.data[locale] == nil {
		s.data[locale] = make(map[string]value.Map)
	}
	if m == nil {
		m = value.Map{}
	}
	s.data[locale][namespace] = m.Clone()
	return nil
}

func (s *MemoryStore) Namespaces(ctx context.Context, locale string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for ns := range s.data[locale] {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out, nil
}

// Close does nothing.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

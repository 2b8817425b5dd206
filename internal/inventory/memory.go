package inventory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/ruitoque/fronteras/internal/models"
)

// MemorySource is an in-process Source keyed by period.
type MemorySource struct {
	mu        sync.RWMutex
	files     map[string]map[string][]byte
	connected bool
	current   string

	// ConnectErr and ListErr force failures when set.
	ConnectErr error
	ListErr    error
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{files: make(map[string]map[string][]byte)}
}

// Put publishes a file for a period.
func (s *MemorySource) Put(period models.Period, name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := period.String()
	if s.files[dir] == nil {
		s.files[dir] = make(map[string][]byte)
	}
	s.files[dir][name] = data
}

func (s *MemorySource) Connect(ctx context.Context) error {
	if s.ConnectErr != nil {
		return s.ConnectErr
	}
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *MemorySource) List(ctx context.Context, period models.Period) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil, ErrNotConnected
	}
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.current = period.String()
	names := make([]string, 0, len(s.files[s.current]))
	for name := range s.files[s.current] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemorySource) Retrieve(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, ErrNotConnected
	}
	data, ok := s.files[s.current][name]
	if !ok {
		return nil, fmt.Errorf("retrieve %s: %w", name, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemorySource) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// ListErr and UploadErr force failures when set.
	ListErr   error
	UploadErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) List(ctx context.Context, folder string) ([]Item, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, 0)
	for key, data := range s.docs {
		if path.Dir(key) == path.Clean(folder) {
			items = append(items, Item{Name: path.Base(key), Size: int64(len(data)), Modified: time.Time{}})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *MemoryStore) Download(ctx context.Context, folder, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[path.Join(folder, name)]
	if !ok {
		return nil, fmt.Errorf("download %s/%s: %w", folder, name, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Upload(ctx context.Context, folder, name string, data []byte) error {
	if s.UploadErr != nil {
		return s.UploadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path.Join(folder, name)] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, folder, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := path.Join(folder, name)
	if _, ok := s.docs[key]; !ok {
		return fmt.Errorf("delete %s: %w", key, ErrNotFound)
	}
	delete(s.docs, key)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

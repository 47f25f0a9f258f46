// Package artifact keeps generated design files (scene JSON, drawings,
// reports) in object storage, keyed by design ID.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("artifact: not found")

type Store interface {
	Put(ctx context.Context, designID, name, contentType string, content []byte) error
	Get(ctx context.Context, designID, name string) ([]byte, error)
	List(ctx context.Context, designID string) ([]string, error)
	// URL returns a time-limited download link, or "" when the store cannot serve one.
	URL(ctx context.Context, designID, name string) (string, error)
}

func objectKey(designID, name string) (string, error) {
	designID = strings.Trim(strings.TrimSpace(designID), "/")
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if designID == "" {
		return "", errors.New("design id is required")
	}
	if name == "" {
		return "", errors.New("artifact name is required")
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("artifact name %q is not allowed", name)
	}
	return designID + "/" + name, nil
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, designID, name, _ string, content []byte) error {
	key, err := objectKey(designID, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, designID, name string) ([]byte, error) {
	key, err := objectKey(designID, name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) List(_ context.Context, designID string) ([]string, error) {
	prefix := strings.Trim(strings.TrimSpace(designID), "/") + "/"
	if prefix == "/" {
		return nil, errors.New("design id is required")
	}
	s.mu.RLock()
	out := []string{}
	for key := range s.data {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			out = append(out, name)
		}
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) URL(context.Context, string, string) (string, error) {
	return "", nil
}

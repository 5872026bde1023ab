package storage

import (
	"context"
	"strings"
	"sync"
)

var _ ObjectStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps objects in process memory. It backs local
// development when no bucket is configured, and tests.
type MemoryObjectStorage struct {
	// BaseURL prefixes returned URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string]Object
}

// Object is a stored object
type Object struct {
	Data        []byte
	ContentType string
}

// NewMemoryObjectStorage creates an empty store
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/storage"
	}
	return &MemoryObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

// Upload stores a copy of data
func (s *MemoryObjectStorage) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	s.mu.Lock()
	s.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	s.mu.Unlock()
	return s.BaseURL + "/" + key, nil
}

// Delete removes the object
func (s *MemoryObjectStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Get returns a stored object
func (s *MemoryObjectStorage) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

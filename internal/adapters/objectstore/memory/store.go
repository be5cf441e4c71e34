// Package memory es un object store en memoria para dev y tests. No firma URLs:
// las descargas se sirven por stream.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"family-care/internal/ports/objectstore"
)

type Store struct {
	mu      sync.RWMutex
	objects map[string]objectstore.Object
}

func NewStore() *Store {
	return &Store{objects: make(map[string]objectstore.Object)}
}

func (s *Store) Put(ctx context.Context, path, contentType string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("object path required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[path] = objectstore.Object{Path: path, ContentType: contentType, Data: cp}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (objectstore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[path]
	if !ok {
		return objectstore.Object{}, objectstore.ErrNotFound
	}
	return o, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[path]; !ok {
		return objectstore.ErrNotFound
	}
	delete(s.objects, path)
	return nil
}

func (s *Store) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return "", objectstore.ErrNotSupported
}

// Len cuenta los objetos guardados.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ objectstore.Store = (*Store)(nil)

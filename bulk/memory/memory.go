// Package memory provides an in-process blob store for bulk data. It backs
// tests and short-lived tools that never persist data.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jacentio/geoobject/bulk"
)

// Store keeps blobs in a map. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	puts  int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// NewClient returns a data client over a fresh store, along with the store.
func NewClient() (*bulk.DataClient, *Store) {
	s := NewStore()
	return bulk.NewClient(s, nil), s
}

// Put implements bulk.BlobStore.
func (s *Store) Put(_ context.Context, ref string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = slices.Clone(data)
	s.puts++
	return nil
}

// Get implements bulk.BlobStore.
func (s *Store) Get(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bulk.ErrNotFound, ref)
	}
	return slices.Clone(data), nil
}

// Delete implements bulk.BlobStore.
func (s *Store) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, ref)
	return nil
}

// Has reports whether ref is stored.
func (s *Store) Has(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[ref]
	return ok
}

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Uploads returns the number of Put calls served, including duplicates.
func (s *Store) Uploads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

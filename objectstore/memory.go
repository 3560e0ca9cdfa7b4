package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/model"
)

type memoryRecord struct {
	path      string
	doc       model.Document
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore is an in-process Service. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*memoryRecord
	byPath map[string]string
	data   bulk.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewMemoryStore creates an empty store whose objects use data for bulk
// data.
func NewMemoryStore(data bulk.Client, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		byID:   make(map[string]*memoryRecord),
		byPath: make(map[string]string),
		data:   data,
		logger: logger,
		now:    time.Now,
	}
}

// Create implements Service.
func (s *MemoryStore) Create(_ context.Context, doc model.Document, opts CreateOptions) (*Object, error) {
	p, err := ResolvePath(doc, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byPath[p]; ok {
		return nil, &AlreadyExistsError{Path: p, ExistingID: existing}
	}
	id := uuid.NewString()
	now := s.now().UTC()
	rec := &memoryRecord{
		path:      p,
		doc:       prepareDocument(doc, id),
		version:   1,
		createdAt: now,
		updatedAt: now,
	}
	s.byID[id] = rec
	s.byPath[p] = id
	s.logger.Debug("created object", "id", id, "path", p)
	return s.handle(id, rec), nil
}

// Replace implements Service.
func (s *MemoryStore) Replace(ctx context.Context, ref string, doc model.Document, createIfMissing bool) (*Object, error) {
	return replace(ctx, s, ref, doc, createIfMissing)
}

func (s *MemoryStore) update(_ context.Context, id string, doc model.Document) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := *rec
	next.doc = prepareDocument(doc, id)
	next.version++
	next.updatedAt = s.now().UTC()
	s.byID[id] = &next
	s.logger.Debug("replaced object", "id", id, "version", next.version)
	return s.handle(id, &next), nil
}

func (s *MemoryStore) lookupPath(_ context.Context, p string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPath[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return id, nil
}

// Get implements Service.
func (s *MemoryStore) Get(ctx context.Context, ref string) (*Object, error) {
	id := ref
	if !IsObjectID(ref) {
		var err error
		if id, err = s.lookupPath(ctx, cleanPath(ref)); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return s.handle(id, rec), nil
}

// Delete implements Service.
func (s *MemoryStore) Delete(ctx context.Context, ref string) error {
	obj, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := obj.Metadata().ID
	if rec, ok := s.byID[id]; ok {
		delete(s.byPath, rec.path)
		delete(s.byID, id)
	}
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// handle must be called with the lock held. Records are never mutated once
// stored, so the handle may share the document.
func (s *MemoryStore) handle(id string, rec *memoryRecord) *Object {
	schema, _ := rec.doc["schema"].(string)
	meta := model.Metadata{
		ID:         id,
		Path:       rec.path,
		SchemaID:   schema,
		VersionID:  strconv.FormatInt(rec.version, 10),
		CreatedAt:  rec.createdAt,
		ModifiedAt: rec.updatedAt,
	}
	return NewObject(meta, rec.doc, s.data, s)
}

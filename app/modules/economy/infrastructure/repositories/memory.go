package economydb

import (
	"context"
	"sync"

	economydomain "github.com/copperkettle/pennybot/app/modules/economy/domain"
)

// MemoryStore is a map-backed RecordStore for tests and local runs. It
// resolves pending operations through the same path as the Firestore store,
// so commit semantics match the real backend.
type MemoryStore struct {
	mu       sync.Mutex
	docs     map[string]map[string]any
	defaults SkeletonFactory
}

func NewMemoryStore(defaults SkeletonFactory) *MemoryStore {
	return &MemoryStore{
		docs:     map[string]map[string]any{},
		defaults: defaults,
	}
}

// FetchOrDefault returns a copy of the stored document for id, or the
// default skeleton if absent. Nothing is written either way.
func (s *MemoryStore) FetchOrDefault(ctx context.Context, id string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[id]; ok {
		return economydomain.Merge(doc, nil), nil
	}
	return s.defaults(id), nil
}

// UpsertMerge materializes the skeleton if the document is absent, resolves
// changes against the current stored values, merges, stores, and returns a
// copy of the post-write document.
func (s *MemoryStore) UpsertMerge(ctx context.Context, id string, changes map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[id]
	if !ok {
		current = s.defaults(id)
	}
	resolved := economydomain.Resolve(current, changes)
	merged := economydomain.Merge(current, resolved)
	s.docs[id] = merged
	return economydomain.Merge(merged, nil), nil
}

// Len reports the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

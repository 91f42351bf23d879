package memory

import (
	"context"
	"sync"

	"github.com/jobscope/harvester/internal/harvest"
)

// RecordStore is an in-memory harvest.RecordStore.
type RecordStore struct {
	mu   sync.RWMutex
	docs map[harvest.SourceID]any
}

// NewRecordStore constructs an empty RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{docs: make(map[harvest.SourceID]any)}
}

// Upsert stores doc under id, overwriting any prior document.
func (s *RecordStore) Upsert(_ context.Context, id harvest.SourceID, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = doc
	return nil
}

// Get returns the document for id, if present.
func (s *RecordStore) Get(id harvest.SourceID) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// Len returns the number of stored documents.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process draft store for tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]Draft)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[sessionID]
	if !ok {
		return Draft{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) Put(_ context.Context, draft Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}
	s.drafts[draft.SessionID] = draft
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, sessionID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Len reports the number of live drafts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

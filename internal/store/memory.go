package store

import (
	"context"
	"sync"

	"github.com/Mirandateresa/malicious-url-detector/internal/model"
)

// MemoryStore keeps the state in process memory only.
type MemoryStore struct {
	mu    sync.RWMutex
	state *model.State
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, st model.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &st
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (*model.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNotFound
	}
	st := *s.state
	return &st, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

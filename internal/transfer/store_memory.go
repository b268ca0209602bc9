package transfer

import (
	"context"
	"sort"
	"sync"

	"crossgate/pkg/domain"
	"crossgate/pkg/platform/sentinel"
)

// InMemoryStore keeps the development and unit-test configuration dependency
// free. It holds deep copies so callers cannot mutate stored state and the
// version check observes what was actually saved.
type InMemoryStore struct {
	mu        sync.RWMutex
	transfers map[domain.TransferID]*Transfer
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{transfers: make(map[domain.TransferID]*Transfer)}
}

func (s *InMemoryStore) Save(_ context.Context, t *Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.transfers[t.ID]
	if t.Version == 0 {
		if exists {
			return sentinel.ErrConflict
		}
	} else {
		if !exists {
			return sentinel.ErrNotFound
		}
		if stored.Version != t.Version {
			return sentinel.ErrConflict
		}
	}

	copied, err := t.Clone()
	if err != nil {
		return err
	}
	copied.Version = t.Version + 1
	s.transfers[t.ID] = copied
	t.Version = copied.Version
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id domain.TransferID) (*Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.transfers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return stored.Clone()
}

func (s *InMemoryStore) List(_ context.Context) ([]*Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Transfer, 0, len(s.transfers))
	for _, stored := range s.transfers {
		copied, err := stored.Clone()
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

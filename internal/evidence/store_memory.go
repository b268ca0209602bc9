package evidence

import (
	"context"
	"sort"
	"sync"

	"crossgate/pkg/domain"
	"crossgate/pkg/platform/sentinel"
)

// InMemoryStore keeps evidence records and the transfer index in process
// memory for development and unit tests.
type InMemoryStore struct {
	mu         sync.RWMutex
	records    map[domain.EvidenceID]*Evidence
	byTransfer map[domain.TransferID][]domain.EvidenceID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:    make(map[domain.EvidenceID]*Evidence),
		byTransfer: make(map[domain.TransferID][]domain.EvidenceID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, e *Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.records[e.ID]
	if e.Version == 0 {
		if exists {
			return sentinel.ErrConflict
		}
	} else {
		if !exists {
			return sentinel.ErrNotFound
		}
		if stored.Version != e.Version {
			return sentinel.ErrConflict
		}
	}

	copied, err := e.Clone()
	if err != nil {
		return err
	}
	copied.Version = e.Version + 1
	s.records[e.ID] = copied
	if !exists {
		s.byTransfer[e.TransferID] = append(s.byTransfer[e.TransferID], e.ID)
	}
	e.Version = copied.Version
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id domain.EvidenceID) (*Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return stored.Clone()
}

func (s *InMemoryStore) ListByTransfer(_ context.Context, transferID domain.TransferID) ([]*Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byTransfer[transferID]
	out := make([]*Evidence, 0, len(ids))
	for _, id := range ids {
		stored, ok := s.records[id]
		if !ok {
			continue
		}
		copied, err := stored.Clone()
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

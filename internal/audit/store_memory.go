package audit

import (
	"context"
	"sort"
	"sync"

	"crossgate/pkg/domain"
)

// InMemoryStore keeps audit entries in process memory, indexed by transfer.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.TransferID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.TransferID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.TransferID] = append(s.entries[entry.TransferID], entry)
	return nil
}

func (s *InMemoryStore) ListByTransfer(_ context.Context, transferID domain.TransferID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Entry{}, s.entries[transferID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].PerformedAt.Before(out[j].PerformedAt) })
	return out, nil
}

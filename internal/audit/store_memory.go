package audit

import (
	"context"
	"sort"
	"sync"

	id "sovereign/pkg/domain"
)

// InMemoryStore keeps the trail in a per-tenant slice. Favors clarity over
// performance; the Postgres store is the production path.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.TenantID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.TenantID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.TenantID] = append(s.entries[entry.TenantID], entry)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, q Query) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries[q.TenantID] {
		if !q.Jurisdiction.IsNil() && e.Jurisdiction != q.Jurisdiction {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

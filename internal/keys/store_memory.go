package keys

import (
	"context"
	"fmt"
	"sort"
	"sync"

	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/sentinel"
)

// Store persists managed keys. Implementations hold fingerprints only.
type Store interface {
	Create(ctx context.Context, key ManagedKey) error
	Get(ctx context.Context, tenantID id.TenantID, keyID id.KeyID) (ManagedKey, error)
	Update(ctx context.Context, key ManagedKey) error
	// ListByTenant returns the tenant's keys newest first.
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]ManagedKey, error)
}

// InMemoryStore is a thread-safe Store.
type InMemoryStore struct {
	mu   sync.RWMutex
	keys map[id.TenantID]map[id.KeyID]ManagedKey
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{keys: make(map[id.TenantID]map[id.KeyID]ManagedKey)}
}

func (s *InMemoryStore) Create(_ context.Context, key ManagedKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.keys[key.TenantID]
	if !ok {
		tenant = make(map[id.KeyID]ManagedKey)
		s.keys[key.TenantID] = tenant
	}
	if _, exists := tenant[key.ID]; exists {
		return fmt.Errorf("key %s: %w", key.ID, sentinel.ErrConflict)
	}
	tenant[key.ID] = key
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID id.TenantID, keyID id.KeyID) (ManagedKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[tenantID][keyID]
	if !ok {
		return ManagedKey{}, fmt.Errorf("key %s: %w", keyID, sentinel.ErrNotFound)
	}
	return key, nil
}

func (s *InMemoryStore) Update(_ context.Context, key ManagedKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.keys[key.TenantID]
	if !ok {
		return fmt.Errorf("key %s: %w", key.ID, sentinel.ErrNotFound)
	}
	if _, exists := tenant[key.ID]; !exists {
		return fmt.Errorf("key %s: %w", key.ID, sentinel.ErrNotFound)
	}
	tenant[key.ID] = key
	return nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID) ([]ManagedKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ManagedKey, 0, len(s.keys[tenantID]))
	for _, key := range s.keys[tenantID] {
		out = append(out, key)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImportedAt.After(out[j].ImportedAt)
	})
	return out, nil
}

package transfer

import (
	"context"
	"fmt"
	"sync"

	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/sentinel"
)

// ExemptionStore persists transfer exemptions keyed per tenant and corridor.
type ExemptionStore interface {
	Put(ctx context.Context, exemption Exemption) error
	// FindByCorridor returns the exemption covering the corridor, expired or
	// not; callers check expiry against request time.
	FindByCorridor(ctx context.Context, tenantID id.TenantID, key string) (Exemption, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]Exemption, error)
}

// InMemoryStore is a thread-safe ExemptionStore. A new exemption for an
// existing corridor replaces the old one.
type InMemoryStore struct {
	mu         sync.RWMutex
	exemptions map[id.TenantID]map[string]Exemption
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{exemptions: make(map[id.TenantID]map[string]Exemption)}
}

func (s *InMemoryStore) Put(_ context.Context, exemption Exemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.exemptions[exemption.TenantID]
	if !ok {
		tenant = make(map[string]Exemption)
		s.exemptions[exemption.TenantID] = tenant
	}
	tenant[exemption.Key()] = exemption
	return nil
}

func (s *InMemoryStore) FindByCorridor(_ context.Context, tenantID id.TenantID, key string) (Exemption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exemption, ok := s.exemptions[tenantID][key]
	if !ok {
		return Exemption{}, fmt.Errorf("exemption %s: %w", key, sentinel.ErrNotFound)
	}
	return exemption, nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID) ([]Exemption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Exemption
	for _, exemption := range s.exemptions[tenantID] {
		out = append(out, exemption)
	}
	return out, nil
}

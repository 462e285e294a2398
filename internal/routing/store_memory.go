package routing

import (
	"context"
	"fmt"
	"sync"

	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/sentinel"
)

// PolicyStore persists routing policies scoped by tenant.
type PolicyStore interface {
	Create(ctx context.Context, p Policy) error
	Get(ctx context.Context, tenantID id.TenantID, policyID id.PolicyID) (Policy, error)
	Update(ctx context.Context, p Policy) error
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]Policy, error)
}

// InMemoryStore is a thread-safe PolicyStore for tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[id.TenantID]map[id.PolicyID]Policy
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{policies: make(map[id.TenantID]map[id.PolicyID]Policy)}
}

func (s *InMemoryStore) Create(_ context.Context, p Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.policies[p.TenantID]
	if !ok {
		tenant = make(map[id.PolicyID]Policy)
		s.policies[p.TenantID] = tenant
	}
	if _, exists := tenant[p.ID]; exists {
		return fmt.Errorf("policy %s: %w", p.ID, sentinel.ErrConflict)
	}
	tenant[p.ID] = p
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID id.TenantID, policyID id.PolicyID) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[tenantID][policyID]
	if !ok {
		return Policy{}, fmt.Errorf("policy %s: %w", policyID, sentinel.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryStore) Update(_ context.Context, p Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.policies[p.TenantID]
	if !ok {
		return fmt.Errorf("policy %s: %w", p.ID, sentinel.ErrNotFound)
	}
	if _, exists := tenant[p.ID]; !exists {
		return fmt.Errorf("policy %s: %w", p.ID, sentinel.ErrNotFound)
	}
	tenant[p.ID] = p
	return nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID) ([]Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Policy
	for _, p := range s.policies[tenantID] {
		out = append(out, p)
	}
	return out, nil
}

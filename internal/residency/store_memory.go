package residency

import (
	"context"
	"fmt"
	"sync"

	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/sentinel"
)

// InMemoryStore is a thread-safe RuleStore for tests and local development.
type InMemoryStore struct {
	mu    sync.RWMutex
	rules map[id.TenantID]map[id.RuleID]Rule
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rules: make(map[id.TenantID]map[id.RuleID]Rule)}
}

func (s *InMemoryStore) Create(_ context.Context, rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.rules[rule.TenantID]
	if !ok {
		tenant = make(map[id.RuleID]Rule)
		s.rules[rule.TenantID] = tenant
	}
	if _, exists := tenant[rule.ID]; exists {
		return fmt.Errorf("rule %s: %w", rule.ID, sentinel.ErrConflict)
	}
	tenant[rule.ID] = rule
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID id.TenantID, ruleID id.RuleID) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[tenantID][ruleID]
	if !ok {
		return Rule{}, fmt.Errorf("rule %s: %w", ruleID, sentinel.ErrNotFound)
	}
	return rule, nil
}

func (s *InMemoryStore) Update(_ context.Context, rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.rules[rule.TenantID]
	if !ok {
		return fmt.Errorf("rule %s: %w", rule.ID, sentinel.ErrNotFound)
	}
	if _, exists := tenant[rule.ID]; !exists {
		return fmt.Errorf("rule %s: %w", rule.ID, sentinel.ErrNotFound)
	}
	tenant[rule.ID] = rule
	return nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Rule
	for _, rule := range s.rules[tenantID] {
		out = append(out, rule)
	}
	return out, nil
}

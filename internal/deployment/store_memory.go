package deployment

import (
	"context"
	"fmt"
	"sync"

	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/sentinel"
)

// InMemoryStore is a thread-safe Store for tests and local development.
type InMemoryStore struct {
	mu          sync.RWMutex
	deployments map[id.TenantID]map[id.DeploymentID]Deployment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{deployments: make(map[id.TenantID]map[id.DeploymentID]Deployment)}
}

func (s *InMemoryStore) Create(_ context.Context, d Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.deployments[d.TenantID]
	if !ok {
		tenant = make(map[id.DeploymentID]Deployment)
		s.deployments[d.TenantID] = tenant
	}
	if _, exists := tenant[d.ID]; exists {
		return fmt.Errorf("deployment %s: %w", d.ID, sentinel.ErrConflict)
	}
	tenant[d.ID] = d
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID id.TenantID, deploymentID id.DeploymentID) (Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deployments[tenantID][deploymentID]
	if !ok {
		return Deployment{}, fmt.Errorf("deployment %s: %w", deploymentID, sentinel.ErrNotFound)
	}
	return d, nil
}

func (s *InMemoryStore) Update(_ context.Context, d Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.deployments[d.TenantID]
	if !ok {
		return fmt.Errorf("deployment %s: %w", d.ID, sentinel.ErrNotFound)
	}
	if _, exists := tenant[d.ID]; !exists {
		return fmt.Errorf("deployment %s: %w", d.ID, sentinel.ErrNotFound)
	}
	tenant[d.ID] = d
	return nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID) ([]Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Deployment
	for _, d := range s.deployments[tenantID] {
		out = append(out, d)
	}
	return out, nil
}

func (s *InMemoryStore) FindActive(_ context.Context, tenantID id.TenantID, modelID, region string) (Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.deployments[tenantID] {
		if d.ModelID == modelID && d.Region == region && d.Status == StatusActive {
			return d, nil
		}
	}
	return Deployment{}, fmt.Errorf("active deployment of %s in %s: %w", modelID, region, sentinel.ErrNotFound)
}

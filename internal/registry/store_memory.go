package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/sentinel"
)

// Store persists registry entries.
type Store interface {
	Create(ctx context.Context, m SovereignModel) error
	Get(ctx context.Context, tenantID id.TenantID, registrationID id.RegistrationID) (SovereignModel, error)
	Update(ctx context.Context, m SovereignModel) error
	// ListByTenant returns the tenant's entries newest first.
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]SovereignModel, error)
	// KeyExists reports whether any entry carries the given registry key.
	KeyExists(ctx context.Context, tenantID id.TenantID, registryKey string) (bool, error)
}

// CertificationStore persists immutable certification records.
type CertificationStore interface {
	Append(ctx context.Context, cert Certification) error
	ListByRegistration(ctx context.Context, tenantID id.TenantID, registrationID id.RegistrationID) ([]Certification, error)
}

// InMemoryStore is a thread-safe Store. Entries are cloned at the boundary
// in both directions.
type InMemoryStore struct {
	mu     sync.RWMutex
	models map[id.TenantID]map[id.RegistrationID]SovereignModel
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{models: make(map[id.TenantID]map[id.RegistrationID]SovereignModel)}
}

func (s *InMemoryStore) Create(_ context.Context, m SovereignModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.models[m.TenantID]
	if !ok {
		tenant = make(map[id.RegistrationID]SovereignModel)
		s.models[m.TenantID] = tenant
	}
	if _, exists := tenant[m.ID]; exists {
		return fmt.Errorf("registration %s: %w", m.ID, sentinel.ErrConflict)
	}
	tenant[m.ID] = m.clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID id.TenantID, registrationID id.RegistrationID) (SovereignModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[tenantID][registrationID]
	if !ok {
		return SovereignModel{}, fmt.Errorf("registration %s: %w", registrationID, sentinel.ErrNotFound)
	}
	return m.clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, m SovereignModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.models[m.TenantID]
	if !ok {
		return fmt.Errorf("registration %s: %w", m.ID, sentinel.ErrNotFound)
	}
	if _, exists := tenant[m.ID]; !exists {
		return fmt.Errorf("registration %s: %w", m.ID, sentinel.ErrNotFound)
	}
	tenant[m.ID] = m.clone()
	return nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID) ([]SovereignModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SovereignModel, 0, len(s.models[tenantID]))
	for _, m := range s.models[tenantID] {
		out = append(out, m.clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out, nil
}

func (s *InMemoryStore) KeyExists(_ context.Context, tenantID id.TenantID, registryKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.models[tenantID] {
		if m.RegistryKey() == registryKey {
			return true, nil
		}
	}
	return false, nil
}

// InMemoryCertificationStore is a thread-safe CertificationStore.
type InMemoryCertificationStore struct {
	mu    sync.RWMutex
	certs map[id.TenantID][]Certification
}

func NewInMemoryCertificationStore() *InMemoryCertificationStore {
	return &InMemoryCertificationStore{certs: make(map[id.TenantID][]Certification)}
}

func (s *InMemoryCertificationStore) Append(_ context.Context, cert Certification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[cert.TenantID] = append(s.certs[cert.TenantID], cert)
	return nil
}

func (s *InMemoryCertificationStore) ListByRegistration(_ context.Context, tenantID id.TenantID, registrationID id.RegistrationID) ([]Certification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Certification
	for _, cert := range s.certs[tenantID] {
		if cert.RegistrationID == registrationID {
			out = append(out, cert)
		}
	}
	return out, nil
}

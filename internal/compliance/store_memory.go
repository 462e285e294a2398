package compliance

import (
	"context"
	"fmt"
	"sort"
	"sync"

	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/sentinel"
)

// ReportStore persists audit reports.
type ReportStore interface {
	Append(ctx context.Context, report Report) error
	Get(ctx context.Context, tenantID id.TenantID, auditID string) (Report, error)
	// List returns the tenant's reports newest first, optionally filtered by
	// jurisdiction.
	List(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction) ([]Report, error)
}

// MapStore persists compliance maps.
type MapStore interface {
	Create(ctx context.Context, m Map) error
	Get(ctx context.Context, tenantID id.TenantID, mapID id.MapID) (Map, error)
	Update(ctx context.Context, m Map) error
	ListByJurisdiction(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction) ([]Map, error)
}

// InMemoryReportStore is a thread-safe ReportStore.
type InMemoryReportStore struct {
	mu      sync.RWMutex
	reports map[id.TenantID][]Report
}

func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{reports: make(map[id.TenantID][]Report)}
}

func (s *InMemoryReportStore) Append(_ context.Context, report Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.TenantID] = append(s.reports[report.TenantID], report)
	return nil
}

func (s *InMemoryReportStore) Get(_ context.Context, tenantID id.TenantID, auditID string) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, report := range s.reports[tenantID] {
		if report.AuditID == auditID {
			return report, nil
		}
	}
	return Report{}, fmt.Errorf("audit %s: %w", auditID, sentinel.ErrNotFound)
}

func (s *InMemoryReportStore) List(_ context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Report
	for _, report := range s.reports[tenantID] {
		if !jurisdiction.IsNil() && report.Jurisdiction != jurisdiction {
			continue
		}
		out = append(out, report)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AuditedAt.After(out[j].AuditedAt)
	})
	return out, nil
}

// InMemoryMapStore is a thread-safe MapStore.
type InMemoryMapStore struct {
	mu   sync.RWMutex
	maps map[id.TenantID]map[id.MapID]Map
}

func NewInMemoryMapStore() *InMemoryMapStore {
	return &InMemoryMapStore{maps: make(map[id.TenantID]map[id.MapID]Map)}
}

func (s *InMemoryMapStore) Create(_ context.Context, m Map) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.maps[m.TenantID]
	if !ok {
		tenant = make(map[id.MapID]Map)
		s.maps[m.TenantID] = tenant
	}
	if _, exists := tenant[m.ID]; exists {
		return fmt.Errorf("compliance map %s: %w", m.ID, sentinel.ErrConflict)
	}
	tenant[m.ID] = m
	return nil
}

func (s *InMemoryMapStore) Get(_ context.Context, tenantID id.TenantID, mapID id.MapID) (Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maps[tenantID][mapID]
	if !ok {
		return Map{}, fmt.Errorf("compliance map %s: %w", mapID, sentinel.ErrNotFound)
	}
	return m, nil
}

func (s *InMemoryMapStore) Update(_ context.Context, m Map) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.maps[m.TenantID]
	if !ok {
		return fmt.Errorf("compliance map %s: %w", m.ID, sentinel.ErrNotFound)
	}
	if _, exists := tenant[m.ID]; !exists {
		return fmt.Errorf("compliance map %s: %w", m.ID, sentinel.ErrNotFound)
	}
	tenant[m.ID] = m
	return nil
}

func (s *InMemoryMapStore) ListByJurisdiction(_ context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction) ([]Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Map
	for _, m := range s.maps[tenantID] {
		if m.Jurisdiction == jurisdiction {
			out = append(out, m)
		}
	}
	return out, nil
}

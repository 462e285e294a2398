package registry_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sovereign/internal/events"
	"sovereign/internal/registry"
	"sovereign/internal/registry/metrics"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/requestcontext"
)

// Prometheus collectors register globally, so the suite shares one instance.
var metricsInstance = metrics.New()

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturingPublisher) Close() {}

func (p *capturingPublisher) byType(t string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type RegistryServiceSuite struct {
	suite.Suite
	svc       *registry.Service
	publisher *capturingPublisher
	tenant    id.TenantID
	ctx       context.Context
}

func (s *RegistryServiceSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.publisher = &capturingPublisher{}
	s.svc = registry.NewService(
		registry.NewInMemoryStore(),
		registry.NewInMemoryCertificationStore(),
		s.publisher,
		metricsInstance,
		logger,
	)
	s.tenant = id.NewTenantID()
	s.ctx = context.Background()
}

func (s *RegistryServiceSuite) register(jurisdiction id.Jurisdiction, modelID, version string) registry.SovereignModel {
	m, err := s.svc.Register(s.ctx, registry.RegisterInput{
		TenantID:        s.tenant,
		ModelID:         modelID,
		ModelName:       "Test Model",
		ModelVersion:    version,
		Jurisdiction:    jurisdiction,
		ApprovedRegions: []string{"eu-west-1"},
		ComplianceTags:  []string{"GDPR"},
	})
	s.Require().NoError(err)
	return m
}

// approveAndRelease moves an entry to approved and available.
func (s *RegistryServiceSuite) approveAndRelease(m registry.SovereignModel) registry.SovereignModel {
	_, err := s.svc.Approve(s.ctx, s.tenant, m.ID, "reviewer@example.com")
	s.Require().NoError(err)
	released, err := s.svc.SetAvailability(s.ctx, s.tenant, m.ID, true, nil)
	s.Require().NoError(err)
	return released
}

func (s *RegistryServiceSuite) TestRegisterStartsPending() {
	m := s.register(id.JurisdictionEU, "llm-7b", "1.0.0")

	s.Equal(registry.ApprovalPending, m.ApprovalStatus)
	s.False(m.IsAvailable)
	s.Empty(m.ApprovedBy)
	s.Len(s.publisher.byType(events.TypeModelRegistered), 1)
}

func (s *RegistryServiceSuite) TestRegisterRejectsUnknownTags() {
	_, err := s.svc.Register(s.ctx, registry.RegisterInput{
		TenantID:       s.tenant,
		ModelID:        "llm-7b",
		ModelVersion:   "1.0.0",
		Jurisdiction:   id.JurisdictionEU,
		ComplianceTags: []string{"NOT-A-FRAMEWORK"},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RegistryServiceSuite) TestRegisterDuplicateKeyConflicts() {
	s.register(id.JurisdictionEU, "llm-7b", "1.0.0")

	_, err := s.svc.Register(s.ctx, registry.RegisterInput{
		TenantID:     s.tenant,
		ModelID:      "llm-7b",
		ModelVersion: "1.0.0",
		Jurisdiction: id.JurisdictionEU,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// Same model, different jurisdiction registers fine.
	s.register(id.JurisdictionUS, "llm-7b", "1.0.0")
}

func (s *RegistryServiceSuite) TestApprovalLifecycle() {
	m := s.register(id.JurisdictionEU, "llm-7b", "1.0.0")

	approved, err := s.svc.Approve(s.ctx, s.tenant, m.ID, "reviewer@example.com")
	s.Require().NoError(err)
	s.Equal(registry.ApprovalApproved, approved.ApprovalStatus)
	s.Equal("reviewer@example.com", approved.ApprovedBy)
	s.False(approved.ApprovedAt.IsZero())
	s.Len(s.publisher.byType(events.TypeModelApproved), 1)

	revoked, err := s.svc.Revoke(s.ctx, s.tenant, m.ID, "certification lapsed")
	s.Require().NoError(err)
	s.Equal(registry.ApprovalRevoked, revoked.ApprovalStatus)
	s.False(revoked.IsAvailable)
}

func (s *RegistryServiceSuite) TestRejectedEntryCannotBeApproved() {
	m := s.register(id.JurisdictionEU, "llm-7b", "1.0.0")

	_, err := s.svc.Reject(s.ctx, s.tenant, m.ID)
	s.Require().NoError(err)

	_, err = s.svc.Approve(s.ctx, s.tenant, m.ID, "reviewer@example.com")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RegistryServiceSuite) TestAvailabilityRequiresApproval() {
	m := s.register(id.JurisdictionEU, "llm-7b", "1.0.0")

	_, err := s.svc.SetAvailability(s.ctx, s.tenant, m.ID, true, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	released := s.approveAndRelease(m)
	s.True(released.IsAvailable)
}

func (s *RegistryServiceSuite) TestCertifyLinksRecord() {
	m := s.register(id.JurisdictionEU, "llm-7b", "1.0.0")

	cert, err := s.svc.Certify(s.ctx, registry.CertifyInput{
		TenantID:       s.tenant,
		RegistrationID: m.ID,
		CertifyingBody: "TUV Nord",
		Framework:      "ISO-27001",
		CertificateID:  "CERT-2026-0042",
		ValidUntil:     time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.Equal(registry.CertificationCertified, cert.Status)
	s.Len(s.publisher.byType(events.TypeModelCertified), 1)

	got, err := s.svc.Get(s.ctx, s.tenant, m.ID)
	s.Require().NoError(err)
	s.Equal([]id.CertificationID{cert.ID}, got.CertificationRefs)

	certs, err := s.svc.GetCertifications(s.ctx, s.tenant, m.ID)
	s.Require().NoError(err)
	s.Len(certs, 1)
}

func (s *RegistryServiceSuite) TestCertifyRejectsUnsupportedFramework() {
	m := s.register(id.JurisdictionEU, "llm-7b", "1.0.0")

	_, err := s.svc.Certify(s.ctx, registry.CertifyInput{
		TenantID:       s.tenant,
		RegistrationID: m.ID,
		CertifyingBody: "Acme Certifiers",
		Framework:      "ISO-9001",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RegistryServiceSuite) TestAddComplianceTagsMerges() {
	m := s.register(id.JurisdictionEU, "llm-7b", "1.0.0")

	updated, err := s.svc.AddComplianceTags(s.ctx, s.tenant, m.ID,
		[]string{"ISO-27001", "GDPR"}, "admin@example.com")
	s.Require().NoError(err)
	s.Equal([]string{"GDPR", "ISO-27001"}, updated.ComplianceTags)

	_, err = s.svc.AddComplianceTags(s.ctx, s.tenant, m.ID, []string{"BOGUS"}, "admin@example.com")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *RegistryServiceSuite) TestSynchronizeReplicatesApprovedAvailable() {
	approved := s.approveAndRelease(s.register(id.JurisdictionEU, "llm-7b", "1.0.0"))
	s.register(id.JurisdictionEU, "llm-13b", "2.0.0") // stays pending, not synced

	result, err := s.svc.Synchronize(s.ctx, s.tenant, id.JurisdictionEU, id.JurisdictionGB)
	s.Require().NoError(err)
	s.Equal(1, result.SyncedCount)
	s.Equal(0, result.SkippedCount)
	s.Equal(1, result.TotalSourceEntries)
	s.Len(s.publisher.byType(events.TypeRegistrySynchronized), 1)

	replicas, err := s.svc.QueryRegistry(s.ctx, s.tenant, registry.Query{Jurisdiction: id.JurisdictionGB})
	s.Require().NoError(err)
	s.Require().Len(replicas, 1)
	s.Equal(registry.ApprovalPending, replicas[0].ApprovalStatus)
	s.False(replicas[0].IsAvailable)
	s.Equal(approved.ID, replicas[0].SyncedFrom)
	s.Equal(approved.ComplianceTags, replicas[0].ComplianceTags)
}

func (s *RegistryServiceSuite) TestTaggingReplicaLeavesSourceUntouched() {
	source := s.approveAndRelease(s.register(id.JurisdictionEU, "llm-7b", "1.0.0"))

	_, err := s.svc.Synchronize(s.ctx, s.tenant, id.JurisdictionEU, id.JurisdictionUS)
	s.Require().NoError(err)

	replicas, err := s.svc.QueryRegistry(s.ctx, s.tenant, registry.Query{Jurisdiction: id.JurisdictionUS})
	s.Require().NoError(err)
	s.Require().Len(replicas, 1)

	updated, err := s.svc.AddComplianceTags(s.ctx, s.tenant, replicas[0].ID,
		[]string{"CCPA"}, "admin@example.com")
	s.Require().NoError(err)
	s.Equal([]string{"CCPA", "GDPR"}, updated.ComplianceTags)

	got, err := s.svc.Get(s.ctx, s.tenant, source.ID)
	s.Require().NoError(err)
	s.Equal([]string{"GDPR"}, got.ComplianceTags)
}

func (s *RegistryServiceSuite) TestSynchronizeSkipsExistingKeys() {
	s.approveAndRelease(s.register(id.JurisdictionEU, "llm-7b", "1.0.0"))
	s.register(id.JurisdictionGB, "llm-7b", "1.0.0") // same key already in target

	result, err := s.svc.Synchronize(s.ctx, s.tenant, id.JurisdictionEU, id.JurisdictionGB)
	s.Require().NoError(err)
	s.Equal(0, result.SyncedCount)
	s.Equal(1, result.SkippedCount)
}

func (s *RegistryServiceSuite) TestSynchronizeSameJurisdictionRejected() {
	_, err := s.svc.Synchronize(s.ctx, s.tenant, id.JurisdictionEU, id.JurisdictionEU)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *RegistryServiceSuite) TestQueryFiltersNewestFirst() {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, version := range []string{"1.0.0", "1.1.0", "2.0.0"} {
		ctx := requestcontext.WithTime(s.ctx, base.Add(time.Duration(i)*time.Hour))
		_, err := s.svc.Register(ctx, registry.RegisterInput{
			TenantID:       s.tenant,
			ModelID:        "llm-7b",
			ModelVersion:   version,
			Jurisdiction:   id.JurisdictionEU,
			ComplianceTags: []string{"GDPR"},
		})
		s.Require().NoError(err)
	}

	entries, err := s.svc.QueryRegistry(s.ctx, s.tenant, registry.Query{ModelID: "llm-7b"})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("2.0.0", entries[0].ModelVersion)
	s.Equal("1.0.0", entries[2].ModelVersion)

	tagged, err := s.svc.QueryRegistry(s.ctx, s.tenant, registry.Query{ComplianceTag: "HIPAA"})
	s.Require().NoError(err)
	s.Empty(tagged)
}

func (s *RegistryServiceSuite) TestTenantIsolation() {
	m := s.register(id.JurisdictionEU, "llm-7b", "1.0.0")

	other := id.NewTenantID()
	_, err := s.svc.Get(s.ctx, other, m.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRegistryServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceSuite))
}

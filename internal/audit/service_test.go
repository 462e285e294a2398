package audit_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sovereign/internal/audit"
	id "sovereign/pkg/domain"
	"sovereign/pkg/requestcontext"
)

type AuditServiceSuite struct {
	suite.Suite
	svc    *audit.Service
	tenant id.TenantID
	ctx    context.Context
}

func (s *AuditServiceSuite) SetupTest() {
	s.svc = audit.NewService(audit.NewInMemoryStore(), slog.New(slog.DiscardHandler))
	s.tenant = id.NewTenantID()
	s.ctx = context.Background()
}

func (s *AuditServiceSuite) TestRecordStampsIdentityAndTime() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, now)

	err := s.svc.Record(ctx, audit.Entry{
		EventType:    audit.EventResidencyEnforcement,
		TenantID:     s.tenant,
		Jurisdiction: id.JurisdictionEU,
		Outcome:      audit.OutcomeCompliant,
	})
	s.Require().NoError(err)

	entries, err := s.svc.List(ctx, audit.Query{TenantID: s.tenant})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.NotEmpty(entries[0].EventID)
	s.Equal(now, entries[0].Timestamp)
}

func (s *AuditServiceSuite) TestListNewestFirstWithLimit() {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := s.svc.Record(s.ctx, audit.Entry{
			EventType: audit.EventCrossBorderCheck,
			TenantID:  s.tenant,
			Outcome:   audit.OutcomeCompliant,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		s.Require().NoError(err)
	}

	entries, err := s.svc.List(s.ctx, audit.Query{TenantID: s.tenant, Limit: 3})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(base.Add(4*time.Minute), entries[0].Timestamp)
	s.Equal(base.Add(2*time.Minute), entries[2].Timestamp)
}

func (s *AuditServiceSuite) TestListFiltersJurisdiction() {
	for _, j := range []id.Jurisdiction{id.JurisdictionEU, id.JurisdictionUS, id.JurisdictionEU} {
		err := s.svc.Record(s.ctx, audit.Entry{
			EventType:    audit.EventResidencyEnforcement,
			TenantID:     s.tenant,
			Jurisdiction: j,
			Outcome:      audit.OutcomeViolation,
		})
		s.Require().NoError(err)
	}

	entries, err := s.svc.List(s.ctx, audit.Query{TenantID: s.tenant, Jurisdiction: id.JurisdictionEU})
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *AuditServiceSuite) TestTenantsIsolated() {
	other := id.NewTenantID()
	s.Require().NoError(s.svc.Record(s.ctx, audit.Entry{
		EventType: audit.EventViolationDetection,
		TenantID:  s.tenant,
		Outcome:   audit.OutcomeViolation,
	}))

	entries, err := s.svc.List(s.ctx, audit.Query{TenantID: other})
	s.Require().NoError(err)
	s.Empty(entries)
}

func TestAuditServiceSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceSuite))
}

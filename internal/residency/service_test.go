package residency_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"sovereign/internal/audit"
	"sovereign/internal/events"
	"sovereign/internal/residency"
	"sovereign/internal/residency/metrics"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

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

type ResidencyServiceSuite struct {
	suite.Suite
	svc       *residency.Service
	auditor   *audit.Service
	publisher *capturingPublisher
	tenant    id.TenantID
	ctx       context.Context
}

func (s *ResidencyServiceSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.auditor = audit.NewService(audit.NewInMemoryStore(), logger)
	s.publisher = &capturingPublisher{}
	s.svc = residency.NewService(residency.NewInMemoryStore(), s.auditor, s.publisher, metricsInstance, logger)
	s.tenant = id.NewTenantID()
	s.ctx = context.Background()
}

// Prometheus collectors register globally, so the suite shares one instance.
var metricsInstance = metrics.New()

func (s *ResidencyServiceSuite) createRule(input residency.CreateRuleInput) residency.Rule {
	input.TenantID = s.tenant
	rule, err := s.svc.CreateRule(s.ctx, input)
	s.Require().NoError(err)
	return rule
}

func (s *ResidencyServiceSuite) TestCreateRuleValidates() {
	_, err := s.svc.CreateRule(s.ctx, residency.CreateRuleInput{
		TenantID:           s.tenant,
		Jurisdiction:       id.JurisdictionEU,
		DataClassification: id.ClassificationPII,
		AllowedRegions:     []string{"eu-west-1"},
		BlockedRegions:     []string{"eu-west-1"},
		Action:             residency.ActionBlock,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ResidencyServiceSuite) TestEnforceViolationIsAuditedAndPublished() {
	rule := s.createRule(residency.CreateRuleInput{
		Jurisdiction:       id.JurisdictionEU,
		DataClassification: id.ClassificationPII,
		BlockedRegions:     []string{"us-east-1"},
		Action:             residency.ActionBlock,
		Priority:           10,
	})

	decision, err := s.svc.Enforce(s.ctx, s.tenant, id.JurisdictionEU, id.ClassificationPII, "us-east-1")
	s.Require().NoError(err)
	s.False(decision.Compliant)
	s.Equal(rule.ID, decision.RuleID)

	entries, err := s.auditor.List(s.ctx, audit.Query{TenantID: s.tenant})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.EventResidencyEnforcement, entries[0].EventType)
	s.Equal(audit.OutcomeViolation, entries[0].Outcome)

	s.Len(s.publisher.byType(events.TypeResidencyViolation), 1)
}

func (s *ResidencyServiceSuite) TestEnforceCompliantIsAuditedWithoutEvent() {
	s.createRule(residency.CreateRuleInput{
		Jurisdiction:       id.JurisdictionEU,
		DataClassification: id.ClassificationPII,
		AllowedRegions:     []string{"eu-west-1"},
		Action:             residency.ActionBlock,
		Priority:           10,
	})

	decision, err := s.svc.Enforce(s.ctx, s.tenant, id.JurisdictionEU, id.ClassificationPII, "eu-west-1")
	s.Require().NoError(err)
	s.True(decision.Compliant)

	entries, err := s.auditor.List(s.ctx, audit.Query{TenantID: s.tenant})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.OutcomeCompliant, entries[0].Outcome)

	s.Empty(s.publisher.byType(events.TypeResidencyViolation))
}

func (s *ResidencyServiceSuite) TestDeactivatedRuleStopsEnforcing() {
	rule := s.createRule(residency.CreateRuleInput{
		Jurisdiction:       id.JurisdictionEU,
		DataClassification: id.ClassificationPII,
		BlockedRegions:     []string{"us-east-1"},
		Action:             residency.ActionBlock,
	})

	_, err := s.svc.SetRuleActive(s.ctx, s.tenant, rule.ID, false)
	s.Require().NoError(err)

	decision, err := s.svc.Enforce(s.ctx, s.tenant, id.JurisdictionEU, id.ClassificationPII, "us-east-1")
	s.Require().NoError(err)
	s.True(decision.Compliant)
}

func (s *ResidencyServiceSuite) TestSetRuleActiveUnknownRule() {
	_, err := s.svc.SetRuleActive(s.ctx, s.tenant, id.RuleID{}, false)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ResidencyServiceSuite) TestTenantIsolation() {
	s.createRule(residency.CreateRuleInput{
		Jurisdiction:       id.JurisdictionEU,
		DataClassification: id.ClassificationAll,
		BlockedRegions:     []string{"us-east-1"},
		Action:             residency.ActionBlock,
	})

	other := id.NewTenantID()
	decision, err := s.svc.Enforce(s.ctx, other, id.JurisdictionEU, id.ClassificationPII, "us-east-1")
	s.Require().NoError(err)
	s.True(decision.Compliant)
}

func (s *ResidencyServiceSuite) TestGetStatus() {
	s.createRule(residency.CreateRuleInput{
		Jurisdiction:       id.JurisdictionEU,
		DataClassification: id.ClassificationPII,
		AllowedRegions:     []string{"eu-west-1"},
		Action:             residency.ActionBlock,
	})
	rule := s.createRule(residency.CreateRuleInput{
		Jurisdiction:       id.JurisdictionUS,
		DataClassification: id.ClassificationAll,
		BlockedRegions:     []string{"cn-north-1"},
		Action:             residency.ActionEncrypt,
	})
	_, err := s.svc.SetRuleActive(s.ctx, s.tenant, rule.ID, false)
	s.Require().NoError(err)

	status, err := s.svc.GetStatus(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Equal(2, status.TotalRules)
	s.Equal(1, status.ActiveRules)
	s.Equal(1, status.ByJurisdiction[id.JurisdictionEU])
	s.Equal(1, status.ByJurisdiction[id.JurisdictionUS])

	// Unions only cover active rules.
	s.Equal([]string{"eu-west-1"}, status.AllowedRegions)
	s.Empty(status.BlockedRegions)
}

func TestResidencyServiceSuite(t *testing.T) {
	suite.Run(t, new(ResidencyServiceSuite))
}

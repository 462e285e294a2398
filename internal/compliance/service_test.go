package compliance_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sovereign/internal/compliance"
	"sovereign/internal/compliance/metrics"
	"sovereign/internal/events"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/requestcontext"
)

var metricsInstance = metrics.New()

type ComplianceServiceSuite struct {
	suite.Suite
	svc    *compliance.Service
	tenant id.TenantID
	ctx    context.Context
}

func (s *ComplianceServiceSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.svc = compliance.NewService(
		compliance.NewInMemoryReportStore(),
		compliance.NewInMemoryMapStore(),
		events.Nop{},
		metricsInstance,
		logger,
	)
	s.tenant = id.NewTenantID()
	s.ctx = context.Background()
}

func (s *ComplianceServiceSuite) compliantConfig() compliance.DeploymentConfig {
	return compliance.DeploymentConfig{
		Regions:              []string{"eu-west-1"},
		EncryptionAlgorithms: []string{"AES-256"},
		TLSVersion:           "1.3",
		AccessControl:        compliance.AccessControlConfig{RBACEnabled: true, MFARequired: true},
		AuditLogging:         compliance.AuditLoggingConfig{Enabled: true, RetentionDays: 400},
		KeyManagement:        compliance.KeyManagementConfig{BYOKEnabled: true, RotationEnabled: true},
		SubProcessorRegister: true,
		IncidentResponse:     compliance.IncidentConfig{PlanDocumented: true},
	}
}

func (s *ComplianceServiceSuite) TestRunAuditPersistsReport() {
	report, err := s.svc.RunAudit(s.ctx, s.tenant, id.JurisdictionEU, s.compliantConfig())
	s.Require().NoError(err)
	s.Equal(compliance.OverallCompliant, report.Overall)
	s.Equal(8, report.PassedCount)

	got, err := s.svc.GetReport(s.ctx, s.tenant, report.AuditID)
	s.Require().NoError(err)
	s.Equal(report.AuditID, got.AuditID)
	s.Equal(report.Score, got.Score)
}

func (s *ComplianceServiceSuite) TestGetSummaryCapsRecommendations() {
	report, err := s.svc.RunAudit(s.ctx, s.tenant, id.JurisdictionEU, compliance.DeploymentConfig{})
	s.Require().NoError(err)
	s.Greater(report.FailedCount, 5)

	summary, err := s.svc.GetSummary(s.ctx, s.tenant, report.AuditID)
	s.Require().NoError(err)
	s.LessOrEqual(len(summary.TopRecommendations), 5)
	s.Equal(report.FailedCount, summary.Failed)
}

func (s *ComplianceServiceSuite) TestListAuditsNewestFirstWithFilter() {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, jurisdiction := range []id.Jurisdiction{id.JurisdictionEU, id.JurisdictionUS, id.JurisdictionEU} {
		ctx := requestcontext.WithTime(s.ctx, base.Add(time.Duration(i)*time.Hour))
		_, err := s.svc.RunAudit(ctx, s.tenant, jurisdiction, s.compliantConfig())
		s.Require().NoError(err)
	}

	reports, err := s.svc.ListAudits(s.ctx, s.tenant, id.JurisdictionEU)
	s.Require().NoError(err)
	s.Require().Len(reports, 2)
	s.True(reports[0].AuditedAt.After(reports[1].AuditedAt))

	all, err := s.svc.ListAudits(s.ctx, s.tenant, "")
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *ComplianceServiceSuite) TestGetReportUnknownAudit() {
	_, err := s.svc.GetReport(s.ctx, s.tenant, "missing")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ComplianceServiceSuite) TestMapLifecycle() {
	m, err := s.svc.CreateMap(s.ctx, compliance.CreateMapInput{
		TenantID:              s.tenant,
		Jurisdiction:          id.JurisdictionEU,
		RegulationName:        "GDPR",
		RequirementCategories: []compliance.Category{compliance.CategoryDataResidency},
		DeploymentConfig:      s.compliantConfig(),
	})
	s.Require().NoError(err)
	s.Equal(compliance.MapPendingReview, m.Status)
	s.Empty(m.VerifiedBy)

	verified, err := s.svc.VerifyMap(s.ctx, s.tenant, m.ID, compliance.MapCompliant, "auditor@example.com")
	s.Require().NoError(err)
	s.Equal(compliance.MapCompliant, verified.Status)
	s.Equal("auditor@example.com", verified.VerifiedBy)
	s.False(verified.LastVerifiedAt.IsZero())

	maps, err := s.svc.ListMaps(s.ctx, s.tenant, id.JurisdictionEU)
	s.Require().NoError(err)
	s.Len(maps, 1)
}

func (s *ComplianceServiceSuite) TestVerifyMapValidation() {
	_, err := s.svc.VerifyMap(s.ctx, s.tenant, id.MapID{}, "sideways", "auditor")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.svc.VerifyMap(s.ctx, s.tenant, id.MapID{}, compliance.MapCompliant, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.svc.VerifyMap(s.ctx, s.tenant, id.MapID{}, compliance.MapCompliant, "auditor")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ComplianceServiceSuite) TestVerifyDataResidency() {
	verification := compliance.VerifyDataResidency(id.JurisdictionEU,
		[]string{"eu-west-1", "us-east-1"},
		[]string{"eu-west-1", "eu-central-1"})
	s.False(verification.Passed)
	s.Equal([]string{"eu-west-1"}, verification.CompliantRegions)
	s.Equal([]string{"us-east-1"}, verification.ViolatingRegions)

	clean := compliance.VerifyDataResidency(id.JurisdictionEU,
		[]string{"eu-west-1"}, []string{"eu-west-1"})
	s.True(clean.Passed)
	s.Empty(clean.ViolatingRegions)
}

func TestComplianceServiceSuite(t *testing.T) {
	suite.Run(t, new(ComplianceServiceSuite))
}

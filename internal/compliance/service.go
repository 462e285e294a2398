package compliance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sovereign/internal/compliance/metrics"
	"sovereign/internal/events"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/sentinel"
	"sovereign/pkg/requestcontext"
)

// Service runs compliance audits and manages compliance maps.
type Service struct {
	reports   ReportStore
	maps      MapStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(reports ReportStore, maps MapStore, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		reports:   reports,
		maps:      maps,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// RunAudit evaluates the config against the jurisdiction's checklist and
// persists the scored report.
func (s *Service) RunAudit(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction, config DeploymentConfig) (Report, error) {
	start := time.Now()

	findings := RunChecklist(jurisdiction, config)
	score := Score(findings)
	report := Report{
		AuditID:         uuid.NewString(),
		TenantID:        tenantID,
		Jurisdiction:    jurisdiction,
		Score:           score,
		Overall:         OverallFor(score),
		Findings:        findings,
		Recommendations: Recommendations(findings),
		AuditedAt:       requestcontext.Now(ctx),
	}
	for _, f := range findings {
		switch f.Status {
		case FindingPassed:
			report.PassedCount++
		case FindingPartial:
			report.PartialCount++
		case FindingFailed:
			report.FailedCount++
		}
	}

	if err := s.reports.Append(ctx, report); err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "store compliance report")
	}

	s.metrics.ObserveAudit(string(report.Overall), report.Score, start)
	s.logger.InfoContext(ctx, "compliance audit complete",
		"audit_id", report.AuditID,
		"tenant_id", tenantID,
		"jurisdiction", jurisdiction,
		"score", report.Score,
		"overall_status", report.Overall,
	)
	return report, nil
}

// GetReport returns a full report by audit ID.
func (s *Service) GetReport(ctx context.Context, tenantID id.TenantID, auditID string) (Report, error) {
	report, err := s.reports.Get(ctx, tenantID, auditID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Report{}, dErrors.Wrap(err, dErrors.CodeNotFound, "audit report not found")
		}
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "get compliance report")
	}
	return report, nil
}

// GetSummary returns the condensed form of a report with at most five
// recommendations.
func (s *Service) GetSummary(ctx context.Context, tenantID id.TenantID, auditID string) (Summary, error) {
	report, err := s.GetReport(ctx, tenantID, auditID)
	if err != nil {
		return Summary{}, err
	}

	top := report.Recommendations
	if len(top) > 5 {
		top = top[:5]
	}
	return Summary{
		AuditID:            report.AuditID,
		Jurisdiction:       report.Jurisdiction,
		Score:              report.Score,
		Overall:            report.Overall,
		Passed:             report.PassedCount,
		Failed:             report.FailedCount,
		Partial:            report.PartialCount,
		TopRecommendations: top,
		AuditedAt:          report.AuditedAt,
	}, nil
}

// ListAudits returns the tenant's reports newest first.
func (s *Service) ListAudits(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction) ([]Report, error) {
	reports, err := s.reports.List(ctx, tenantID, jurisdiction)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list compliance reports")
	}
	return reports, nil
}

// ResidencyVerification partitions deployed regions against the permitted
// set.
type ResidencyVerification struct {
	Jurisdiction     id.Jurisdiction `json:"jurisdiction"`
	Passed           bool            `json:"passed"`
	CompliantRegions []string        `json:"compliant_regions"`
	ViolatingRegions []string        `json:"violating_regions"`
}

// VerifyDataResidency checks that every deployed region appears in the
// allowed set. This is pure domain logic - no I/O, no side effects.
func VerifyDataResidency(jurisdiction id.Jurisdiction, deployedRegions, allowedRegions []string) ResidencyVerification {
	allowed := make(map[string]bool, len(allowedRegions))
	for _, region := range allowedRegions {
		allowed[region] = true
	}

	verification := ResidencyVerification{Jurisdiction: jurisdiction}
	for _, region := range deployedRegions {
		if allowed[region] {
			verification.CompliantRegions = append(verification.CompliantRegions, region)
		} else {
			verification.ViolatingRegions = append(verification.ViolatingRegions, region)
		}
	}
	verification.Passed = len(verification.ViolatingRegions) == 0
	return verification
}

// CreateMapInput carries the caller-supplied fields of a compliance map.
type CreateMapInput struct {
	TenantID              id.TenantID
	Jurisdiction          id.Jurisdiction
	RegulationName        string
	RequirementCategories []Category
	DeploymentConfig      DeploymentConfig
}

// CreateMap records a new regulation mapping in pending review state.
func (s *Service) CreateMap(ctx context.Context, input CreateMapInput) (Map, error) {
	now := requestcontext.Now(ctx)
	m := Map{
		ID:                    id.MapID(uuid.New()),
		TenantID:              input.TenantID,
		Jurisdiction:          input.Jurisdiction,
		RegulationName:        input.RegulationName,
		RequirementCategories: input.RequirementCategories,
		DeploymentConfig:      input.DeploymentConfig,
		Status:                MapPendingReview,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := m.Validate(); err != nil {
		return Map{}, err
	}

	if err := s.maps.Create(ctx, m); err != nil {
		return Map{}, dErrors.Wrap(err, dErrors.CodeInternal, "create compliance map")
	}

	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeComplianceMappingCreated,
		TenantID: m.TenantID,
		Payload: map[string]any{
			"mapping_id":   m.ID.String(),
			"jurisdiction": m.Jurisdiction.String(),
			"regulation":   m.RegulationName,
		},
	})
	s.logger.InfoContext(ctx, "compliance mapping created",
		"mapping_id", m.ID,
		"jurisdiction", m.Jurisdiction,
		"regulation", m.RegulationName,
		"tenant_id", m.TenantID,
	)
	return m, nil
}

// ListMaps returns the tenant's maps for a jurisdiction.
func (s *Service) ListMaps(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction) ([]Map, error) {
	maps, err := s.maps.ListByJurisdiction(ctx, tenantID, jurisdiction)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list compliance maps")
	}
	return maps, nil
}

// VerifyMap records a verifier's judgement on a mapping.
func (s *Service) VerifyMap(ctx context.Context, tenantID id.TenantID, mapID id.MapID, status MapStatus, verifiedBy string) (Map, error) {
	if !validMapStatuses[status] {
		return Map{}, dErrors.New(dErrors.CodeInvalidInput, "invalid compliance status")
	}
	if verifiedBy == "" {
		return Map{}, dErrors.New(dErrors.CodeInvalidInput, "verifier identity is required")
	}

	m, err := s.maps.Get(ctx, tenantID, mapID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Map{}, dErrors.Wrap(err, dErrors.CodeNotFound, "compliance map not found")
		}
		return Map{}, dErrors.Wrap(err, dErrors.CodeInternal, "get compliance map")
	}

	now := requestcontext.Now(ctx)
	m.Status = status
	m.VerifiedBy = verifiedBy
	m.LastVerifiedAt = now
	m.UpdatedAt = now
	if err := s.maps.Update(ctx, m); err != nil {
		return Map{}, dErrors.Wrap(err, dErrors.CodeInternal, "update compliance map")
	}

	s.logger.InfoContext(ctx, "compliance mapping verified",
		"mapping_id", m.ID,
		"status", m.Status,
		"verified_by", verifiedBy,
	)
	return m, nil
}

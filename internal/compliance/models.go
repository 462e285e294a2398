// Package compliance audits deployment configurations against
// jurisdiction-specific checklists and maintains per-regulation compliance
// maps.
package compliance

import (
	"time"

	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

// FindingStatus grades one requirement.
type FindingStatus string

const (
	FindingPassed  FindingStatus = "passed"
	FindingPartial FindingStatus = "partial"
	FindingFailed  FindingStatus = "failed"
)

// credit is the score contribution multiplier of a finding status.
func (s FindingStatus) credit() float64 {
	switch s {
	case FindingPassed:
		return 1.0
	case FindingPartial:
		return 0.5
	default:
		return 0.0
	}
}

// OverallStatus is the tiered result of a full audit.
type OverallStatus string

const (
	OverallCompliant    OverallStatus = "compliant"
	OverallPartial      OverallStatus = "partial"
	OverallNonCompliant OverallStatus = "non_compliant"
)

// DeploymentConfig is the deployment surface an audit inspects.
type DeploymentConfig struct {
	Regions              []string            `json:"regions"`
	EncryptionAlgorithms []string            `json:"encryption_algorithms"`
	TLSVersion           string              `json:"tls_version"`
	AccessControl        AccessControlConfig `json:"access_control"`
	AuditLogging         AuditLoggingConfig  `json:"audit_logging"`
	KeyManagement        KeyManagementConfig `json:"key_management"`
	ThirdPartyServices   []string            `json:"third_party_services"`
	SubProcessorRegister bool                `json:"sub_processor_register"`
	IncidentResponse     IncidentConfig      `json:"incident_response"`
}

type AccessControlConfig struct {
	RBACEnabled bool `json:"rbac_enabled"`
	MFARequired bool `json:"mfa_required"`
}

type AuditLoggingConfig struct {
	Enabled       bool `json:"enabled"`
	RetentionDays int  `json:"retention_days"`
}

type KeyManagementConfig struct {
	BYOKEnabled     bool `json:"byok_enabled"`
	RotationEnabled bool `json:"rotation_enabled"`
}

type IncidentConfig struct {
	PlanDocumented bool `json:"plan_documented"`
}

// Finding is the evaluated outcome of one requirement.
type Finding struct {
	RequirementID string         `json:"requirement_id"`
	Category      Category       `json:"category"`
	Title         string         `json:"title"`
	Weight        int            `json:"weight"`
	Status        FindingStatus  `json:"status"`
	Evidence      map[string]any `json:"evidence"`
	Remediation   string         `json:"remediation,omitempty"`
}

// Report is a persisted audit result.
type Report struct {
	AuditID         string          `json:"audit_id"`
	TenantID        id.TenantID     `json:"tenant_id"`
	Jurisdiction    id.Jurisdiction `json:"jurisdiction"`
	Score           float64         `json:"compliance_score"`
	Overall         OverallStatus   `json:"overall_status"`
	Findings        []Finding       `json:"findings"`
	Recommendations []string        `json:"recommendations"`
	PassedCount     int             `json:"passed_count"`
	FailedCount     int             `json:"failed_count"`
	PartialCount    int             `json:"partial_count"`
	AuditedAt       time.Time       `json:"audited_at"`
}

// Summary is the condensed report form.
type Summary struct {
	AuditID            string          `json:"audit_id"`
	Jurisdiction       id.Jurisdiction `json:"jurisdiction"`
	Score              float64         `json:"compliance_score"`
	Overall            OverallStatus   `json:"overall_status"`
	Passed             int             `json:"passed"`
	Failed             int             `json:"failed"`
	Partial            int             `json:"partial"`
	TopRecommendations []string        `json:"top_recommendations"`
	AuditedAt          time.Time       `json:"audited_at"`
}

// MapStatus is the verification state of a compliance map entry.
type MapStatus string

const (
	MapCompliant     MapStatus = "compliant"
	MapNonCompliant  MapStatus = "non_compliant"
	MapPendingReview MapStatus = "pending_review"
	MapExempted      MapStatus = "exempted"
)

var validMapStatuses = map[MapStatus]bool{
	MapCompliant:     true,
	MapNonCompliant:  true,
	MapPendingReview: true,
	MapExempted:      true,
}

// Map binds a tenant's deployment configuration to one regulation in one
// jurisdiction and tracks its verification state.
type Map struct {
	ID                    id.MapID         `json:"id"`
	TenantID              id.TenantID      `json:"tenant_id"`
	Jurisdiction          id.Jurisdiction  `json:"jurisdiction"`
	RegulationName        string           `json:"regulation_name"`
	RequirementCategories []Category       `json:"requirement_categories"`
	DeploymentConfig      DeploymentConfig `json:"deployment_config"`
	Status                MapStatus        `json:"compliance_status"`
	LastVerifiedAt        time.Time        `json:"last_verified_at,omitempty"`
	VerifiedBy            string           `json:"verified_by,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// Validate checks the structural invariants of a compliance map.
func (m Map) Validate() error {
	if m.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	if m.Jurisdiction.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "jurisdiction is required")
	}
	if m.RegulationName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "regulation name is required")
	}
	if !validMapStatuses[m.Status] {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid compliance status")
	}
	return nil
}

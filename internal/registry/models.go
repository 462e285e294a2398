package registry

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

// ApprovalStatus tracks a registry entry through its review lifecycle.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalRevoked  ApprovalStatus = "revoked"
)

// allowedTransitions defines the legal approval state machine.
var allowedTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalPending:  {ApprovalApproved, ApprovalRejected},
	ApprovalApproved: {ApprovalRevoked},
	ApprovalRejected: {},
	ApprovalRevoked:  {},
}

// complianceFrameworks is the set of certification frameworks a registry
// entry may be tagged or certified against.
var complianceFrameworks = map[string]bool{
	"ISO-27001":    true,
	"SOC2-TYPE-II": true,
	"GDPR":         true,
	"CCPA":         true,
	"HIPAA":        true,
	"PIPL":         true,
	"DPDP":         true,
	"FedRAMP":      true,
	"C5":           true,
	"ENS":          true,
}

// SupportedFrameworks returns the framework allowlist in sorted order.
func SupportedFrameworks() []string {
	out := make([]string, 0, len(complianceFrameworks))
	for f := range complianceFrameworks {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// validateTags rejects any tag outside the framework allowlist.
func validateTags(tags []string) error {
	var unknown []string
	for _, t := range tags {
		if !complianceFrameworks[t] {
			unknown = append(unknown, t)
		}
	}
	if len(unknown) > 0 {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"unknown compliance tags %v, supported: %v", unknown, SupportedFrameworks())
	}
	return nil
}

// SovereignModel is a per-jurisdiction registry entry for a model approved
// (or pending approval) for sovereign deployment.
type SovereignModel struct {
	ID                      id.RegistrationID    `json:"registration_id"`
	TenantID                id.TenantID          `json:"tenant_id"`
	ModelID                 string               `json:"model_id"`
	ModelName               string               `json:"model_name"`
	ModelVersion            string               `json:"model_version"`
	Jurisdiction            id.Jurisdiction      `json:"jurisdiction"`
	ApprovedRegions         []string             `json:"approved_regions"`
	ComplianceTags          []string             `json:"compliance_tags"`
	DataHandlingConstraints map[string]string    `json:"data_handling_constraints,omitempty"`
	CertificationRefs       []id.CertificationID `json:"certification_refs,omitempty"`
	ApprovalStatus          ApprovalStatus       `json:"approval_status"`
	ApprovedBy              string               `json:"approved_by,omitempty"`
	ApprovedAt              time.Time            `json:"approved_at,omitzero"`
	IsAvailable             bool                 `json:"is_available"`
	SyncedFrom              id.RegistrationID    `json:"synced_from,omitzero"`
	RegisteredAt            time.Time            `json:"registered_at"`
	UpdatedAt               time.Time            `json:"updated_at"`
}

// RegistryKey is the compound uniqueness key for an entry. Two entries with
// the same key describe the same model version in the same jurisdiction.
func (m SovereignModel) RegistryKey() string {
	return fmt.Sprintf("%s:%s:%s:%s", m.TenantID, m.Jurisdiction, m.ModelID, m.ModelVersion)
}

// clone returns a copy that shares no slice or map storage with the receiver,
// so mutating one entry can never leak into another.
func (m SovereignModel) clone() SovereignModel {
	m.ApprovedRegions = slices.Clone(m.ApprovedRegions)
	m.ComplianceTags = slices.Clone(m.ComplianceTags)
	m.CertificationRefs = slices.Clone(m.CertificationRefs)
	m.DataHandlingConstraints = maps.Clone(m.DataHandlingConstraints)
	return m
}

// Validate checks registration invariants.
func (m SovereignModel) Validate() error {
	if m.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	if m.ModelID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "model id is required")
	}
	if m.ModelVersion == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "model version is required")
	}
	if m.Jurisdiction.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "jurisdiction is required")
	}
	return validateTags(m.ComplianceTags)
}

// CanTransition reports whether the approval state machine permits moving to
// the target status.
func (m SovereignModel) CanTransition(target ApprovalStatus) bool {
	for _, allowed := range allowedTransitions[m.ApprovalStatus] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ApplyApproval moves a pending entry to approved, stamping the approver.
func (m *SovereignModel) ApplyApproval(approvedBy string, at time.Time) error {
	if !m.CanTransition(ApprovalApproved) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot approve registration in status %s", m.ApprovalStatus)
	}
	m.ApprovalStatus = ApprovalApproved
	m.ApprovedBy = approvedBy
	m.ApprovedAt = at
	m.UpdatedAt = at
	return nil
}

// ApplyRejection moves a pending entry to rejected. Approver stamps stay
// empty.
func (m *SovereignModel) ApplyRejection(at time.Time) error {
	if !m.CanTransition(ApprovalRejected) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot reject registration in status %s", m.ApprovalStatus)
	}
	m.ApprovalStatus = ApprovalRejected
	m.UpdatedAt = at
	return nil
}

// ApplyRevocation moves an approved entry to revoked and withdraws it from
// availability.
func (m *SovereignModel) ApplyRevocation(at time.Time) error {
	if !m.CanTransition(ApprovalRevoked) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot revoke registration in status %s", m.ApprovalStatus)
	}
	m.ApprovalStatus = ApprovalRevoked
	m.IsAvailable = false
	m.UpdatedAt = at
	return nil
}

// CertificationStatus is the lifecycle state of a certification record.
type CertificationStatus string

const (
	CertificationCertified CertificationStatus = "certified"
	CertificationExpired   CertificationStatus = "expired"
	CertificationRevoked   CertificationStatus = "revoked"
)

// Certification is an immutable record of a framework certification issued
// for a registry entry. Records are appended, never updated.
type Certification struct {
	ID             id.CertificationID  `json:"certification_id"`
	RegistrationID id.RegistrationID   `json:"registration_id"`
	TenantID       id.TenantID         `json:"tenant_id"`
	CertifyingBody string              `json:"certifying_body"`
	Framework      string              `json:"framework"`
	CertificateID  string              `json:"certificate_id"`
	Status         CertificationStatus `json:"status"`
	CertifiedAt    time.Time           `json:"certified_at"`
	ValidUntil     time.Time           `json:"valid_until"`
}

// Query selects registry entries. Zero-valued fields are not filtered on.
type Query struct {
	Jurisdiction   id.Jurisdiction
	ComplianceTag  string
	ApprovalStatus ApprovalStatus
	ModelID        string
	AvailableOnly  bool
}

// Matches reports whether the entry satisfies every set filter.
func (q Query) Matches(m SovereignModel) bool {
	if !q.Jurisdiction.IsNil() && m.Jurisdiction != q.Jurisdiction {
		return false
	}
	if q.ModelID != "" && m.ModelID != q.ModelID {
		return false
	}
	if q.ApprovalStatus != "" && m.ApprovalStatus != q.ApprovalStatus {
		return false
	}
	if q.AvailableOnly && !m.IsAvailable {
		return false
	}
	if q.ComplianceTag != "" {
		found := false
		for _, t := range m.ComplianceTags {
			if t == q.ComplianceTag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SyncResult summarizes a cross-jurisdiction registry synchronization.
type SyncResult struct {
	SyncID             string          `json:"sync_id"`
	SourceJurisdiction id.Jurisdiction `json:"source_jurisdiction"`
	TargetJurisdiction id.Jurisdiction `json:"target_jurisdiction"`
	SyncedCount        int             `json:"synced_count"`
	SkippedCount       int             `json:"skipped_count"`
	TotalSourceEntries int             `json:"total_source_entries"`
	SyncedAt           time.Time       `json:"synced_at"`
}

package registry

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"sovereign/internal/events"
	"sovereign/internal/registry/metrics"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/sentinel"
	"sovereign/pkg/requestcontext"
)

// Service manages the per-jurisdiction sovereign model registry.
type Service struct {
	store     Store
	certs     CertificationStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(store Store, certs CertificationStore, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		certs:     certs,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterInput carries the caller-supplied fields of a registration.
type RegisterInput struct {
	TenantID                id.TenantID
	ModelID                 string
	ModelName               string
	ModelVersion            string
	Jurisdiction            id.Jurisdiction
	ApprovedRegions         []string
	ComplianceTags          []string
	DataHandlingConstraints map[string]string
}

// Register creates a pending registry entry. New entries are never
// available until explicitly approved and made available.
func (s *Service) Register(ctx context.Context, input RegisterInput) (SovereignModel, error) {
	now := requestcontext.Now(ctx)
	m := SovereignModel{
		ID:                      id.RegistrationID(uuid.New()),
		TenantID:                input.TenantID,
		ModelID:                 input.ModelID,
		ModelName:               input.ModelName,
		ModelVersion:            input.ModelVersion,
		Jurisdiction:            input.Jurisdiction,
		ApprovedRegions:         input.ApprovedRegions,
		ComplianceTags:          sortedTags(input.ComplianceTags),
		DataHandlingConstraints: input.DataHandlingConstraints,
		ApprovalStatus:          ApprovalPending,
		IsAvailable:             false,
		RegisteredAt:            now,
		UpdatedAt:               now,
	}
	if err := m.Validate(); err != nil {
		return SovereignModel{}, err
	}

	exists, err := s.store.KeyExists(ctx, m.TenantID, m.RegistryKey())
	if err != nil {
		return SovereignModel{}, dErrors.Wrap(err, dErrors.CodeInternal, "check registry key")
	}
	if exists {
		return SovereignModel{}, dErrors.Newf(dErrors.CodeConflict,
			"model %s version %s already registered for %s", m.ModelID, m.ModelVersion, m.Jurisdiction)
	}

	if err := s.store.Create(ctx, m); err != nil {
		return SovereignModel{}, dErrors.Wrap(err, dErrors.CodeInternal, "create registration")
	}

	s.metrics.IncrementRegistrations()
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeModelRegistered,
		TenantID: m.TenantID,
		Payload: map[string]any{
			"registration_id": m.ID.String(),
			"model_id":        m.ModelID,
			"model_version":   m.ModelVersion,
			"jurisdiction":    m.Jurisdiction.String(),
		},
	})
	s.logger.InfoContext(ctx, "model registered",
		"registration_id", m.ID,
		"model_id", m.ModelID,
		"model_version", m.ModelVersion,
		"jurisdiction", m.Jurisdiction,
		"compliance_tags", m.ComplianceTags,
		"tenant_id", m.TenantID,
	)
	return m, nil
}

// Get returns a single registry entry.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID, registrationID id.RegistrationID) (SovereignModel, error) {
	m, err := s.store.Get(ctx, tenantID, registrationID)
	if err != nil {
		return SovereignModel{}, storeError(err, "get registration")
	}
	return m, nil
}

// AddComplianceTags merges validated framework tags into an entry.
func (s *Service) AddComplianceTags(ctx context.Context, tenantID id.TenantID, registrationID id.RegistrationID, tags []string, addedBy string) (SovereignModel, error) {
	if err := validateTags(tags); err != nil {
		return SovereignModel{}, err
	}

	m, err := s.store.Get(ctx, tenantID, registrationID)
	if err != nil {
		return SovereignModel{}, storeError(err, "get registration")
	}

	merged := make(map[string]bool, len(m.ComplianceTags)+len(tags))
	for _, t := range m.ComplianceTags {
		merged[t] = true
	}
	for _, t := range tags {
		merged[t] = true
	}
	// Build a fresh slice rather than rewriting in place; the old backing
	// array may be shared with other copies of the entry.
	combined := make([]string, 0, len(merged))
	for t := range merged {
		combined = append(combined, t)
	}
	sort.Strings(combined)
	m.ComplianceTags = combined
	m.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, m); err != nil {
		return SovereignModel{}, storeError(err, "update registration")
	}

	s.logger.InfoContext(ctx, "compliance tags added",
		"registration_id", m.ID,
		"tags_added", tags,
		"added_by", addedBy,
	)
	return m, nil
}

// CertifyInput carries the fields of a certification record.
type CertifyInput struct {
	TenantID       id.TenantID
	RegistrationID id.RegistrationID
	CertifyingBody string
	Framework      string
	CertificateID  string
	ValidUntil     time.Time
}

// Certify appends an immutable certification record and links it into the
// registry entry.
func (s *Service) Certify(ctx context.Context, input CertifyInput) (Certification, error) {
	if !complianceFrameworks[input.Framework] {
		return Certification{}, dErrors.Newf(dErrors.CodeInvariantViolation,
			"unsupported framework %q, supported: %v", input.Framework, SupportedFrameworks())
	}
	if input.CertifyingBody == "" {
		return Certification{}, dErrors.New(dErrors.CodeInvalidInput, "certifying body is required")
	}

	m, err := s.store.Get(ctx, input.TenantID, input.RegistrationID)
	if err != nil {
		return Certification{}, storeError(err, "get registration")
	}

	now := requestcontext.Now(ctx)
	cert := Certification{
		ID:             id.CertificationID(uuid.New()),
		RegistrationID: m.ID,
		TenantID:       m.TenantID,
		CertifyingBody: input.CertifyingBody,
		Framework:      input.Framework,
		CertificateID:  input.CertificateID,
		Status:         CertificationCertified,
		CertifiedAt:    now,
		ValidUntil:     input.ValidUntil,
	}
	if err := s.certs.Append(ctx, cert); err != nil {
		return Certification{}, dErrors.Wrap(err, dErrors.CodeInternal, "append certification")
	}

	m.CertificationRefs = append(m.CertificationRefs, cert.ID)
	m.UpdatedAt = now
	if err := s.store.Update(ctx, m); err != nil {
		return Certification{}, storeError(err, "update registration")
	}

	s.metrics.IncrementCertifications()
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeModelCertified,
		TenantID: m.TenantID,
		Payload: map[string]any{
			"certification_id": cert.ID.String(),
			"registration_id":  m.ID.String(),
			"framework":        cert.Framework,
			"certifying_body":  cert.CertifyingBody,
		},
	})
	s.logger.InfoContext(ctx, "model certification recorded",
		"certification_id", cert.ID,
		"registration_id", m.ID,
		"framework", cert.Framework,
		"certifying_body", cert.CertifyingBody,
	)
	return cert, nil
}

// GetCertifications returns all certification records for an entry.
func (s *Service) GetCertifications(ctx context.Context, tenantID id.TenantID, registrationID id.RegistrationID) ([]Certification, error) {
	certs, err := s.certs.ListByRegistration(ctx, tenantID, registrationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list certifications")
	}
	return certs, nil
}

// Approve moves a pending entry to approved and publishes the approval.
func (s *Service) Approve(ctx context.Context, tenantID id.TenantID, registrationID id.RegistrationID, approvedBy string) (SovereignModel, error) {
	if approvedBy == "" {
		return SovereignModel{}, dErrors.New(dErrors.CodeInvalidInput, "approver identity is required")
	}

	m, err := s.store.Get(ctx, tenantID, registrationID)
	if err != nil {
		return SovereignModel{}, storeError(err, "get registration")
	}
	if err := m.ApplyApproval(approvedBy, requestcontext.Now(ctx)); err != nil {
		return SovereignModel{}, err
	}
	if err := s.store.Update(ctx, m); err != nil {
		return SovereignModel{}, storeError(err, "update registration")
	}

	s.metrics.IncrementTransition(string(ApprovalApproved))
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeModelApproved,
		TenantID: m.TenantID,
		Payload: map[string]any{
			"registration_id": m.ID.String(),
			"model_id":        m.ModelID,
			"jurisdiction":    m.Jurisdiction.String(),
			"approved_by":     approvedBy,
		},
	})
	s.logger.InfoContext(ctx, "model approved",
		"registration_id", m.ID,
		"model_id", m.ModelID,
		"jurisdiction", m.Jurisdiction,
		"approved_by", approvedBy,
	)
	return m, nil
}

// Reject moves a pending entry to rejected.
func (s *Service) Reject(ctx context.Context, tenantID id.TenantID, registrationID id.RegistrationID) (SovereignModel, error) {
	m, err := s.store.Get(ctx, tenantID, registrationID)
	if err != nil {
		return SovereignModel{}, storeError(err, "get registration")
	}
	if err := m.ApplyRejection(requestcontext.Now(ctx)); err != nil {
		return SovereignModel{}, err
	}
	if err := s.store.Update(ctx, m); err != nil {
		return SovereignModel{}, storeError(err, "update registration")
	}

	s.metrics.IncrementTransition(string(ApprovalRejected))
	s.logger.InfoContext(ctx, "model rejected", "registration_id", m.ID)
	return m, nil
}

// Revoke withdraws an approved entry. The entry becomes unavailable.
func (s *Service) Revoke(ctx context.Context, tenantID id.TenantID, registrationID id.RegistrationID, reason string) (SovereignModel, error) {
	m, err := s.store.Get(ctx, tenantID, registrationID)
	if err != nil {
		return SovereignModel{}, storeError(err, "get registration")
	}
	if err := m.ApplyRevocation(requestcontext.Now(ctx)); err != nil {
		return SovereignModel{}, err
	}
	if err := s.store.Update(ctx, m); err != nil {
		return SovereignModel{}, storeError(err, "update registration")
	}

	s.metrics.IncrementTransition(string(ApprovalRevoked))
	s.logger.WarnContext(ctx, "model approval revoked",
		"registration_id", m.ID,
		"model_id", m.ModelID,
		"reason", reason,
	)
	return m, nil
}

// SetAvailability flips availability and optionally replaces the approved
// region list.
func (s *Service) SetAvailability(ctx context.Context, tenantID id.TenantID, registrationID id.RegistrationID, available bool, regions []string) (SovereignModel, error) {
	m, err := s.store.Get(ctx, tenantID, registrationID)
	if err != nil {
		return SovereignModel{}, storeError(err, "get registration")
	}
	if available && m.ApprovalStatus != ApprovalApproved {
		return SovereignModel{}, dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot make %s registration available", m.ApprovalStatus)
	}

	m.IsAvailable = available
	if regions != nil {
		m.ApprovedRegions = regions
	}
	m.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, m); err != nil {
		return SovereignModel{}, storeError(err, "update registration")
	}

	s.logger.InfoContext(ctx, "model availability updated",
		"registration_id", m.ID,
		"is_available", available,
	)
	return m, nil
}

// Synchronize replicates the tenant's approved, available entries from the
// source jurisdiction into the target as fresh pending registrations.
// Entries whose registry key already exists in the target are skipped
// silently and counted.
func (s *Service) Synchronize(ctx context.Context, tenantID id.TenantID, source, target id.Jurisdiction) (SyncResult, error) {
	if source == target {
		return SyncResult{}, dErrors.New(dErrors.CodeInvalidInput, "source and target jurisdictions must differ")
	}

	entries, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return SyncResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "list registrations")
	}

	now := requestcontext.Now(ctx)
	result := SyncResult{
		SyncID:             uuid.NewString(),
		SourceJurisdiction: source,
		TargetJurisdiction: target,
		SyncedAt:           now,
	}
	for _, entry := range entries {
		if entry.Jurisdiction != source || entry.ApprovalStatus != ApprovalApproved || !entry.IsAvailable {
			continue
		}
		result.TotalSourceEntries++

		replicated := entry.clone()
		replicated.ID = id.RegistrationID(uuid.New())
		replicated.Jurisdiction = target
		replicated.ApprovalStatus = ApprovalPending
		replicated.ApprovedBy = ""
		replicated.ApprovedAt = time.Time{}
		replicated.IsAvailable = false
		replicated.SyncedFrom = entry.ID
		replicated.RegisteredAt = now
		replicated.UpdatedAt = now

		exists, err := s.store.KeyExists(ctx, tenantID, replicated.RegistryKey())
		if err != nil {
			return SyncResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "check registry key")
		}
		if exists {
			result.SkippedCount++
			continue
		}

		if err := s.store.Create(ctx, replicated); err != nil {
			return SyncResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "replicate registration")
		}
		result.SyncedCount++
	}

	s.metrics.ObserveSync(result.SyncedCount, result.SkippedCount)
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeRegistrySynchronized,
		TenantID: tenantID,
		Payload: map[string]any{
			"sync_id":             result.SyncID,
			"source_jurisdiction": source.String(),
			"target_jurisdiction": target.String(),
			"synced_count":        result.SyncedCount,
			"skipped_count":       result.SkippedCount,
		},
	})
	s.logger.InfoContext(ctx, "registry synchronization complete",
		"sync_id", result.SyncID,
		"source_jurisdiction", source,
		"target_jurisdiction", target,
		"synced_count", result.SyncedCount,
		"skipped_count", result.SkippedCount,
		"tenant_id", tenantID,
	)
	return result, nil
}

// QueryRegistry returns the tenant's entries matching every set filter,
// newest first.
func (s *Service) QueryRegistry(ctx context.Context, tenantID id.TenantID, query Query) ([]SovereignModel, error) {
	entries, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list registrations")
	}

	var out []SovereignModel
	for _, entry := range entries {
		if query.Matches(entry) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func sortedTags(tags []string) []string {
	out := append([]string(nil), tags...)
	sort.Strings(out)
	return out
}

func storeError(err error, op string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "registration not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, op)
}

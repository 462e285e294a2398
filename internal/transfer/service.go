package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"sovereign/internal/audit"
	"sovereign/internal/events"
	"sovereign/internal/transfer/metrics"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/sentinel"
	"sovereign/pkg/requestcontext"
)

// Service evaluates cross-border transfers. Every check is audited regardless
// of outcome.
type Service struct {
	store     ExemptionStore
	auditor   *audit.Service
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(store ExemptionStore, auditor *audit.Service, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		auditor:   auditor,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Check evaluates a transfer from src to dst. Resolution order:
//
//  1. An unexpired exemption for the corridor allows the transfer.
//  2. A restricted destination blocks high-sensitivity classifications.
//  3. Everything else is allowed.
func (s *Service) Check(ctx context.Context, tenantID id.TenantID, src, dst id.Jurisdiction, classification id.DataClassification) (Decision, error) {
	now := requestcontext.Now(ctx)

	key := corridorKey(src, dst, classification)
	exemption, err := s.store.FindByCorridor(ctx, tenantID, key)
	switch {
	case err == nil && !exemption.Expired(now):
		decision := Decision{
			Allowed:     true,
			Exempted:    true,
			ExemptionID: exemption.ID,
			Reason:      fmt.Sprintf("exemption %s covers corridor", exemption.ID),
		}
		return decision, s.finish(ctx, tenantID, src, dst, classification, decision)
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "lookup transfer exemption")
	}

	if isRestricted(src, dst) && classification.IsHighSensitivity() {
		decision := Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("transfers of %s data from %s to %s are restricted", classification, src, dst),
		}
		return decision, s.finish(ctx, tenantID, src, dst, classification, decision)
	}

	decision := Decision{Allowed: true, Reason: "no restriction applies"}
	return decision, s.finish(ctx, tenantID, src, dst, classification, decision)
}

// finish audits the decision and publishes a block event when denied.
func (s *Service) finish(ctx context.Context, tenantID id.TenantID, src, dst id.Jurisdiction, classification id.DataClassification, decision Decision) error {
	outcome := audit.OutcomeCompliant
	switch {
	case decision.Exempted:
		outcome = audit.OutcomeExempted
	case !decision.Allowed:
		outcome = audit.OutcomeBlocked
	}

	entry := audit.Entry{
		EventType:          audit.EventCrossBorderCheck,
		TenantID:           tenantID,
		Jurisdiction:       src,
		DataClassification: classification,
		SourceRegion:       src.String(),
		DestinationRegion:  dst.String(),
		Outcome:            outcome,
		Details:            map[string]any{"reason": decision.Reason},
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		return err
	}

	s.metrics.IncrementCheck(string(outcome))
	if !decision.Allowed {
		s.publisher.Publish(ctx, events.Event{
			Type:     events.TypeTransferBlocked,
			TenantID: tenantID,
			Payload: map[string]any{
				"source":         src.String(),
				"destination":    dst.String(),
				"classification": classification.String(),
			},
		})
	}
	return nil
}

// GrantExemption records an exemption for a corridor. Granting again for the
// same corridor replaces the previous exemption.
func (s *Service) GrantExemption(ctx context.Context, input Exemption) (Exemption, error) {
	now := requestcontext.Now(ctx)
	exemption := input
	exemption.ID = id.ExemptionID(uuid.New())
	exemption.CreatedAt = now

	if err := exemption.Validate(); err != nil {
		return Exemption{}, err
	}
	if exemption.Expired(now) {
		return Exemption{}, dErrors.New(dErrors.CodeInvalidInput, "exemption expiry must be in the future")
	}

	if err := s.store.Put(ctx, exemption); err != nil {
		return Exemption{}, dErrors.Wrap(err, dErrors.CodeInternal, "store transfer exemption")
	}

	s.metrics.IncrementExemptionGranted()
	s.logger.InfoContext(ctx, "transfer exemption granted",
		"exemption_id", exemption.ID,
		"tenant_id", exemption.TenantID,
		"corridor", exemption.Key(),
		"expires_at", exemption.ExpiresAt,
	)
	return exemption, nil
}

// ListExemptions returns all exemptions for the tenant, expired included.
func (s *Service) ListExemptions(ctx context.Context, tenantID id.TenantID) ([]Exemption, error) {
	exemptions, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list transfer exemptions")
	}
	return exemptions, nil
}

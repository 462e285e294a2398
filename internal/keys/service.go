// Package keys tracks customer-supplied encryption keys for sovereign
// deployments. Key material is fingerprinted at the boundary; the service
// stores and returns sha256 fingerprints only, never raw material.
package keys

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"sovereign/internal/events"
	"sovereign/internal/keys/metrics"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/sentinel"
	"sovereign/pkg/requestcontext"
)

// Service manages the BYOK key lifecycle.
type Service struct {
	store     Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(store Store, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// ImportInput carries the fields of a key import. Material is consumed for
// fingerprinting and never persisted.
type ImportInput struct {
	TenantID     id.TenantID
	Jurisdiction id.Jurisdiction
	Label        string
	Algorithm    string
	Material     []byte
}

// ImportKey validates and fingerprints customer key material.
func (s *Service) ImportKey(ctx context.Context, input ImportInput) (ManagedKey, error) {
	if input.TenantID.IsNil() {
		return ManagedKey{}, dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	if err := validateMaterial(input.Algorithm, input.Material); err != nil {
		return ManagedKey{}, err
	}

	now := requestcontext.Now(ctx)
	fingerprint := Fingerprint(input.Material)
	key := ManagedKey{
		ID:           id.KeyID(uuid.New()),
		TenantID:     input.TenantID,
		Jurisdiction: input.Jurisdiction,
		Label:        input.Label,
		Algorithm:    input.Algorithm,
		Fingerprint:  fingerprint,
		Version:      1,
		State:        KeyActive,
		Lifecycle: []LifecycleEvent{{
			Action:      lifecycleImported,
			Version:     1,
			Fingerprint: fingerprint,
			At:          now,
		}},
		ImportedAt: now,
		UpdatedAt:  now,
	}
	if err := s.store.Create(ctx, key); err != nil {
		return ManagedKey{}, dErrors.Wrap(err, dErrors.CodeInternal, "create key")
	}

	s.metrics.IncrementImports(key.Algorithm)
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeKeyImported,
		TenantID: key.TenantID,
		Payload: map[string]any{
			"key_id":       key.ID.String(),
			"algorithm":    key.Algorithm,
			"fingerprint":  key.Fingerprint,
			"jurisdiction": key.Jurisdiction.String(),
		},
	})
	s.logger.InfoContext(ctx, "key imported",
		"key_id", key.ID,
		"algorithm", key.Algorithm,
		"fingerprint", key.Fingerprint,
		"tenant_id", key.TenantID,
	)
	return key, nil
}

// RotateKey replaces a key's material, bumping the version and
// re-fingerprinting. The new material must satisfy the same algorithm
// minimums as an import.
func (s *Service) RotateKey(ctx context.Context, tenantID id.TenantID, keyID id.KeyID, material []byte) (ManagedKey, error) {
	key, err := s.get(ctx, tenantID, keyID)
	if err != nil {
		return ManagedKey{}, err
	}
	if err := validateMaterial(key.Algorithm, material); err != nil {
		return ManagedKey{}, err
	}

	if err := key.ApplyRotation(Fingerprint(material), requestcontext.Now(ctx)); err != nil {
		return ManagedKey{}, err
	}
	if err := s.store.Update(ctx, key); err != nil {
		return ManagedKey{}, dErrors.Wrap(err, dErrors.CodeInternal, "update key")
	}

	s.metrics.IncrementRotations()
	s.logger.InfoContext(ctx, "key rotated",
		"key_id", key.ID,
		"version", key.Version,
		"fingerprint", key.Fingerprint,
	)
	return key, nil
}

// RevokeKey retires a key with a reason. Revocation is terminal.
func (s *Service) RevokeKey(ctx context.Context, tenantID id.TenantID, keyID id.KeyID, reason string) (ManagedKey, error) {
	key, err := s.get(ctx, tenantID, keyID)
	if err != nil {
		return ManagedKey{}, err
	}
	if err := key.ApplyRevocation(reason, requestcontext.Now(ctx)); err != nil {
		return ManagedKey{}, err
	}
	if err := s.store.Update(ctx, key); err != nil {
		return ManagedKey{}, dErrors.Wrap(err, dErrors.CodeInternal, "update key")
	}

	s.metrics.IncrementRevocations()
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeKeyRevoked,
		TenantID: key.TenantID,
		Payload: map[string]any{
			"key_id": key.ID.String(),
			"reason": reason,
		},
	})
	s.logger.WarnContext(ctx, "key revoked",
		"key_id", key.ID,
		"reason", reason,
	)
	return key, nil
}

// GetKey returns a single key by ID.
func (s *Service) GetKey(ctx context.Context, tenantID id.TenantID, keyID id.KeyID) (ManagedKey, error) {
	return s.get(ctx, tenantID, keyID)
}

// ListKeys returns the tenant's keys newest first.
func (s *Service) ListKeys(ctx context.Context, tenantID id.TenantID) ([]ManagedKey, error) {
	out, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list keys")
	}
	return out, nil
}

// GetLifecycle returns a key's append-only history.
func (s *Service) GetLifecycle(ctx context.Context, tenantID id.TenantID, keyID id.KeyID) ([]LifecycleEvent, error) {
	key, err := s.get(ctx, tenantID, keyID)
	if err != nil {
		return nil, err
	}
	return key.Lifecycle, nil
}

func (s *Service) get(ctx context.Context, tenantID id.TenantID, keyID id.KeyID) (ManagedKey, error) {
	key, err := s.store.Get(ctx, tenantID, keyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ManagedKey{}, dErrors.Wrap(err, dErrors.CodeNotFound, "key not found")
		}
		return ManagedKey{}, dErrors.Wrap(err, dErrors.CodeInternal, "get key")
	}
	return key, nil
}

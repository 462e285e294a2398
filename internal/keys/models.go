package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

// KeyState is the lifecycle state of a managed key.
type KeyState string

const (
	KeyActive  KeyState = "active"
	KeyRevoked KeyState = "revoked"
)

// minMaterialSize maps each supported algorithm to the smallest key
// material, in bytes, accepted at import.
var minMaterialSize = map[string]int{
	"AES-256":    32,
	"RSA-4096":   512,
	"ECDSA-P384": 48,
}

// SupportedAlgorithms lists the algorithms accepted at import.
func SupportedAlgorithms() []string {
	return []string{"AES-256", "ECDSA-P384", "RSA-4096"}
}

// validateMaterial checks algorithm support and minimum material size.
func validateMaterial(algorithm string, material []byte) error {
	minSize, ok := minMaterialSize[algorithm]
	if !ok {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"unsupported algorithm %q, supported: %v", algorithm, SupportedAlgorithms())
	}
	if len(material) < minSize {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"key material too small for %s: %d bytes, need at least %d", algorithm, len(material), minSize)
	}
	return nil
}

// Fingerprint returns the hex sha256 digest of key material. The raw
// material is hashed at the boundary and never stored or returned.
func Fingerprint(material []byte) string {
	sum := sha256.Sum256(material)
	return hex.EncodeToString(sum[:])
}

// LifecycleEvent is one entry in a key's append-only history.
type LifecycleEvent struct {
	Action      string    `json:"action"`
	Version     int       `json:"version"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	At          time.Time `json:"at"`
}

const (
	lifecycleImported = "imported"
	lifecycleRotated  = "rotated"
	lifecycleRevoked  = "revoked"
)

// ManagedKey is a customer-supplied encryption key tracked by fingerprint.
type ManagedKey struct {
	ID               id.KeyID         `json:"key_id"`
	TenantID         id.TenantID      `json:"tenant_id"`
	Jurisdiction     id.Jurisdiction  `json:"jurisdiction"`
	Label            string           `json:"label"`
	Algorithm        string           `json:"algorithm"`
	Fingerprint      string           `json:"fingerprint"`
	Version          int              `json:"version"`
	State            KeyState         `json:"state"`
	RevocationReason string           `json:"revocation_reason,omitempty"`
	Lifecycle        []LifecycleEvent `json:"lifecycle"`
	ImportedAt       time.Time        `json:"imported_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ApplyRotation replaces the fingerprint and bumps the version. Only active
// keys rotate.
func (k *ManagedKey) ApplyRotation(fingerprint string, at time.Time) error {
	if k.State != KeyActive {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot rotate %s key", k.State)
	}
	k.Version++
	k.Fingerprint = fingerprint
	k.UpdatedAt = at
	k.Lifecycle = append(k.Lifecycle, LifecycleEvent{
		Action:      lifecycleRotated,
		Version:     k.Version,
		Fingerprint: fingerprint,
		At:          at,
	})
	return nil
}

// ApplyRevocation retires the key. Revocation is terminal and requires a
// reason.
func (k *ManagedKey) ApplyRevocation(reason string, at time.Time) error {
	if reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "revocation reason is required")
	}
	if k.State != KeyActive {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot revoke %s key", k.State)
	}
	k.State = KeyRevoked
	k.RevocationReason = reason
	k.UpdatedAt = at
	k.Lifecycle = append(k.Lifecycle, LifecycleEvent{
		Action:  lifecycleRevoked,
		Version: k.Version,
		Reason:  reason,
		At:      at,
	})
	return nil
}

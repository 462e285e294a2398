// Package domain holds typed identifiers and domain primitives shared across
// modules. IDs wrap uuid.UUID so a RuleID can never be passed where a
// DeploymentID is expected; enums are constructed via Parse functions at
// trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "sovereign/pkg/domain-errors"
)

// TenantID identifies a tenant. Every store read/write is scoped by it.
type TenantID uuid.UUID

func (t TenantID) IsNil() bool { return uuid.UUID(t) == uuid.Nil }
func (t TenantID) String() string { return uuid.UUID(t).String() }

func (t TenantID) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *TenantID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(t), b) }

// RuleID identifies a residency rule.
type RuleID uuid.UUID

func (r RuleID) IsNil() bool { return uuid.UUID(r) == uuid.Nil }
func (r RuleID) String() string { return uuid.UUID(r).String() }

func (r RuleID) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
func (r *RuleID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(r), b) }

// PolicyID identifies a routing policy.
type PolicyID uuid.UUID

func (p PolicyID) IsNil() bool { return uuid.UUID(p) == uuid.Nil }
func (p PolicyID) String() string { return uuid.UUID(p).String() }

func (p PolicyID) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
func (p *PolicyID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(p), b) }

// DeploymentID identifies a regional deployment.
type DeploymentID uuid.UUID

func (d DeploymentID) IsNil() bool { return uuid.UUID(d) == uuid.Nil }
func (d DeploymentID) String() string { return uuid.UUID(d).String() }

func (d DeploymentID) MarshalText() ([]byte, error) { return []byte(d.String()), nil }
func (d *DeploymentID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(d), b) }

// RegistrationID identifies a sovereign model registry entry.
type RegistrationID uuid.UUID

func (r RegistrationID) IsNil() bool { return uuid.UUID(r) == uuid.Nil }
func (r RegistrationID) String() string { return uuid.UUID(r).String() }

func (r RegistrationID) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
func (r *RegistrationID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(r), b) }

// CertificationID identifies an immutable certification record.
type CertificationID uuid.UUID

func (c CertificationID) IsNil() bool { return uuid.UUID(c) == uuid.Nil }
func (c CertificationID) String() string { return uuid.UUID(c).String() }

func (c CertificationID) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
func (c *CertificationID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(c), b) }

// ExemptionID identifies a cross-border transfer exemption.
type ExemptionID uuid.UUID

func (e ExemptionID) IsNil() bool { return uuid.UUID(e) == uuid.Nil }
func (e ExemptionID) String() string { return uuid.UUID(e).String() }

func (e ExemptionID) MarshalText() ([]byte, error) { return []byte(e.String()), nil }
func (e *ExemptionID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(e), b) }

// KeyID identifies a customer-managed encryption key.
type KeyID uuid.UUID

func (k KeyID) IsNil() bool { return uuid.UUID(k) == uuid.Nil }
func (k KeyID) String() string { return uuid.UUID(k).String() }

func (k KeyID) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
func (k *KeyID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(k), b) }

// MapID identifies a compliance map entry.
type MapID uuid.UUID

func (m MapID) IsNil() bool { return uuid.UUID(m) == uuid.Nil }
func (m MapID) String() string { return uuid.UUID(m).String() }

func (m MapID) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *MapID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(m), b) }

// unmarshalID backs the UnmarshalText implementations so IDs round-trip
// through JSON as canonical UUID strings.
func unmarshalID(dst *uuid.UUID, b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}

// NewTenantID returns a fresh random tenant ID.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// ParseTenantID constructs a TenantID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID.
func ParseTenantID(s string) (TenantID, error) {
	if s == "" {
		return TenantID{}, dErrors.New(dErrors.CodeInvalidInput, "tenant id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return TenantID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid tenant id")
	}
	if u == uuid.Nil {
		return TenantID{}, dErrors.New(dErrors.CodeInvalidInput, "tenant id cannot be the nil uuid")
	}
	return TenantID(u), nil
}

// Package transfer evaluates cross-border data transfers between
// jurisdictions, honoring tenant-scoped exemptions.
package transfer

import (
	"fmt"
	"time"

	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

// restrictedDestinations maps a source jurisdiction to the destinations it
// may not send high-sensitivity data to. The table is intentionally
// asymmetric: regulatory restrictions do not mirror.
var restrictedDestinations = map[id.Jurisdiction][]id.Jurisdiction{
	id.JurisdictionEU: {id.JurisdictionUS, id.JurisdictionCN, id.JurisdictionRU, id.JurisdictionIN},
	id.JurisdictionCN: {id.JurisdictionUS, id.JurisdictionEU, "AU", id.JurisdictionGB},
	id.JurisdictionRU: {id.JurisdictionUS, id.JurisdictionEU, id.JurisdictionGB, "AU"},
	id.JurisdictionUS: {id.JurisdictionCN, id.JurisdictionRU, "IR", "KP"},
}

// isRestricted reports whether sending to dst from src is on the restricted
// list.
func isRestricted(src, dst id.Jurisdiction) bool {
	for _, restricted := range restrictedDestinations[src] {
		if restricted == dst {
			return true
		}
	}
	return false
}

// Exemption authorizes a transfer corridor that restrictions would otherwise
// block. Exemptions are keyed per corridor and classification; an expiry is
// optional.
type Exemption struct {
	ID                      id.ExemptionID        `json:"id"`
	TenantID                id.TenantID           `json:"tenant_id"`
	SourceJurisdiction      id.Jurisdiction       `json:"source_jurisdiction"`
	DestinationJurisdiction id.Jurisdiction       `json:"destination_jurisdiction"`
	DataClassification      id.DataClassification `json:"data_classification"`
	Reason                  string                `json:"reason"`
	ExpiresAt               time.Time             `json:"expires_at,omitzero"`
	CreatedAt               time.Time             `json:"created_at"`
}

// Key identifies the corridor the exemption covers.
func (e Exemption) Key() string {
	return corridorKey(e.SourceJurisdiction, e.DestinationJurisdiction, e.DataClassification)
}

// Expired reports whether the exemption has lapsed at the given time. A zero
// ExpiresAt means the exemption never expires.
func (e Exemption) Expired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return !e.ExpiresAt.After(now)
}

// Validate checks the structural invariants of an exemption.
func (e Exemption) Validate() error {
	if e.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	if e.SourceJurisdiction.IsNil() || e.DestinationJurisdiction.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "source and destination jurisdictions are required")
	}
	if !e.DataClassification.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid data classification")
	}
	if e.Reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "exemption reason is required")
	}
	return nil
}

func corridorKey(src, dst id.Jurisdiction, class id.DataClassification) string {
	return fmt.Sprintf("%s:%s:%s", src, dst, class)
}

// Decision is the outcome of a transfer check.
type Decision struct {
	Allowed  bool `json:"allowed"`
	Exempted bool `json:"exempted"`
	// ExemptionID is set when an exemption authorized the transfer.
	ExemptionID id.ExemptionID `json:"exemption_id,omitzero"`
	Reason      string         `json:"reason"`
}

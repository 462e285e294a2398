package domain

import (
	"strings"

	dErrors "sovereign/pkg/domain-errors"
)

// Jurisdiction is a regulatory domain: an ISO 3166-1 alpha-2 country code or
// a supranational bloc code such as EU. Stored upper-cased.
//
// Unlike DataClassification there is no closed allowlist - new jurisdictions
// appear as tenants onboard - so parsing only normalizes and shape-checks.
type Jurisdiction string

// Well-known jurisdictions referenced by static tables.
const (
	JurisdictionEU     Jurisdiction = "EU"
	JurisdictionUS     Jurisdiction = "US"
	JurisdictionCN     Jurisdiction = "CN"
	JurisdictionGB     Jurisdiction = "GB"
	JurisdictionRU     Jurisdiction = "RU"
	JurisdictionIN     Jurisdiction = "IN"
	JurisdictionGlobal Jurisdiction = "GLOBAL"
)

// ParseJurisdiction normalizes and validates a jurisdiction code.
//
// Errors: returns CodeInvalidInput when the value is empty or not a 2-8
// character letter code.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "jurisdiction cannot be empty")
	}
	if len(s) < 2 || len(s) > 8 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "jurisdiction must be a 2-8 character code")
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "jurisdiction must contain only letters")
		}
	}
	return Jurisdiction(s), nil
}

// String returns the string representation of the jurisdiction code.
func (j Jurisdiction) String() string {
	return string(j)
}

// IsNil returns true if the jurisdiction is empty.
func (j Jurisdiction) IsNil() bool {
	return j == ""
}

package domain

import dErrors "sovereign/pkg/domain-errors"

// DataClassification is the sensitivity tier of a data field.
// Invariant: the value must be one of the supported tiers.
//
// Usage: construct via ParseDataClassification at trust boundaries to enforce
// the allowlist; direct casting bypasses validation.
type DataClassification string

// Supported classification tiers, ordered from most to least sensitive.
// "all" is the wildcard used by rules that apply to every tier.
const (
	ClassificationBiometric DataClassification = "biometric"
	ClassificationHealth    DataClassification = "health"
	ClassificationPII       DataClassification = "pii"
	ClassificationFinancial DataClassification = "financial"
	ClassificationAll       DataClassification = "all"
)

// ClassificationTiers lists tiers from most to least sensitive.
var ClassificationTiers = []DataClassification{
	ClassificationBiometric,
	ClassificationHealth,
	ClassificationPII,
	ClassificationFinancial,
	ClassificationAll,
}

var validClassifications = map[DataClassification]bool{
	ClassificationBiometric: true,
	ClassificationHealth:    true,
	ClassificationPII:       true,
	ClassificationFinancial: true,
	ClassificationAll:       true,
}

// highSensitivity marks the tiers that trigger stricter cross-border rules.
var highSensitivity = map[DataClassification]bool{
	ClassificationBiometric: true,
	ClassificationHealth:    true,
	ClassificationPII:       true,
}

// ParseDataClassification constructs a DataClassification from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseDataClassification(s string) (DataClassification, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "data classification cannot be empty")
	}
	c := DataClassification(s)
	if !validClassifications[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid data classification")
	}
	return c, nil
}

// IsValid checks if the classification is one of the supported tiers.
func (c DataClassification) IsValid() bool {
	return validClassifications[c]
}

// IsHighSensitivity reports whether the tier triggers strict transfer
// restrictions (biometric, health, pii).
func (c DataClassification) IsHighSensitivity() bool {
	return highSensitivity[c]
}

// Matches reports whether a rule declared for classification c applies to
// data of classification other. A rule for "all" matches every tier.
func (c DataClassification) Matches(other DataClassification) bool {
	return c == ClassificationAll || c == other
}

// String returns the string representation of the classification.
func (c DataClassification) String() string {
	return string(c)
}

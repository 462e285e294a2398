// Package residency enforces data residency rules: per-tenant constraints on
// which regions may hold data of a given jurisdiction and classification.
package residency

import (
	"time"

	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

// Action is what enforcement does when a rule is violated.
type Action string

const (
	ActionBlock     Action = "block"
	ActionEncrypt   Action = "encrypt"
	ActionAnonymize Action = "anonymize"
	ActionRedirect  Action = "redirect"
)

var validActions = map[Action]bool{
	ActionBlock:     true,
	ActionEncrypt:   true,
	ActionAnonymize: true,
	ActionRedirect:  true,
}

// ParseAction constructs an Action from external input.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !validActions[a] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid residency action")
	}
	return a, nil
}

// Rule constrains where data may reside. A region is permitted when it is not
// in BlockedRegions and, if AllowedRegions is non-empty, appears there. A rule
// with both lists empty never triggers.
//
// Invariant: AllowedRegions and BlockedRegions are disjoint.
type Rule struct {
	ID                 id.RuleID             `json:"id"`
	TenantID           id.TenantID           `json:"tenant_id"`
	Jurisdiction       id.Jurisdiction       `json:"jurisdiction"`
	DataClassification id.DataClassification `json:"data_classification"`
	AllowedRegions     []string              `json:"allowed_regions"`
	BlockedRegions     []string              `json:"blocked_regions"`
	Action             Action                `json:"action"`
	Priority           int                   `json:"priority"`
	Active             bool                  `json:"active"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// Validate checks the structural invariants of a rule.
//
// Errors: CodeInvalidInput for bad enum values or negative priority;
// CodeInvariantViolation when a region appears in both lists.
func (r Rule) Validate() error {
	if r.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	if r.Jurisdiction.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "jurisdiction is required")
	}
	if !r.DataClassification.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid data classification")
	}
	if !validActions[r.Action] {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid residency action")
	}
	if r.Priority < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "priority cannot be negative")
	}

	blocked := make(map[string]bool, len(r.BlockedRegions))
	for _, region := range r.BlockedRegions {
		blocked[region] = true
	}
	for _, region := range r.AllowedRegions {
		if blocked[region] {
			return dErrors.Newf(dErrors.CodeInvariantViolation,
				"region %q cannot be both allowed and blocked", region)
		}
	}
	return nil
}

// Applies reports whether the rule constrains the given jurisdiction and
// classification. Rules declared for classification "all" apply to every tier.
func (r Rule) Applies(jurisdiction id.Jurisdiction, classification id.DataClassification) bool {
	return r.Active &&
		r.Jurisdiction == jurisdiction &&
		r.DataClassification.Matches(classification)
}

// permits reports whether the rule allows data in the region. A rule with
// both lists empty permits everything.
func (r Rule) permits(region string) bool {
	for _, blocked := range r.BlockedRegions {
		if blocked == region {
			return false
		}
	}
	if len(r.AllowedRegions) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRegions {
		if allowed == region {
			return true
		}
	}
	return false
}

// Decision is the outcome of a residency evaluation.
type Decision struct {
	Compliant bool `json:"compliant"`
	// RuleID and Action identify the first violated rule; zero when compliant.
	RuleID id.RuleID `json:"rule_id,omitzero"`
	Action Action    `json:"required_action,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// Status summarizes a tenant's residency posture. The region fields are the
// unions across active rules.
type Status struct {
	TenantID       id.TenantID             `json:"tenant_id"`
	TotalRules     int                     `json:"total_rules"`
	ActiveRules    int                     `json:"active_rules"`
	ByJurisdiction map[id.Jurisdiction]int `json:"by_jurisdiction"`
	AllowedRegions []string                `json:"allowed_regions"`
	BlockedRegions []string                `json:"blocked_regions"`
	LastRuleChange time.Time               `json:"last_rule_change,omitzero"`
}

// Package routing resolves inference requests to regional deployments
// according to tenant routing policies.
package routing

import (
	"time"

	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

// Strategy controls whether a policy may fall back to its secondary target.
type Strategy string

const (
	// StrategyStrict never falls back; the primary target or nothing.
	StrategyStrict Strategy = "strict"
	// StrategyPreferred tries the primary, then the fallback target.
	StrategyPreferred Strategy = "preferred"
	// StrategyFallback behaves like preferred; kept distinct so policies can
	// express intent for reporting.
	StrategyFallback Strategy = "fallback"
)

var validStrategies = map[Strategy]bool{
	StrategyStrict:    true,
	StrategyPreferred: true,
	StrategyFallback:  true,
}

// ParseStrategy constructs a Strategy from external input.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(s)
	if !validStrategies[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid routing strategy")
	}
	return st, nil
}

// allowsFallback reports whether the strategy permits the secondary target.
func (s Strategy) allowsFallback() bool {
	return s == StrategyPreferred || s == StrategyFallback
}

// Policy binds requests for a jurisdiction to a target deployment. Policies
// are evaluated in ascending priority order; the first usable target wins.
type Policy struct {
	ID           id.PolicyID     `json:"id"`
	TenantID     id.TenantID     `json:"tenant_id"`
	Name         string          `json:"name"`
	Jurisdiction id.Jurisdiction `json:"jurisdiction"`
	// ModelFilter restricts the policy to the listed model IDs. Empty means
	// the policy applies to every model.
	ModelFilter          []string        `json:"model_filter,omitempty"`
	TargetDeploymentID   id.DeploymentID `json:"target_deployment_id"`
	FallbackDeploymentID id.DeploymentID `json:"fallback_deployment_id,omitzero"`
	Strategy             Strategy        `json:"strategy"`
	Priority             int             `json:"priority"`
	Active               bool            `json:"active"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Validate checks the structural invariants of a policy.
func (p Policy) Validate() error {
	if p.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	if p.Jurisdiction.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "jurisdiction is required")
	}
	if p.TargetDeploymentID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "target deployment is required")
	}
	if !validStrategies[p.Strategy] {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid routing strategy")
	}
	if p.Strategy.allowsFallback() && p.FallbackDeploymentID.IsNil() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s strategy requires a fallback deployment", p.Strategy)
	}
	if p.Priority < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "priority cannot be negative")
	}
	return nil
}

// appliesTo reports whether the policy covers the model.
func (p Policy) appliesTo(modelID string) bool {
	if len(p.ModelFilter) == 0 {
		return true
	}
	for _, m := range p.ModelFilter {
		if m == modelID {
			return true
		}
	}
	return false
}

// Route is a resolved destination for an inference request.
type Route struct {
	PolicyID     id.PolicyID     `json:"policy_id"`
	DeploymentID id.DeploymentID `json:"deployment_id"`
	Region       string          `json:"region"`
	EndpointURL  string          `json:"endpoint_url"`
	// Fallback marks routes served by a policy's secondary target.
	Fallback bool `json:"fallback"`
}

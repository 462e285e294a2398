package residency

import (
	"context"

	id "sovereign/pkg/domain"
)

// RuleStore persists residency rules scoped by tenant.
type RuleStore interface {
	Create(ctx context.Context, rule Rule) error
	Get(ctx context.Context, tenantID id.TenantID, ruleID id.RuleID) (Rule, error)
	Update(ctx context.Context, rule Rule) error
	// ListByTenant returns every rule for the tenant, active or not.
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]Rule, error)
}

package deployment

import (
	"context"

	id "sovereign/pkg/domain"
)

// Store persists deployments scoped by tenant.
type Store interface {
	Create(ctx context.Context, d Deployment) error
	Get(ctx context.Context, tenantID id.TenantID, deploymentID id.DeploymentID) (Deployment, error)
	Update(ctx context.Context, d Deployment) error
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]Deployment, error)
	// FindActive returns the active deployment of the model in the region,
	// if any.
	FindActive(ctx context.Context, tenantID id.TenantID, modelID, region string) (Deployment, error)
}

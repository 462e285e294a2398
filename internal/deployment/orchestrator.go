package deployment

import "context"

// Manifest describes what the orchestrator should provision.
type Manifest struct {
	DeploymentID string
	TenantID     string
	ModelID      string
	ModelVersion string
	Region       string
	ClusterName  string
	Namespace    string
	Resources    ResourceConfig
}

// Orchestrator provisions model serving infrastructure in a region. The
// returned endpoint URL is recorded when the deployment activates.
type Orchestrator interface {
	Provision(ctx context.Context, manifest Manifest) (endpointURL string, err error)
	Teardown(ctx context.Context, manifest Manifest) error
}

// StaticOrchestrator fabricates deterministic endpoints without touching any
// infrastructure. Used in tests and local development.
type StaticOrchestrator struct{}

func (StaticOrchestrator) Provision(_ context.Context, m Manifest) (string, error) {
	return "https://" + m.Region + ".models.sovereign.internal/" + m.ModelID + "/" + m.ModelVersion, nil
}

func (StaticOrchestrator) Teardown(context.Context, Manifest) error { return nil }

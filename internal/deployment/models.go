// Package deployment manages regional model deployments and their lifecycle.
package deployment

import (
	"time"

	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

// Status is the lifecycle state of a deployment.
type Status string

const (
	StatusPending         Status = "pending"
	StatusDeploying       Status = "deploying"
	StatusActive          Status = "active"
	StatusFailed          Status = "failed"
	StatusDecommissioning Status = "decommissioning"
	StatusDecommissioned  Status = "decommissioned"
)

// allowedTransitions defines the deployment state machine. Decommissioned is
// terminal; failed deployments may be retried through deploying. Teardown can
// fail, so decommissioning may land in failed.
var allowedTransitions = map[Status][]Status{
	StatusPending:         {StatusDeploying},
	StatusDeploying:       {StatusActive, StatusFailed},
	StatusActive:          {StatusDecommissioning, StatusFailed},
	StatusFailed:          {StatusDeploying},
	StatusDecommissioning: {StatusDecommissioned, StatusFailed},
}

// ParseStatus validates an externally supplied status value.
func ParseStatus(s string) (Status, error) {
	switch status := Status(s); status {
	case StatusPending, StatusDeploying, StatusActive, StatusFailed, StatusDecommissioning, StatusDecommissioned:
		return status, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown deployment status %q", s)
}

// CanTransitionTo reports whether moving to next is a legal transition.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Deployment is the aggregate root for one model running in one region.
//
// Invariants:
//   - EndpointURL is set only while Status is active
//   - ErrorMessage is set only while Status is failed
//   - Status changes follow the allowedTransitions state machine
type Deployment struct {
	ID           id.DeploymentID `json:"id"`
	TenantID     id.TenantID     `json:"tenant_id"`
	ModelID      string          `json:"model_id"`
	ModelVersion string          `json:"model_version"`
	Region       string          `json:"region"`
	Jurisdiction id.Jurisdiction `json:"jurisdiction"`
	ClusterName  string          `json:"cluster_name,omitempty"`
	Namespace    string          `json:"namespace,omitempty"`
	Resources    ResourceConfig  `json:"resources"`
	Status       Status          `json:"status"`
	EndpointURL  string          `json:"endpoint_url,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ResourceConfig sizes the serving workload. Zero values let the
// orchestrator apply its defaults.
type ResourceConfig struct {
	Replicas    int    `json:"replicas,omitempty"`
	CPULimit    string `json:"cpu_limit,omitempty"`
	MemoryLimit string `json:"memory_limit,omitempty"`
}

func (d *Deployment) IsActive() bool {
	return d.Status == StatusActive
}

// CanTransition checks if the deployment may move to the next status.
func (d *Deployment) CanTransition(next Status) error {
	if !d.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"deployment cannot move from %s to %s", d.Status, next)
	}
	return nil
}

// ApplyActivation marks the deployment active with its serving endpoint.
// Call CanTransition first to validate the transition.
func (d *Deployment) ApplyActivation(endpointURL string, now time.Time) {
	d.Status = StatusActive
	d.EndpointURL = endpointURL
	d.ErrorMessage = ""
	d.UpdatedAt = now
}

// ApplyFailure marks the deployment failed and clears the endpoint.
// Call CanTransition first to validate the transition.
func (d *Deployment) ApplyFailure(message string, now time.Time) {
	d.Status = StatusFailed
	d.EndpointURL = ""
	d.ErrorMessage = message
	d.UpdatedAt = now
}

// ApplyTransition moves the deployment to a non-active, non-failed status.
func (d *Deployment) ApplyTransition(next Status, now time.Time) {
	d.Status = next
	if next != StatusActive {
		d.EndpointURL = ""
	}
	if next != StatusFailed {
		d.ErrorMessage = ""
	}
	d.UpdatedAt = now
}

// NewDeployment constructs a pending deployment.
func NewDeployment(deploymentID id.DeploymentID, tenantID id.TenantID, modelID, modelVersion, region string, jurisdiction id.Jurisdiction, now time.Time) (*Deployment, error) {
	if modelID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "model id cannot be empty")
	}
	if modelVersion == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "model version cannot be empty")
	}
	if region == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "region cannot be empty")
	}
	if jurisdiction.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "jurisdiction cannot be empty")
	}
	return &Deployment{
		ID:           deploymentID,
		TenantID:     tenantID,
		ModelID:      modelID,
		ModelVersion: modelVersion,
		Region:       region,
		Jurisdiction: jurisdiction,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

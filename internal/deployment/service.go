package deployment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sovereign/internal/events"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/sentinel"
	"sovereign/pkg/requestcontext"
)

// RegionPolicy filters candidate regions through residency rules. Satisfied
// by the residency service.
type RegionPolicy interface {
	PermittedRegions(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction, classification id.DataClassification, candidates []string) ([]string, error)
}

// Service manages the deployment lifecycle. Region placement is validated
// against residency rules before anything is provisioned.
type Service struct {
	store        Store
	orchestrator Orchestrator
	regions      RegionPolicy
	publisher    events.Publisher
	logger       *slog.Logger
}

func NewService(store Store, orchestrator Orchestrator, regions RegionPolicy, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		orchestrator: orchestrator,
		regions:      regions,
		publisher:    publisher,
		logger:       logger,
	}
}

// DeployInput carries the caller-supplied fields of a deployment request.
type DeployInput struct {
	TenantID     id.TenantID
	ModelID      string
	ModelVersion string
	Region       string
	Jurisdiction id.Jurisdiction
	ClusterName  string
	Namespace    string
	Resources    ResourceConfig
}

// Deploy validates placement, records a pending deployment and provisions it.
// The deployment ends active on success or failed with the provisioning error
// recorded.
func (s *Service) Deploy(ctx context.Context, input DeployInput) (Deployment, error) {
	now := requestcontext.Now(ctx)

	permitted, err := s.regions.PermittedRegions(ctx, input.TenantID, input.Jurisdiction, id.ClassificationAll, []string{input.Region})
	if err != nil {
		return Deployment{}, err
	}
	if len(permitted) == 0 {
		return Deployment{}, dErrors.Newf(dErrors.CodeInvariantViolation,
			"region %s is not permitted for jurisdiction %s", input.Region, input.Jurisdiction)
	}

	d, err := NewDeployment(id.DeploymentID(uuid.New()), input.TenantID, input.ModelID, input.ModelVersion, input.Region, input.Jurisdiction, now)
	if err != nil {
		return Deployment{}, err
	}
	d.ClusterName = input.ClusterName
	d.Namespace = input.Namespace
	d.Resources = input.Resources
	if err := s.store.Create(ctx, *d); err != nil {
		return Deployment{}, dErrors.Wrap(err, dErrors.CodeInternal, "create deployment")
	}

	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeDeploymentInitiated,
		TenantID: d.TenantID,
		Payload: map[string]any{
			"deployment_id": d.ID.String(),
			"model_id":      d.ModelID,
			"region":        d.Region,
		},
	})

	d.ApplyTransition(StatusDeploying, now)
	if err := s.store.Update(ctx, *d); err != nil {
		return Deployment{}, dErrors.Wrap(err, dErrors.CodeInternal, "update deployment")
	}

	endpointURL, provisionErr := s.orchestrator.Provision(ctx, manifestFor(*d))
	if provisionErr != nil {
		d.ApplyFailure(provisionErr.Error(), requestcontext.Now(ctx))
		if err := s.store.Update(ctx, *d); err != nil {
			return Deployment{}, dErrors.Wrap(err, dErrors.CodeInternal, "update deployment")
		}
		s.logger.ErrorContext(ctx, "deployment provisioning failed",
			"deployment_id", d.ID,
			"region", d.Region,
			"error", provisionErr,
		)
		return *d, nil
	}

	d.ApplyActivation(endpointURL, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, *d); err != nil {
		return Deployment{}, dErrors.Wrap(err, dErrors.CodeInternal, "update deployment")
	}

	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeDeploymentActive,
		TenantID: d.TenantID,
		Payload: map[string]any{
			"deployment_id": d.ID.String(),
			"endpoint_url":  d.EndpointURL,
			"region":        d.Region,
		},
	})
	s.logger.InfoContext(ctx, "deployment active",
		"deployment_id", d.ID,
		"model_id", d.ModelID,
		"region", d.Region,
	)
	return *d, nil
}

// RegionResult pairs one region of a multi-region rollout with its outcome.
type RegionResult struct {
	Region     string
	Deployment Deployment
	Err        error
}

// DeployMultiRegion rolls a model out to several regions concurrently. Each
// region succeeds or fails independently; the slice preserves input order.
func (s *Service) DeployMultiRegion(ctx context.Context, input DeployInput, regions []string) ([]RegionResult, error) {
	if len(regions) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one region is required")
	}

	results := make([]RegionResult, len(regions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, region := range regions {
		g.Go(func() error {
			regionInput := input
			regionInput.Region = region
			d, err := s.Deploy(ctx, regionInput)
			results[i] = RegionResult{Region: region, Deployment: d, Err: err}
			return nil
		})
	}
	// Goroutines record errors per region instead of returning them.
	_ = g.Wait()
	return results, nil
}

// Decommission drains and removes an active deployment.
func (s *Service) Decommission(ctx context.Context, tenantID id.TenantID, deploymentID id.DeploymentID) (Deployment, error) {
	d, err := s.get(ctx, tenantID, deploymentID)
	if err != nil {
		return Deployment{}, err
	}
	if err := d.CanTransition(StatusDecommissioning); err != nil {
		return Deployment{}, err
	}

	now := requestcontext.Now(ctx)
	manifest := manifestFor(d)

	d.ApplyTransition(StatusDecommissioning, now)
	if err := s.store.Update(ctx, d); err != nil {
		return Deployment{}, dErrors.Wrap(err, dErrors.CodeInternal, "update deployment")
	}

	if err := s.orchestrator.Teardown(ctx, manifest); err != nil {
		if terr := d.CanTransition(StatusFailed); terr != nil {
			return Deployment{}, terr
		}
		d.ApplyFailure(err.Error(), requestcontext.Now(ctx))
		if uerr := s.store.Update(ctx, d); uerr != nil {
			return Deployment{}, dErrors.Wrap(uerr, dErrors.CodeInternal, "update deployment")
		}
		s.logger.ErrorContext(ctx, "deployment teardown failed",
			"deployment_id", d.ID,
			"region", d.Region,
			"error", err,
		)
		return d, nil
	}

	d.ApplyTransition(StatusDecommissioned, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, d); err != nil {
		return Deployment{}, dErrors.Wrap(err, dErrors.CodeInternal, "update deployment")
	}
	return d, nil
}

// UpdateStatusInput carries a status report from the orchestrator.
type UpdateStatusInput struct {
	Status       Status
	EndpointURL  string
	ErrorMessage string
}

// UpdateStatus applies a status transition reported by the orchestrator.
// Activation requires an endpoint URL and failure an error message; every
// transition is checked against the state machine.
func (s *Service) UpdateStatus(ctx context.Context, tenantID id.TenantID, deploymentID id.DeploymentID, input UpdateStatusInput) (Deployment, error) {
	d, err := s.get(ctx, tenantID, deploymentID)
	if err != nil {
		return Deployment{}, err
	}
	if err := d.CanTransition(input.Status); err != nil {
		return Deployment{}, err
	}

	now := requestcontext.Now(ctx)
	switch input.Status {
	case StatusActive:
		if input.EndpointURL == "" {
			return Deployment{}, dErrors.New(dErrors.CodeInvalidInput, "endpoint url is required to activate")
		}
		d.ApplyActivation(input.EndpointURL, now)
	case StatusFailed:
		if input.ErrorMessage == "" {
			return Deployment{}, dErrors.New(dErrors.CodeInvalidInput, "error message is required to mark failed")
		}
		d.ApplyFailure(input.ErrorMessage, now)
	default:
		d.ApplyTransition(input.Status, now)
	}

	if err := s.store.Update(ctx, d); err != nil {
		return Deployment{}, dErrors.Wrap(err, dErrors.CodeInternal, "update deployment")
	}

	if d.Status == StatusActive {
		s.publisher.Publish(ctx, events.Event{
			Type:     events.TypeDeploymentActive,
			TenantID: d.TenantID,
			Payload: map[string]any{
				"deployment_id": d.ID.String(),
				"endpoint_url":  d.EndpointURL,
				"region":        d.Region,
			},
		})
	}
	s.logger.InfoContext(ctx, "deployment status updated",
		"deployment_id", d.ID,
		"status", d.Status,
	)
	return d, nil
}

// Get returns one deployment.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID, deploymentID id.DeploymentID) (Deployment, error) {
	return s.get(ctx, tenantID, deploymentID)
}

// List returns all deployments for the tenant.
func (s *Service) List(ctx context.Context, tenantID id.TenantID) ([]Deployment, error) {
	deployments, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list deployments")
	}
	return deployments, nil
}

func manifestFor(d Deployment) Manifest {
	return Manifest{
		DeploymentID: d.ID.String(),
		TenantID:     d.TenantID.String(),
		ModelID:      d.ModelID,
		ModelVersion: d.ModelVersion,
		Region:       d.Region,
		ClusterName:  d.ClusterName,
		Namespace:    d.Namespace,
		Resources:    d.Resources,
	}
}

func (s *Service) get(ctx context.Context, tenantID id.TenantID, deploymentID id.DeploymentID) (Deployment, error) {
	d, err := s.store.Get(ctx, tenantID, deploymentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Deployment{}, dErrors.Wrap(err, dErrors.CodeNotFound, "deployment not found")
		}
		return Deployment{}, dErrors.Wrap(err, dErrors.CodeInternal, "get deployment")
	}
	return d, nil
}

package routing

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"sovereign/internal/audit"
	"sovereign/internal/deployment"
	"sovereign/internal/events"
	"sovereign/internal/routing/metrics"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/sentinel"
	"sovereign/pkg/requestcontext"
)

// DeploymentSource looks up routing targets. Satisfied by the deployment
// service.
type DeploymentSource interface {
	Get(ctx context.Context, tenantID id.TenantID, deploymentID id.DeploymentID) (deployment.Deployment, error)
}

// Service resolves routes and manages routing policies.
type Service struct {
	store       PolicyStore
	deployments DeploymentSource
	auditor     *audit.Service
	publisher   events.Publisher
	analytics   Analytics
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewService(store PolicyStore, deployments DeploymentSource, auditor *audit.Service, publisher events.Publisher, analytics Analytics, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		deployments: deployments,
		auditor:     auditor,
		publisher:   publisher,
		analytics:   analytics,
		metrics:     m,
		logger:      logger,
	}
}

// CreatePolicyInput carries the caller-supplied fields of a new policy.
type CreatePolicyInput struct {
	TenantID             id.TenantID
	Name                 string
	Jurisdiction         id.Jurisdiction
	ModelFilter          []string
	TargetDeploymentID   id.DeploymentID
	FallbackDeploymentID id.DeploymentID
	Strategy             Strategy
	Priority             int
}

// CreatePolicy validates and persists a new policy. The target deployment
// must exist; it need not be active yet.
func (s *Service) CreatePolicy(ctx context.Context, input CreatePolicyInput) (Policy, error) {
	now := requestcontext.Now(ctx)
	policy := Policy{
		ID:                   id.PolicyID(uuid.New()),
		TenantID:             input.TenantID,
		Name:                 input.Name,
		Jurisdiction:         input.Jurisdiction,
		ModelFilter:          input.ModelFilter,
		TargetDeploymentID:   input.TargetDeploymentID,
		FallbackDeploymentID: input.FallbackDeploymentID,
		Strategy:             input.Strategy,
		Priority:             input.Priority,
		Active:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}

	if _, err := s.deployments.Get(ctx, policy.TenantID, policy.TargetDeploymentID); err != nil {
		return Policy{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "target deployment does not exist")
	}

	if err := s.store.Create(ctx, policy); err != nil {
		return Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "create routing policy")
	}
	s.logger.InfoContext(ctx, "routing policy created",
		"policy_id", policy.ID,
		"tenant_id", policy.TenantID,
		"jurisdiction", policy.Jurisdiction,
	)
	return policy, nil
}

// SetPolicyActive toggles a policy.
func (s *Service) SetPolicyActive(ctx context.Context, tenantID id.TenantID, policyID id.PolicyID, active bool) (Policy, error) {
	policy, err := s.store.Get(ctx, tenantID, policyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Policy{}, dErrors.Wrap(err, dErrors.CodeNotFound, "routing policy not found")
		}
		return Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "get routing policy")
	}
	policy.Active = active
	policy.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, policy); err != nil {
		return Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "update routing policy")
	}
	return policy, nil
}

// ListPolicies returns all policies for the tenant.
func (s *Service) ListPolicies(ctx context.Context, tenantID id.TenantID) ([]Policy, error) {
	policies, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list routing policies")
	}
	return policies, nil
}

// Route resolves the deployment that should serve a request. Policies are
// walked in ascending priority; a policy is skipped when its model filter
// excludes the request. A policy whose primary target is active wins
// immediately; otherwise preferred and fallback strategies try the secondary
// target. Exhausting every policy is a not-found error.
func (s *Service) Route(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction, modelID string) (Route, error) {
	start := time.Now()
	defer s.metrics.ObserveRoute(start)

	policies, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return Route{}, dErrors.Wrap(err, dErrors.CodeInternal, "load routing policies")
	}

	var applicable []Policy
	for _, p := range policies {
		if p.Active && p.Jurisdiction == jurisdiction && p.appliesTo(modelID) {
			applicable = append(applicable, p)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Priority < applicable[j].Priority
	})

	for _, policy := range applicable {
		route, ok, err := s.resolvePolicy(ctx, policy)
		if err != nil {
			return Route{}, err
		}
		if !ok {
			continue
		}
		return route, s.finish(ctx, tenantID, jurisdiction, modelID, route)
	}

	s.metrics.IncrementDecision("exhausted")
	return Route{}, dErrors.Newf(dErrors.CodeNotFound,
		"no routable deployment for model %s in %s", modelID, jurisdiction)
}

// resolvePolicy tries a policy's primary then, strategy permitting, its
// fallback target. Missing deployments are treated as unusable targets, not
// errors.
func (s *Service) resolvePolicy(ctx context.Context, policy Policy) (Route, bool, error) {
	target, err := s.deployments.Get(ctx, policy.TenantID, policy.TargetDeploymentID)
	switch {
	case err == nil && target.IsActive():
		return Route{
			PolicyID:     policy.ID,
			DeploymentID: target.ID,
			Region:       target.Region,
			EndpointURL:  target.EndpointURL,
		}, true, nil
	case err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound):
		return Route{}, false, err
	}

	if !policy.Strategy.allowsFallback() || policy.FallbackDeploymentID.IsNil() {
		return Route{}, false, nil
	}

	fallback, err := s.deployments.Get(ctx, policy.TenantID, policy.FallbackDeploymentID)
	switch {
	case err == nil && fallback.IsActive():
		return Route{
			PolicyID:     policy.ID,
			DeploymentID: fallback.ID,
			Region:       fallback.Region,
			EndpointURL:  fallback.EndpointURL,
			Fallback:     true,
		}, true, nil
	case err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound):
		return Route{}, false, err
	}
	return Route{}, false, nil
}

// finish audits the decision and records analytics.
func (s *Service) finish(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction, modelID string, route Route) error {
	outcome := audit.OutcomeCompliant
	details := map[string]any{
		"policy_id":     route.PolicyID.String(),
		"deployment_id": route.DeploymentID.String(),
		"model_id":      modelID,
		"fallback":      route.Fallback,
	}
	if err := s.auditor.Record(ctx, audit.Entry{
		EventType:         audit.EventDataRoutingEnforcement,
		TenantID:          tenantID,
		Jurisdiction:      jurisdiction,
		DestinationRegion: route.Region,
		Outcome:           outcome,
		Details:           details,
	}); err != nil {
		return err
	}

	result := "primary"
	if route.Fallback {
		result = "fallback"
	}
	s.metrics.IncrementDecision(result)
	s.analytics.RecordDecision(ctx, tenantID, jurisdiction, route.Fallback)
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeRoutingDecision,
		TenantID: tenantID,
		Payload:  details,
	})
	return nil
}

// DecisionCounts exposes per-tenant analytics counters.
func (s *Service) DecisionCounts(ctx context.Context, tenantID id.TenantID) (map[string]int64, error) {
	return s.analytics.Counts(ctx, tenantID)
}

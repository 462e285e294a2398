package routing_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"sovereign/internal/audit"
	"sovereign/internal/deployment"
	"sovereign/internal/events"
	"sovereign/internal/residency"
	residencymetrics "sovereign/internal/residency/metrics"
	"sovereign/internal/routing"
	routingmetrics "sovereign/internal/routing/metrics"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

var (
	routingMetricsInstance   = routingmetrics.New()
	residencyMetricsInstance = residencymetrics.New()
)

type RoutingServiceSuite struct {
	suite.Suite
	svc         *routing.Service
	deployments *deployment.Service
	analytics   *routing.InMemoryAnalytics
	auditor     *audit.Service
	tenant      id.TenantID
	ctx         context.Context
}

func (s *RoutingServiceSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.auditor = audit.NewService(audit.NewInMemoryStore(), logger)
	s.analytics = routing.NewInMemoryAnalytics()

	residencySvc := residency.NewService(
		residency.NewInMemoryStore(), s.auditor, events.Nop{}, residencyMetricsInstance, logger)
	s.deployments = deployment.NewService(
		deployment.NewInMemoryStore(), deployment.StaticOrchestrator{}, residencySvc, events.Nop{}, logger)

	s.svc = routing.NewService(
		routing.NewInMemoryStore(), s.deployments, s.auditor, events.Nop{},
		s.analytics, routingMetricsInstance, logger)
	s.tenant = id.NewTenantID()
	s.ctx = context.Background()
}

func (s *RoutingServiceSuite) deploy(modelID, region string) deployment.Deployment {
	d, err := s.deployments.Deploy(s.ctx, deployment.DeployInput{
		TenantID:     s.tenant,
		ModelID:      modelID,
		ModelVersion: "v1",
		Region:       region,
		Jurisdiction: id.JurisdictionEU,
	})
	s.Require().NoError(err)
	s.Require().Equal(deployment.StatusActive, d.Status)
	return d
}

func (s *RoutingServiceSuite) createPolicy(input routing.CreatePolicyInput) routing.Policy {
	input.TenantID = s.tenant
	if input.Jurisdiction.IsNil() {
		input.Jurisdiction = id.JurisdictionEU
	}
	policy, err := s.svc.CreatePolicy(s.ctx, input)
	s.Require().NoError(err)
	return policy
}

func (s *RoutingServiceSuite) TestRoutePrimaryTarget() {
	d := s.deploy("llama-guard", "eu-west-1")
	policy := s.createPolicy(routing.CreatePolicyInput{
		TargetDeploymentID: d.ID,
		Strategy:           routing.StrategyStrict,
		Priority:           10,
	})

	route, err := s.svc.Route(s.ctx, s.tenant, id.JurisdictionEU, "llama-guard")
	s.Require().NoError(err)
	s.Equal(policy.ID, route.PolicyID)
	s.Equal(d.ID, route.DeploymentID)
	s.False(route.Fallback)
	s.Equal(d.EndpointURL, route.EndpointURL)
}

func (s *RoutingServiceSuite) TestRouteIsIdempotent() {
	d := s.deploy("llama-guard", "eu-west-1")
	s.createPolicy(routing.CreatePolicyInput{
		TargetDeploymentID: d.ID,
		Strategy:           routing.StrategyStrict,
	})

	first, err := s.svc.Route(s.ctx, s.tenant, id.JurisdictionEU, "llama-guard")
	s.Require().NoError(err)
	second, err := s.svc.Route(s.ctx, s.tenant, id.JurisdictionEU, "llama-guard")
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *RoutingServiceSuite) TestRouteFallsBackWhenPrimaryInactive() {
	primary := s.deploy("llama-guard", "eu-west-1")
	secondary := s.deploy("llama-guard", "eu-central-1")

	_, err := s.deployments.Decommission(s.ctx, s.tenant, primary.ID)
	s.Require().NoError(err)

	s.createPolicy(routing.CreatePolicyInput{
		TargetDeploymentID:   primary.ID,
		FallbackDeploymentID: secondary.ID,
		Strategy:             routing.StrategyPreferred,
	})

	route, err := s.svc.Route(s.ctx, s.tenant, id.JurisdictionEU, "llama-guard")
	s.Require().NoError(err)
	s.Equal(secondary.ID, route.DeploymentID)
	s.True(route.Fallback)
}

func (s *RoutingServiceSuite) TestStrictStrategyNeverFallsBack() {
	primary := s.deploy("llama-guard", "eu-west-1")
	_, err := s.deployments.Decommission(s.ctx, s.tenant, primary.ID)
	s.Require().NoError(err)

	s.createPolicy(routing.CreatePolicyInput{
		TargetDeploymentID: primary.ID,
		Strategy:           routing.StrategyStrict,
	})

	_, err = s.svc.Route(s.ctx, s.tenant, id.JurisdictionEU, "llama-guard")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RoutingServiceSuite) TestLowerPriorityPolicyWins() {
	first := s.deploy("llama-guard", "eu-west-1")
	second := s.deploy("llama-guard", "eu-central-1")

	s.createPolicy(routing.CreatePolicyInput{
		TargetDeploymentID: second.ID,
		Strategy:           routing.StrategyStrict,
		Priority:           20,
	})
	s.createPolicy(routing.CreatePolicyInput{
		TargetDeploymentID: first.ID,
		Strategy:           routing.StrategyStrict,
		Priority:           5,
	})

	route, err := s.svc.Route(s.ctx, s.tenant, id.JurisdictionEU, "llama-guard")
	s.Require().NoError(err)
	s.Equal(first.ID, route.DeploymentID)
}

func (s *RoutingServiceSuite) TestModelFilterSkipsPolicy() {
	guard := s.deploy("llama-guard", "eu-west-1")
	chat := s.deploy("chat-70b", "eu-central-1")

	s.createPolicy(routing.CreatePolicyInput{
		ModelFilter:        []string{"chat-70b"},
		TargetDeploymentID: chat.ID,
		Strategy:           routing.StrategyStrict,
		Priority:           1,
	})
	s.createPolicy(routing.CreatePolicyInput{
		TargetDeploymentID: guard.ID,
		Strategy:           routing.StrategyStrict,
		Priority:           10,
	})

	route, err := s.svc.Route(s.ctx, s.tenant, id.JurisdictionEU, "llama-guard")
	s.Require().NoError(err)
	s.Equal(guard.ID, route.DeploymentID)
}

func (s *RoutingServiceSuite) TestExhaustedPoliciesIsNotFound() {
	_, err := s.svc.Route(s.ctx, s.tenant, id.JurisdictionEU, "llama-guard")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RoutingServiceSuite) TestRouteRecordsAuditAndAnalytics() {
	d := s.deploy("llama-guard", "eu-west-1")
	s.createPolicy(routing.CreatePolicyInput{
		TargetDeploymentID: d.ID,
		Strategy:           routing.StrategyStrict,
	})

	_, err := s.svc.Route(s.ctx, s.tenant, id.JurisdictionEU, "llama-guard")
	s.Require().NoError(err)

	entries, err := s.auditor.List(s.ctx, audit.Query{TenantID: s.tenant})
	s.Require().NoError(err)
	var routed int
	for _, e := range entries {
		if e.EventType == audit.EventDataRoutingEnforcement {
			routed++
		}
	}
	s.Equal(1, routed)

	counts, err := s.svc.DecisionCounts(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Len(counts, 1)
}

func (s *RoutingServiceSuite) TestCreatePolicyRequiresExistingTarget() {
	_, err := s.svc.CreatePolicy(s.ctx, routing.CreatePolicyInput{
		TenantID:           s.tenant,
		Jurisdiction:       id.JurisdictionEU,
		TargetDeploymentID: id.DeploymentID{},
		Strategy:           routing.StrategyStrict,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *RoutingServiceSuite) TestPreferredStrategyRequiresFallbackTarget() {
	d := s.deploy("llama-guard", "eu-west-1")
	_, err := s.svc.CreatePolicy(s.ctx, routing.CreatePolicyInput{
		TenantID:           s.tenant,
		Jurisdiction:       id.JurisdictionEU,
		TargetDeploymentID: d.ID,
		Strategy:           routing.StrategyPreferred,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestRoutingServiceSuite(t *testing.T) {
	suite.Run(t, new(RoutingServiceSuite))
}

package residency

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"sovereign/internal/audit"
	"sovereign/internal/events"
	"sovereign/internal/residency/metrics"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/sentinel"
	"sovereign/pkg/requestcontext"
)

// Service coordinates residency rule management and enforcement. Evaluation
// itself is pure (rules.go); the service owns persistence, auditing and
// event publication.
type Service struct {
	store     RuleStore
	auditor   *audit.Service
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(store RuleStore, auditor *audit.Service, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		auditor:   auditor,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// CreateRuleInput carries the caller-supplied fields of a new rule.
type CreateRuleInput struct {
	TenantID           id.TenantID
	Jurisdiction       id.Jurisdiction
	DataClassification id.DataClassification
	AllowedRegions     []string
	BlockedRegions     []string
	Action             Action
	Priority           int
}

// CreateRule validates and persists a new rule. New rules are active
// immediately.
func (s *Service) CreateRule(ctx context.Context, input CreateRuleInput) (Rule, error) {
	now := requestcontext.Now(ctx)
	rule := Rule{
		ID:                 id.RuleID(uuid.New()),
		TenantID:           input.TenantID,
		Jurisdiction:       input.Jurisdiction,
		DataClassification: input.DataClassification,
		AllowedRegions:     input.AllowedRegions,
		BlockedRegions:     input.BlockedRegions,
		Action:             input.Action,
		Priority:           input.Priority,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}

	if err := s.store.Create(ctx, rule); err != nil {
		return Rule{}, dErrors.Wrap(err, dErrors.CodeInternal, "create residency rule")
	}

	s.metrics.IncrementRuleCreated()
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeResidencyRuleCreated,
		TenantID: rule.TenantID,
		Payload: map[string]any{
			"rule_id":      rule.ID.String(),
			"jurisdiction": rule.Jurisdiction.String(),
			"priority":     rule.Priority,
		},
	})
	s.logger.InfoContext(ctx, "residency rule created",
		"rule_id", rule.ID,
		"tenant_id", rule.TenantID,
		"jurisdiction", rule.Jurisdiction,
	)
	return rule, nil
}

// SetRuleActive toggles a rule without deleting its history.
func (s *Service) SetRuleActive(ctx context.Context, tenantID id.TenantID, ruleID id.RuleID, active bool) (Rule, error) {
	rule, err := s.store.Get(ctx, tenantID, ruleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Rule{}, dErrors.Wrap(err, dErrors.CodeNotFound, "residency rule not found")
		}
		return Rule{}, dErrors.Wrap(err, dErrors.CodeInternal, "get residency rule")
	}

	rule.Active = active
	rule.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, rule); err != nil {
		return Rule{}, dErrors.Wrap(err, dErrors.CodeInternal, "update residency rule")
	}
	return rule, nil
}

// ListRules returns all rules for the tenant.
func (s *Service) ListRules(ctx context.Context, tenantID id.TenantID) ([]Rule, error) {
	rules, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list residency rules")
	}
	return rules, nil
}

// Enforce evaluates whether data of the given jurisdiction and classification
// may reside in the region. Every evaluation is audited; a store failure
// fails the check rather than defaulting to compliant.
func (s *Service) Enforce(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction, classification id.DataClassification, region string) (Decision, error) {
	start := time.Now()
	defer s.metrics.ObserveEnforce(start)

	rules, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "load residency rules")
	}

	decision := Evaluate(rules, jurisdiction, classification, region)

	outcome := audit.OutcomeCompliant
	if !decision.Compliant {
		outcome = audit.OutcomeViolation
	}
	entry := audit.Entry{
		EventType:          audit.EventResidencyEnforcement,
		TenantID:           tenantID,
		Jurisdiction:       jurisdiction,
		DataClassification: classification,
		DestinationRegion:  region,
		Outcome:            outcome,
	}
	if !decision.Compliant {
		entry.Details = map[string]any{
			"rule_id": decision.RuleID.String(),
			"action":  string(decision.Action),
		}
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		return Decision{}, err
	}

	s.metrics.IncrementEnforcement(string(outcome))
	if !decision.Compliant {
		s.publisher.Publish(ctx, events.Event{
			Type:     events.TypeResidencyViolation,
			TenantID: tenantID,
			Payload: map[string]any{
				"rule_id":      decision.RuleID.String(),
				"jurisdiction": jurisdiction.String(),
				"region":       region,
				"action":       string(decision.Action),
			},
		})
	}
	return decision, nil
}

// PermittedRegions filters candidate regions down to those every applicable
// rule permits.
func (s *Service) PermittedRegions(ctx context.Context, tenantID id.TenantID, jurisdiction id.Jurisdiction, classification id.DataClassification, candidates []string) ([]string, error) {
	rules, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load residency rules")
	}
	return FilterRegions(rules, jurisdiction, classification, candidates), nil
}

// GetStatus summarizes the tenant's rule posture.
func (s *Service) GetStatus(ctx context.Context, tenantID id.TenantID) (Status, error) {
	rules, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return Status{}, dErrors.Wrap(err, dErrors.CodeInternal, "load residency rules")
	}

	status := Status{
		TenantID:       tenantID,
		TotalRules:     len(rules),
		ByJurisdiction: make(map[id.Jurisdiction]int),
	}
	allowed := make(map[string]bool)
	blocked := make(map[string]bool)
	for _, rule := range rules {
		status.ByJurisdiction[rule.Jurisdiction]++
		if rule.UpdatedAt.After(status.LastRuleChange) {
			status.LastRuleChange = rule.UpdatedAt
		}
		if !rule.Active {
			continue
		}
		status.ActiveRules++
		for _, region := range rule.AllowedRegions {
			if !allowed[region] {
				allowed[region] = true
				status.AllowedRegions = append(status.AllowedRegions, region)
			}
		}
		for _, region := range rule.BlockedRegions {
			if !blocked[region] {
				blocked[region] = true
				status.BlockedRegions = append(status.BlockedRegions, region)
			}
		}
	}
	sort.Strings(status.AllowedRegions)
	sort.Strings(status.BlockedRegions)
	return status, nil
}

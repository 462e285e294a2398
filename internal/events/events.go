// Package events publishes domain events to Kafka. Publishing is
// fire-and-forget: a failed produce is logged, never surfaced to the caller,
// so event delivery can never block or fail a policy decision.
package events

import (
	"context"
	"time"

	id "sovereign/pkg/domain"
)

// Event types emitted by the decision core.
const (
	TypeResidencyViolation       = "sovereign.residency.violation"
	TypeResidencyRuleCreated     = "sovereign.residency.rule_created"
	TypeTransferBlocked          = "sovereign.transfer.blocked"
	TypeRoutingDecision          = "sovereign.routing.decision"
	TypeDeploymentInitiated      = "sovereign.deployment.initiated"
	TypeDeploymentActive         = "sovereign.deployment.active"
	TypeComplianceMappingCreated = "sovereign.compliance.mapping_created"
	TypeModelRegistered          = "sovereign.registry.model_registered"
	TypeModelApproved            = "sovereign.registry.model_approved"
	TypeModelCertified           = "sovereign.registry.model_certified"
	TypeRegistrySynchronized     = "sovereign.registry.synchronized"
	TypeKeyImported              = "sovereign.keys.imported"
	TypeKeyRevoked               = "sovereign.keys.revoked"
)

// Event is the envelope published for every state change. Payload carries
// event-specific fields; CorrelationID is always set.
type Event struct {
	Type          string         `json:"type"`
	TenantID      id.TenantID    `json:"tenant_id"`
	CorrelationID string         `json:"correlation_id"`
	Timestamp     time.Time      `json:"timestamp"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// Publisher is the fire-and-forget event sink. Implementations must not
// block the caller beyond enqueueing.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// Nop is a Publisher that discards events. Used in tests and when Kafka is
// not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
func (Nop) Close()                         {}

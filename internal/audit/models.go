// Package audit maintains the append-only sovereignty audit trail. Entries
// are immutable once appended and queryable per tenant, most recent first.
package audit

import (
	"time"

	id "sovereign/pkg/domain"
)

// Outcome classifies what an evaluator decided.
type Outcome string

const (
	OutcomeCompliant        Outcome = "compliant"
	OutcomeViolation        Outcome = "violation"
	OutcomeExempted         Outcome = "exempted"
	OutcomeBlocked          Outcome = "blocked"
	OutcomePartialViolation Outcome = "partial_violation"
)

// Event types recorded in the trail.
const (
	EventCrossBorderCheck       = "cross_border_transfer_check"
	EventResidencyEnforcement   = "residency_enforcement"
	EventDataRoutingEnforcement = "data_routing_enforcement"
	EventViolationDetection     = "sovereignty_violation_detection"
)

// Entry is one immutable audit record. EventID and Timestamp are assigned
// at append time if unset.
type Entry struct {
	EventID            string                `json:"event_id"`
	EventType          string                `json:"event_type"`
	TenantID           id.TenantID           `json:"tenant_id"`
	Jurisdiction       id.Jurisdiction       `json:"jurisdiction"`
	DataClassification id.DataClassification `json:"data_classification"`
	SourceRegion       string                `json:"source_region"`
	DestinationRegion  string                `json:"destination_region"`
	Outcome            Outcome               `json:"outcome"`
	Details            map[string]any        `json:"details,omitempty"`
	Timestamp          time.Time             `json:"timestamp"`
}

const defaultListLimit = 100

// Query filters trail reads. Jurisdiction empty = all; Limit <= 0 uses the
// store default of 100.
type Query struct {
	TenantID     id.TenantID
	Jurisdiction id.Jurisdiction
	Limit        int
}

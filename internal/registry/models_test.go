package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

func TestApprovalTransitions(t *testing.T) {
	cases := []struct {
		from    ApprovalStatus
		to      ApprovalStatus
		allowed bool
	}{
		{ApprovalPending, ApprovalApproved, true},
		{ApprovalPending, ApprovalRejected, true},
		{ApprovalPending, ApprovalRevoked, false},
		{ApprovalApproved, ApprovalRevoked, true},
		{ApprovalApproved, ApprovalRejected, false},
		{ApprovalRejected, ApprovalApproved, false},
		{ApprovalRevoked, ApprovalApproved, false},
	}
	for _, tc := range cases {
		m := SovereignModel{ApprovalStatus: tc.from}
		assert.Equal(t, tc.allowed, m.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestApplyApprovalStampsApprover(t *testing.T) {
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	m := SovereignModel{ApprovalStatus: ApprovalPending}

	require.NoError(t, m.ApplyApproval("reviewer@example.com", at))
	assert.Equal(t, ApprovalApproved, m.ApprovalStatus)
	assert.Equal(t, "reviewer@example.com", m.ApprovedBy)
	assert.Equal(t, at, m.ApprovedAt)

	err := m.ApplyApproval("again", at)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestApplyRejectionLeavesApproverEmpty(t *testing.T) {
	m := SovereignModel{ApprovalStatus: ApprovalPending}
	require.NoError(t, m.ApplyRejection(time.Now()))
	assert.Equal(t, ApprovalRejected, m.ApprovalStatus)
	assert.Empty(t, m.ApprovedBy)
	assert.True(t, m.ApprovedAt.IsZero())
}

func TestApplyRevocationWithdrawsAvailability(t *testing.T) {
	m := SovereignModel{ApprovalStatus: ApprovalApproved, IsAvailable: true}
	require.NoError(t, m.ApplyRevocation(time.Now()))
	assert.Equal(t, ApprovalRevoked, m.ApprovalStatus)
	assert.False(t, m.IsAvailable)
}

func TestValidateRejectsUnknownTags(t *testing.T) {
	m := SovereignModel{
		TenantID:       id.NewTenantID(),
		ModelID:        "llm-7b",
		ModelVersion:   "1.0.0",
		Jurisdiction:   id.JurisdictionEU,
		ComplianceTags: []string{"GDPR", "MADE-UP"},
	}
	err := m.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Contains(t, err.Error(), "MADE-UP")
}

func TestRegistryKey(t *testing.T) {
	tenant := id.NewTenantID()
	m := SovereignModel{
		TenantID:     tenant,
		ModelID:      "llm-7b",
		ModelVersion: "1.2.0",
		Jurisdiction: id.JurisdictionEU,
	}
	assert.Equal(t, tenant.String()+":EU:llm-7b:1.2.0", m.RegistryKey())
}

func TestQueryMatches(t *testing.T) {
	entry := SovereignModel{
		ModelID:        "llm-7b",
		Jurisdiction:   id.JurisdictionEU,
		ApprovalStatus: ApprovalApproved,
		ComplianceTags: []string{"GDPR", "ISO-27001"},
		IsAvailable:    true,
	}

	assert.True(t, Query{}.Matches(entry))
	assert.True(t, Query{Jurisdiction: id.JurisdictionEU, ComplianceTag: "GDPR"}.Matches(entry))
	assert.False(t, Query{Jurisdiction: id.JurisdictionUS}.Matches(entry))
	assert.False(t, Query{ComplianceTag: "HIPAA"}.Matches(entry))
	assert.False(t, Query{ApprovalStatus: ApprovalPending}.Matches(entry))
	assert.False(t, Query{ModelID: "other"}.Matches(entry))

	entry.IsAvailable = false
	assert.False(t, Query{AvailableOnly: true}.Matches(entry))
}

func TestSupportedFrameworksSorted(t *testing.T) {
	frameworks := SupportedFrameworks()
	assert.Len(t, frameworks, 10)
	assert.IsIncreasing(t, frameworks)
	assert.Contains(t, frameworks, "SOC2-TYPE-II")
}

package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sovereign/pkg/domain"
)

// fullyCompliantConfig satisfies every EU requirement.
func fullyCompliantConfig() DeploymentConfig {
	return DeploymentConfig{
		Regions:              []string{"eu-west-1"},
		EncryptionAlgorithms: []string{"AES-256"},
		TLSVersion:           "1.3",
		AccessControl:        AccessControlConfig{RBACEnabled: true, MFARequired: true},
		AuditLogging:         AuditLoggingConfig{Enabled: true, RetentionDays: 400},
		KeyManagement:        KeyManagementConfig{BYOKEnabled: true, RotationEnabled: true},
		SubProcessorRegister: true,
		IncidentResponse:     IncidentConfig{PlanDocumented: true},
	}
}

func findingByCategory(t *testing.T, findings []Finding, category Category) Finding {
	t.Helper()
	for _, f := range findings {
		if f.Category == category {
			return f
		}
	}
	t.Fatalf("no finding for category %s", category)
	return Finding{}
}

func TestRunChecklistFullyCompliant(t *testing.T) {
	findings := RunChecklist(id.JurisdictionEU, fullyCompliantConfig())
	require.Len(t, findings, 8)
	for _, f := range findings {
		assert.Equal(t, FindingPassed, f.Status, f.RequirementID)
	}
	assert.InDelta(t, 100.0, Score(findings), 0.001)
	assert.Equal(t, OverallCompliant, OverallFor(Score(findings)))
	assert.Empty(t, Recommendations(findings))
}

func TestRunChecklistEmptyConfig(t *testing.T) {
	findings := RunChecklist(id.JurisdictionEU, DeploymentConfig{})
	score := Score(findings)

	// third_party passes with zero services; everything else fails.
	third := findingByCategory(t, findings, CategoryThirdPartyDependency)
	assert.Equal(t, FindingPassed, third.Status)
	assert.Equal(t, OverallNonCompliant, OverallFor(score))
}

func TestCategoryEvaluators(t *testing.T) {
	t.Run("weak encryption is partial", func(t *testing.T) {
		config := fullyCompliantConfig()
		config.EncryptionAlgorithms = []string{"DES"}
		f := findingByCategory(t, RunChecklist(id.JurisdictionEU, config), CategoryEncryptionAtRest)
		assert.Equal(t, FindingPartial, f.Status)
		assert.NotEmpty(t, f.Remediation)
	})

	t.Run("sm4 counts as strong", func(t *testing.T) {
		config := fullyCompliantConfig()
		config.EncryptionAlgorithms = []string{"SM4"}
		f := findingByCategory(t, RunChecklist(id.JurisdictionCN, config), CategoryEncryptionAtRest)
		assert.Equal(t, FindingPassed, f.Status)
	})

	t.Run("old tls is partial", func(t *testing.T) {
		config := fullyCompliantConfig()
		config.TLSVersion = "1.0"
		f := findingByCategory(t, RunChecklist(id.JurisdictionEU, config), CategoryEncryptionInTransit)
		assert.Equal(t, FindingPartial, f.Status)
	})

	t.Run("rbac without mfa is partial", func(t *testing.T) {
		config := fullyCompliantConfig()
		config.AccessControl.MFARequired = false
		f := findingByCategory(t, RunChecklist(id.JurisdictionEU, config), CategoryAccessControl)
		assert.Equal(t, FindingPartial, f.Status)
	})

	t.Run("audit retention threshold depends on jurisdiction", func(t *testing.T) {
		config := fullyCompliantConfig()
		config.AuditLogging.RetentionDays = 200

		f := findingByCategory(t, RunChecklist(id.JurisdictionEU, config), CategoryAuditLogging)
		assert.Equal(t, FindingPartial, f.Status)

		f = findingByCategory(t, RunChecklist(id.JurisdictionCN, config), CategoryAuditLogging)
		assert.Equal(t, FindingPassed, f.Status)
	})

	t.Run("byok alone is partial key management", func(t *testing.T) {
		config := fullyCompliantConfig()
		config.KeyManagement.RotationEnabled = false
		f := findingByCategory(t, RunChecklist(id.JurisdictionEU, config), CategoryKeyManagement)
		assert.Equal(t, FindingPartial, f.Status)
	})

	t.Run("third parties without register is partial", func(t *testing.T) {
		config := fullyCompliantConfig()
		config.ThirdPartyServices = []string{"vendor-a", "vendor-b"}
		config.SubProcessorRegister = false
		f := findingByCategory(t, RunChecklist(id.JurisdictionEU, config), CategoryThirdPartyDependency)
		assert.Equal(t, FindingPartial, f.Status)
	})

	t.Run("eu residency requires an eea-looking region", func(t *testing.T) {
		config := fullyCompliantConfig()
		config.Regions = []string{"us-east-1"}
		f := findingByCategory(t, RunChecklist(id.JurisdictionEU, config), CategoryDataResidency)
		assert.Equal(t, FindingFailed, f.Status)

		config.Regions = []string{"europe-west4"}
		f = findingByCategory(t, RunChecklist(id.JurisdictionEU, config), CategoryDataResidency)
		assert.Equal(t, FindingPassed, f.Status)
	})

	t.Run("non-eu residency passes with any region", func(t *testing.T) {
		config := fullyCompliantConfig()
		config.Regions = []string{"us-east-1"}
		f := findingByCategory(t, RunChecklist(id.JurisdictionUS, config), CategoryDataResidency)
		assert.Equal(t, FindingPassed, f.Status)
	})
}

func TestScore(t *testing.T) {
	t.Run("all partial halves the score", func(t *testing.T) {
		findings := []Finding{
			{Weight: 10, Status: FindingPartial},
			{Weight: 30, Status: FindingPartial},
		}
		assert.InDelta(t, 50.0, Score(findings), 0.001)
	})

	t.Run("weighted mix", func(t *testing.T) {
		findings := []Finding{
			{Weight: 20, Status: FindingPassed},
			{Weight: 20, Status: FindingFailed},
			{Weight: 10, Status: FindingPartial},
		}
		assert.InDelta(t, 50.0, Score(findings), 0.001)
	})

	t.Run("no findings scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Score(nil))
	})

	t.Run("score is monotone in finding upgrades", func(t *testing.T) {
		base := RunChecklist(id.JurisdictionEU, DeploymentConfig{})
		improved := RunChecklist(id.JurisdictionEU, fullyCompliantConfig())
		assert.Greater(t, Score(improved), Score(base))
	})
}

func TestOverallFor(t *testing.T) {
	assert.Equal(t, OverallCompliant, OverallFor(90))
	assert.Equal(t, OverallPartial, OverallFor(89.99))
	assert.Equal(t, OverallPartial, OverallFor(60))
	assert.Equal(t, OverallNonCompliant, OverallFor(59.99))
}

func TestChecklistFor(t *testing.T) {
	assert.Len(t, ChecklistFor(id.JurisdictionEU), 8)
	assert.Len(t, ChecklistFor(id.JurisdictionCN), 7)
	assert.Equal(t, defaultChecklist, ChecklistFor("BR"))
}

package compliance

import (
	"fmt"
	"math"
	"strings"

	id "sovereign/pkg/domain"
)

// strongAtRestAlgorithms satisfy encryption_at_rest in every jurisdiction.
var strongAtRestAlgorithms = map[string]bool{
	"AES-256":     true,
	"AES-128-GCM": true,
	"SM4":         true,
}

// RunChecklist evaluates every requirement of the jurisdiction's checklist
// against the config. This is pure domain logic - no I/O, no side effects.
func RunChecklist(jurisdiction id.Jurisdiction, config DeploymentConfig) []Finding {
	checklist := ChecklistFor(jurisdiction)
	findings := make([]Finding, 0, len(checklist))
	for _, requirement := range checklist {
		findings = append(findings, evaluateRequirement(requirement, config, jurisdiction))
	}
	return findings
}

// Score computes the weighted compliance score, 0-100 rounded to two
// decimals. Passed findings earn full weight, partial half.
func Score(findings []Finding) float64 {
	var total, earned float64
	for _, f := range findings {
		total += float64(f.Weight)
		earned += float64(f.Weight) * f.Status.credit()
	}
	if total == 0 {
		return 0.0
	}
	return math.Round(earned/total*100*100) / 100
}

// OverallFor tiers a score: >= 90 compliant, >= 60 partial, else
// non-compliant.
func OverallFor(score float64) OverallStatus {
	switch {
	case score >= 90:
		return OverallCompliant
	case score >= 60:
		return OverallPartial
	default:
		return OverallNonCompliant
	}
}

// Recommendations collects the remediations of failed findings in checklist
// order.
func Recommendations(findings []Finding) []string {
	var out []string
	for _, f := range findings {
		if f.Status == FindingFailed && f.Remediation != "" {
			out = append(out, f.Remediation)
		}
	}
	return out
}

func evaluateRequirement(requirement Requirement, config DeploymentConfig, jurisdiction id.Jurisdiction) Finding {
	finding := Finding{
		RequirementID: requirement.ID,
		Category:      requirement.Category,
		Title:         requirement.Title,
		Weight:        requirement.Weight,
		Status:        FindingFailed,
		Evidence:      map[string]any{},
	}

	switch requirement.Category {
	case CategoryDataResidency:
		evaluateDataResidency(&finding, config, jurisdiction)
	case CategoryEncryptionAtRest:
		evaluateEncryptionAtRest(&finding, config)
	case CategoryEncryptionInTransit:
		evaluateEncryptionInTransit(&finding, config)
	case CategoryAccessControl:
		evaluateAccessControl(&finding, config)
	case CategoryAuditLogging:
		evaluateAuditLogging(&finding, config, jurisdiction)
	case CategoryKeyManagement:
		evaluateKeyManagement(&finding, config)
	case CategoryThirdPartyDependency:
		evaluateThirdParty(&finding, config)
	case CategoryIncidentResponse:
		evaluateIncidentResponse(&finding, config)
	}
	return finding
}

func evaluateDataResidency(finding *Finding, config DeploymentConfig, jurisdiction id.Jurisdiction) {
	finding.Evidence["regions"] = config.Regions

	if jurisdiction == id.JurisdictionEU {
		for _, region := range config.Regions {
			lower := strings.ToLower(region)
			if strings.Contains(lower, "eu-") || strings.Contains(lower, "europe") || strings.Contains(lower, "-eu") {
				finding.Status = FindingPassed
				return
			}
		}
		finding.Remediation = "Deploy to an EEA region (eu-west-1, eu-central-1, eu-north-1)."
		return
	}
	if len(config.Regions) > 0 {
		finding.Status = FindingPassed
		return
	}
	finding.Remediation = fmt.Sprintf("Specify deployment regions compliant with %s requirements.", jurisdiction)
}

func evaluateEncryptionAtRest(finding *Finding, config DeploymentConfig) {
	finding.Evidence["algorithms"] = config.EncryptionAlgorithms

	for _, algorithm := range config.EncryptionAlgorithms {
		if strongAtRestAlgorithms[algorithm] {
			finding.Status = FindingPassed
			return
		}
	}
	if len(config.EncryptionAlgorithms) > 0 {
		finding.Status = FindingPartial
		finding.Remediation = "Upgrade encryption to AES-256 or equivalent."
		return
	}
	finding.Remediation = "Enable encryption at rest with AES-256."
}

func evaluateEncryptionInTransit(finding *Finding, config DeploymentConfig) {
	finding.Evidence["tls_version"] = config.TLSVersion

	switch config.TLSVersion {
	case "1.3", "1.2":
		finding.Status = FindingPassed
	case "":
		finding.Remediation = "Enable TLS for all in-transit data."
	default:
		finding.Status = FindingPartial
		finding.Remediation = "Upgrade to TLS 1.2 or higher."
	}
}

func evaluateAccessControl(finding *Finding, config DeploymentConfig) {
	finding.Evidence["rbac"] = config.AccessControl.RBACEnabled
	finding.Evidence["mfa"] = config.AccessControl.MFARequired

	switch {
	case config.AccessControl.RBACEnabled && config.AccessControl.MFARequired:
		finding.Status = FindingPassed
	case config.AccessControl.RBACEnabled:
		finding.Status = FindingPartial
		finding.Remediation = "Enable multi-factor authentication alongside RBAC."
	default:
		finding.Remediation = "Enable RBAC and MFA for all administrative access."
	}
}

func evaluateAuditLogging(finding *Finding, config DeploymentConfig, jurisdiction id.Jurisdiction) {
	requiredDays := 180
	if jurisdiction == id.JurisdictionEU || jurisdiction == id.JurisdictionUS {
		requiredDays = 365
	}
	finding.Evidence["enabled"] = config.AuditLogging.Enabled
	finding.Evidence["retention_days"] = config.AuditLogging.RetentionDays

	switch {
	case config.AuditLogging.Enabled && config.AuditLogging.RetentionDays >= requiredDays:
		finding.Status = FindingPassed
	case config.AuditLogging.Enabled:
		finding.Status = FindingPartial
		finding.Remediation = fmt.Sprintf("Extend audit log retention to %d days for %s.", requiredDays, jurisdiction)
	default:
		finding.Remediation = fmt.Sprintf("Enable structured audit logging with %d-day retention.", requiredDays)
	}
}

func evaluateKeyManagement(finding *Finding, config DeploymentConfig) {
	finding.Evidence["byok"] = config.KeyManagement.BYOKEnabled
	finding.Evidence["rotation"] = config.KeyManagement.RotationEnabled

	switch {
	case config.KeyManagement.BYOKEnabled && config.KeyManagement.RotationEnabled:
		finding.Status = FindingPassed
	case config.KeyManagement.BYOKEnabled || config.KeyManagement.RotationEnabled:
		finding.Status = FindingPartial
		finding.Remediation = "Enable both BYOK and automated key rotation."
	default:
		finding.Remediation = "Implement customer-managed keys (BYOK) with automated rotation."
	}
}

func evaluateThirdParty(finding *Finding, config DeploymentConfig) {
	finding.Evidence["third_party_count"] = len(config.ThirdPartyServices)
	finding.Evidence["register_maintained"] = config.SubProcessorRegister

	if len(config.ThirdPartyServices) == 0 || config.SubProcessorRegister {
		finding.Status = FindingPassed
		return
	}
	finding.Status = FindingPartial
	finding.Remediation = fmt.Sprintf(
		"Maintain a sub-processor register for %d third-party services. Obtain DPA agreements for each.",
		len(config.ThirdPartyServices))
}

func evaluateIncidentResponse(finding *Finding, config DeploymentConfig) {
	finding.Evidence["plan_documented"] = config.IncidentResponse.PlanDocumented

	if config.IncidentResponse.PlanDocumented {
		finding.Status = FindingPassed
		return
	}
	finding.Remediation = "Document an incident response plan with breach notification procedures."
}

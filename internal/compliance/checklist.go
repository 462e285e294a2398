package compliance

import id "sovereign/pkg/domain"

// Category is a compliance requirement category.
type Category string

const (
	CategoryDataResidency        Category = "data_residency"
	CategoryEncryptionAtRest     Category = "encryption_at_rest"
	CategoryEncryptionInTransit  Category = "encryption_in_transit"
	CategoryAccessControl        Category = "access_control"
	CategoryAuditLogging         Category = "audit_logging"
	CategoryThirdPartyDependency Category = "third_party_dependency"
	CategoryKeyManagement        Category = "key_management"
	CategoryIncidentResponse     Category = "incident_response"
)

// Requirement is one checklist item. Weight determines its contribution to
// the overall score.
type Requirement struct {
	ID       string
	Category Category
	Title    string
	Weight   int
}

// jurisdictionChecklists holds the per-jurisdiction requirement tables.
// Jurisdictions without a dedicated checklist use defaultChecklist.
var jurisdictionChecklists = map[id.Jurisdiction][]Requirement{
	id.JurisdictionEU: {
		{ID: "eu-1", Category: CategoryDataResidency, Title: "Data stored in EEA", Weight: 20},
		{ID: "eu-2", Category: CategoryEncryptionAtRest, Title: "AES-256 encryption at rest", Weight: 15},
		{ID: "eu-3", Category: CategoryEncryptionInTransit, Title: "TLS 1.2+ in transit", Weight: 10},
		{ID: "eu-4", Category: CategoryAccessControl, Title: "Role-based access with MFA", Weight: 15},
		{ID: "eu-5", Category: CategoryAuditLogging, Title: "Audit log retention >= 1 year", Weight: 10},
		{ID: "eu-6", Category: CategoryKeyManagement, Title: "Customer-managed encryption keys", Weight: 15},
		{ID: "eu-7", Category: CategoryThirdPartyDependency, Title: "Sub-processor register maintained", Weight: 10},
		{ID: "eu-8", Category: CategoryIncidentResponse, Title: "72-hour breach notification plan", Weight: 5},
	},
	id.JurisdictionUS: {
		{ID: "us-1", Category: CategoryDataResidency, Title: "Data stored within US borders", Weight: 15},
		{ID: "us-2", Category: CategoryEncryptionAtRest, Title: "FIPS 140-2 validated encryption", Weight: 20},
		{ID: "us-3", Category: CategoryEncryptionInTransit, Title: "TLS 1.2+ in transit", Weight: 10},
		{ID: "us-4", Category: CategoryAccessControl, Title: "Least-privilege access controls", Weight: 15},
		{ID: "us-5", Category: CategoryAuditLogging, Title: "SOC 2 Type II audit logging", Weight: 15},
		{ID: "us-6", Category: CategoryKeyManagement, Title: "BYOK or HSM key management", Weight: 10},
		{ID: "us-7", Category: CategoryThirdPartyDependency, Title: "Third-party risk assessment", Weight: 10},
		{ID: "us-8", Category: CategoryIncidentResponse, Title: "NIST incident response plan", Weight: 5},
	},
	id.JurisdictionCN: {
		{ID: "cn-1", Category: CategoryDataResidency, Title: "Personal data stored in mainland China", Weight: 25},
		{ID: "cn-2", Category: CategoryEncryptionAtRest, Title: "SM4 or AES-256 encryption", Weight: 15},
		{ID: "cn-3", Category: CategoryEncryptionInTransit, Title: "TLS 1.2+ in transit", Weight: 10},
		{ID: "cn-4", Category: CategoryAccessControl, Title: "MPS-compliant access controls", Weight: 15},
		{ID: "cn-5", Category: CategoryAuditLogging, Title: "Audit log retention >= 6 months", Weight: 10},
		{ID: "cn-6", Category: CategoryKeyManagement, Title: "SMCCC-compliant key management", Weight: 15},
		{ID: "cn-7", Category: CategoryThirdPartyDependency, Title: "CAC approval for cross-border transfers", Weight: 10},
	},
}

var defaultChecklist = []Requirement{
	{ID: "gen-1", Category: CategoryDataResidency, Title: "Data stored in compliance jurisdiction", Weight: 20},
	{ID: "gen-2", Category: CategoryEncryptionAtRest, Title: "Strong encryption at rest", Weight: 20},
	{ID: "gen-3", Category: CategoryEncryptionInTransit, Title: "TLS in transit", Weight: 10},
	{ID: "gen-4", Category: CategoryAccessControl, Title: "Role-based access controls", Weight: 20},
	{ID: "gen-5", Category: CategoryAuditLogging, Title: "Structured audit logging", Weight: 15},
	{ID: "gen-6", Category: CategoryKeyManagement, Title: "Key lifecycle management", Weight: 15},
}

// ChecklistFor returns the checklist governing audits in a jurisdiction.
func ChecklistFor(jurisdiction id.Jurisdiction) []Requirement {
	if checklist, ok := jurisdictionChecklists[jurisdiction]; ok {
		return checklist
	}
	return defaultChecklist
}

package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sovereign/internal/compliance"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/httputil"
)

func (h *Handler) registerCompliance(r chi.Router) {
	r.Route("/compliance", func(r chi.Router) {
		r.Post("/audits", h.handleRunAudit)
		r.Get("/audits", h.handleListAudits)
		r.Get("/audits/{auditID}", h.handleGetAudit)
		r.Get("/audits/{auditID}/summary", h.handleGetAuditSummary)
		r.Post("/residency/verify", h.handleVerifyResidency)
		r.Post("/maps", h.handleCreateComplianceMap)
		r.Get("/maps", h.handleListComplianceMaps)
		r.Post("/maps/{mapID}/verify", h.handleVerifyComplianceMap)
	})
}

type runAuditRequest struct {
	Jurisdiction     string                      `json:"jurisdiction" validate:"required"`
	DeploymentConfig compliance.DeploymentConfig `json:"deployment_config"`
}

func (h *Handler) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[runAuditRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.compliance.RunAudit(r.Context(), tenantID, jurisdiction, req.DeploymentConfig)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, report)
}

func (h *Handler) handleListAudits(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}

	var jurisdiction id.Jurisdiction
	if raw := r.URL.Query().Get("jurisdiction"); raw != "" {
		parsed, err := id.ParseJurisdiction(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		jurisdiction = parsed
	}

	reports, err := h.compliance.ListAudits(r.Context(), tenantID, jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reports)
}

func (h *Handler) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	report, err := h.compliance.GetReport(r.Context(), tenantID, chi.URLParam(r, "auditID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleGetAuditSummary(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	summary, err := h.compliance.GetSummary(r.Context(), tenantID, chi.URLParam(r, "auditID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

type verifyResidencyRequest struct {
	Jurisdiction    string   `json:"jurisdiction" validate:"required"`
	DeployedRegions []string `json:"deployed_regions" validate:"required,min=1"`
	AllowedRegions  []string `json:"allowed_regions" validate:"required"`
}

func (h *Handler) handleVerifyResidency(w http.ResponseWriter, r *http.Request) {
	if _, ok := tenantFromContext(w, r); !ok {
		return
	}
	req, ok := httputil.Decode[verifyResidencyRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	verification := compliance.VerifyDataResidency(jurisdiction, req.DeployedRegions, req.AllowedRegions)
	httputil.WriteJSON(w, http.StatusOK, verification)
}

type createMapRequest struct {
	Jurisdiction          string                      `json:"jurisdiction" validate:"required"`
	RegulationName        string                      `json:"regulation_name" validate:"required"`
	RequirementCategories []compliance.Category       `json:"requirement_categories" validate:"required,min=1"`
	DeploymentConfig      compliance.DeploymentConfig `json:"deployment_config"`
}

func (h *Handler) handleCreateComplianceMap(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[createMapRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	m, err := h.compliance.CreateMap(r.Context(), compliance.CreateMapInput{
		TenantID:              tenantID,
		Jurisdiction:          jurisdiction,
		RegulationName:        req.RegulationName,
		RequirementCategories: req.RequirementCategories,
		DeploymentConfig:      req.DeploymentConfig,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleListComplianceMaps(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	jurisdiction, err := id.ParseJurisdiction(r.URL.Query().Get("jurisdiction"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	maps, err := h.compliance.ListMaps(r.Context(), tenantID, jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, maps)
}

type verifyMapRequest struct {
	Status     string `json:"status" validate:"required"`
	VerifiedBy string `json:"verified_by" validate:"required"`
}

func (h *Handler) handleVerifyComplianceMap(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	mapUUID, err := uuid.Parse(chi.URLParam(r, "mapID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid map id"))
		return
	}
	req, ok := httputil.Decode[verifyMapRequest](w, r, h.logger)
	if !ok {
		return
	}

	m, err := h.compliance.VerifyMap(r.Context(), tenantID, id.MapID(mapUUID), compliance.MapStatus(req.Status), req.VerifiedBy)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sovereign/internal/residency"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/httputil"
)

func (h *Handler) registerResidency(r chi.Router) {
	r.Route("/residency", func(r chi.Router) {
		r.Post("/rules", h.handleCreateResidencyRule)
		r.Get("/rules", h.handleListResidencyRules)
		r.Post("/rules/{ruleID}/active", h.handleSetResidencyRuleActive)
		r.Post("/enforce", h.handleEnforceResidency)
		r.Post("/regions/filter", h.handleFilterRegions)
		r.Get("/status", h.handleResidencyStatus)
	})
}

type createRuleRequest struct {
	Jurisdiction       string   `json:"jurisdiction" validate:"required"`
	DataClassification string   `json:"data_classification" validate:"required"`
	AllowedRegions     []string `json:"allowed_regions"`
	BlockedRegions     []string `json:"blocked_regions"`
	Action             string   `json:"action" validate:"required"`
	Priority           int      `json:"priority" validate:"gte=0"`
}

func (h *Handler) handleCreateResidencyRule(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[createRuleRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	classification, err := id.ParseDataClassification(req.DataClassification)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	action, err := residency.ParseAction(req.Action)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rule, err := h.residency.CreateRule(r.Context(), residency.CreateRuleInput{
		TenantID:           tenantID,
		Jurisdiction:       jurisdiction,
		DataClassification: classification,
		AllowedRegions:     req.AllowedRegions,
		BlockedRegions:     req.BlockedRegions,
		Action:             action,
		Priority:           req.Priority,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) handleListResidencyRules(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	rules, err := h.residency.ListRules(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rules)
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) handleSetResidencyRuleActive(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	ruleUUID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid rule id"))
		return
	}
	req, ok := httputil.Decode[setActiveRequest](w, r, h.logger)
	if !ok {
		return
	}

	rule, err := h.residency.SetRuleActive(r.Context(), tenantID, id.RuleID(ruleUUID), *req.Active)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rule)
}

type enforceRequest struct {
	Jurisdiction       string `json:"jurisdiction" validate:"required"`
	DataClassification string `json:"data_classification" validate:"required"`
	Region             string `json:"region" validate:"required"`
}

func (h *Handler) handleEnforceResidency(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[enforceRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	classification, err := id.ParseDataClassification(req.DataClassification)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	decision, err := h.residency.Enforce(r.Context(), tenantID, jurisdiction, classification, req.Region)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

type filterRegionsRequest struct {
	Jurisdiction       string   `json:"jurisdiction" validate:"required"`
	DataClassification string   `json:"data_classification" validate:"required"`
	CandidateRegions   []string `json:"candidate_regions" validate:"required,min=1"`
}

type filterRegionsResponse struct {
	PermittedRegions []string `json:"permitted_regions"`
}

func (h *Handler) handleFilterRegions(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[filterRegionsRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	classification, err := id.ParseDataClassification(req.DataClassification)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	permitted, err := h.residency.PermittedRegions(r.Context(), tenantID, jurisdiction, classification, req.CandidateRegions)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, filterRegionsResponse{PermittedRegions: permitted})
}

func (h *Handler) handleResidencyStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	status, err := h.residency.GetStatus(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sovereign/internal/routing"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/httputil"
)

func (h *Handler) registerRouting(r chi.Router) {
	r.Route("/routing", func(r chi.Router) {
		r.Post("/policies", h.handleCreateRoutingPolicy)
		r.Get("/policies", h.handleListRoutingPolicies)
		r.Post("/policies/{policyID}/active", h.handleSetRoutingPolicyActive)
		r.Post("/route", h.handleRoute)
		r.Get("/fallback", h.handleFallbackRegion)
		r.Get("/analytics", h.handleRoutingAnalytics)
	})
}

type createPolicyRequest struct {
	Name                 string   `json:"name" validate:"required"`
	Jurisdiction         string   `json:"jurisdiction" validate:"required"`
	ModelFilter          []string `json:"model_filter"`
	TargetDeploymentID   string   `json:"target_deployment_id" validate:"required,uuid"`
	FallbackDeploymentID string   `json:"fallback_deployment_id" validate:"omitempty,uuid"`
	Strategy             string   `json:"strategy" validate:"required"`
	Priority             int      `json:"priority" validate:"gte=0"`
}

func (h *Handler) handleCreateRoutingPolicy(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[createPolicyRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	strategy, err := routing.ParseStrategy(req.Strategy)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	target, err := uuid.Parse(req.TargetDeploymentID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid target deployment id"))
		return
	}
	var fallback uuid.UUID
	if req.FallbackDeploymentID != "" {
		fallback, err = uuid.Parse(req.FallbackDeploymentID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid fallback deployment id"))
			return
		}
	}

	policy, err := h.routing.CreatePolicy(r.Context(), routing.CreatePolicyInput{
		TenantID:             tenantID,
		Name:                 req.Name,
		Jurisdiction:         jurisdiction,
		ModelFilter:          req.ModelFilter,
		TargetDeploymentID:   id.DeploymentID(target),
		FallbackDeploymentID: id.DeploymentID(fallback),
		Strategy:             strategy,
		Priority:             req.Priority,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, policy)
}

func (h *Handler) handleListRoutingPolicies(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	policies, err := h.routing.ListPolicies(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policies)
}

func (h *Handler) handleSetRoutingPolicyActive(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	policyUUID, err := uuid.Parse(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid policy id"))
		return
	}
	req, ok := httputil.Decode[setActiveRequest](w, r, h.logger)
	if !ok {
		return
	}

	policy, err := h.routing.SetPolicyActive(r.Context(), tenantID, id.PolicyID(policyUUID), *req.Active)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

type routeRequest struct {
	Jurisdiction string `json:"jurisdiction" validate:"required"`
	ModelID      string `json:"model_id" validate:"required"`
}

func (h *Handler) handleRoute(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[routeRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	route, err := h.routing.Route(r.Context(), tenantID, jurisdiction, req.ModelID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, route)
}

func (h *Handler) handleFallbackRegion(w http.ResponseWriter, r *http.Request) {
	jurisdiction, err := id.ParseJurisdiction(r.URL.Query().Get("jurisdiction"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	failedRegion := r.URL.Query().Get("failed_region")
	if failedRegion == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "failed_region is required"))
		return
	}

	fallback, err := routing.FallbackRegion(jurisdiction, failedRegion)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fallback)
}

func (h *Handler) handleRoutingAnalytics(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	counts, err := h.routing.DecisionCounts(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counts)
}

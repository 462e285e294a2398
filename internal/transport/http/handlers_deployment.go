package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sovereign/internal/deployment"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/httputil"
)

func (h *Handler) registerDeployments(r chi.Router) {
	r.Route("/deployments", func(r chi.Router) {
		r.Post("/", h.handleDeploy)
		r.Post("/multi-region", h.handleDeployMultiRegion)
		r.Get("/", h.handleListDeployments)
		r.Get("/{deploymentID}", h.handleGetDeployment)
		r.Put("/{deploymentID}/status", h.handleUpdateDeploymentStatus)
		r.Post("/{deploymentID}/decommission", h.handleDecommission)
	})
}

type deployRequest struct {
	ModelID      string `json:"model_id" validate:"required"`
	ModelVersion string `json:"model_version" validate:"required"`
	Region       string `json:"region" validate:"required"`
	Jurisdiction string `json:"jurisdiction" validate:"required"`
	ClusterName  string `json:"cluster_name"`
	Namespace    string `json:"namespace"`
	Replicas     int    `json:"replicas" validate:"gte=0"`
	CPULimit     string `json:"cpu_limit"`
	MemoryLimit  string `json:"memory_limit"`
}

func (h *Handler) deployInput(w http.ResponseWriter, r *http.Request, req deployRequest, tenantID id.TenantID) (deployment.DeployInput, bool) {
	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return deployment.DeployInput{}, false
	}
	return deployment.DeployInput{
		TenantID:     tenantID,
		ModelID:      req.ModelID,
		ModelVersion: req.ModelVersion,
		Region:       req.Region,
		Jurisdiction: jurisdiction,
		ClusterName:  req.ClusterName,
		Namespace:    req.Namespace,
		Resources: deployment.ResourceConfig{
			Replicas:    req.Replicas,
			CPULimit:    req.CPULimit,
			MemoryLimit: req.MemoryLimit,
		},
	}, true
}

func (h *Handler) handleDeploy(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[deployRequest](w, r, h.logger)
	if !ok {
		return
	}
	input, ok := h.deployInput(w, r, req, tenantID)
	if !ok {
		return
	}

	d, err := h.deployments.Deploy(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

type multiRegionRequest struct {
	deployRequest
	Regions []string `json:"regions" validate:"required,min=1"`
}

func (h *Handler) handleDeployMultiRegion(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[multiRegionRequest](w, r, h.logger)
	if !ok {
		return
	}
	input, ok := h.deployInput(w, r, req.deployRequest, tenantID)
	if !ok {
		return
	}

	results, err := h.deployments.DeployMultiRegion(r.Context(), input, req.Regions)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, results)
}

func (h *Handler) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	deployments, err := h.deployments.List(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deployments)
}

func deploymentIDFromPath(w http.ResponseWriter, r *http.Request) (id.DeploymentID, bool) {
	deploymentUUID, err := uuid.Parse(chi.URLParam(r, "deploymentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid deployment id"))
		return id.DeploymentID{}, false
	}
	return id.DeploymentID(deploymentUUID), true
}

func (h *Handler) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	deploymentID, ok := deploymentIDFromPath(w, r)
	if !ok {
		return
	}

	d, err := h.deployments.Get(r.Context(), tenantID, deploymentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

type updateStatusRequest struct {
	Status       string `json:"status" validate:"required"`
	EndpointURL  string `json:"endpoint_url"`
	ErrorMessage string `json:"error_message"`
}

// handleUpdateDeploymentStatus is the report-back path for the orchestrator.
func (h *Handler) handleUpdateDeploymentStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	deploymentID, ok := deploymentIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[updateStatusRequest](w, r, h.logger)
	if !ok {
		return
	}

	status, err := deployment.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.deployments.UpdateStatus(r.Context(), tenantID, deploymentID, deployment.UpdateStatusInput{
		Status:       status,
		EndpointURL:  req.EndpointURL,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDecommission(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	deploymentID, ok := deploymentIDFromPath(w, r)
	if !ok {
		return
	}

	d, err := h.deployments.Decommission(r.Context(), tenantID, deploymentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

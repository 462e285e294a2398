package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sovereign/internal/registry"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/httputil"
	"sovereign/pkg/requestcontext"
)

func (h *Handler) registerRegistry(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Post("/models", h.handleRegisterModel)
		r.Get("/models", h.handleQueryRegistry)
		r.Get("/models/{registrationID}", h.handleGetRegistration)
		r.Post("/models/{registrationID}/approve", h.handleApproveModel)
		r.Post("/models/{registrationID}/reject", h.handleRejectModel)
		r.Post("/models/{registrationID}/revoke", h.handleRevokeModel)
		r.Post("/models/{registrationID}/availability", h.handleSetModelAvailability)
		r.Post("/models/{registrationID}/tags", h.handleAddComplianceTags)
		r.Post("/models/{registrationID}/certifications", h.handleCertifyModel)
		r.Get("/models/{registrationID}/certifications", h.handleGetCertifications)
		r.Post("/synchronize", h.handleSynchronizeRegistry)
	})
}

func registrationIDFromPath(w http.ResponseWriter, r *http.Request) (id.RegistrationID, bool) {
	regUUID, err := uuid.Parse(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid registration id"))
		return id.RegistrationID{}, false
	}
	return id.RegistrationID(regUUID), true
}

type registerModelRequest struct {
	ModelID                 string            `json:"model_id" validate:"required"`
	ModelName               string            `json:"model_name"`
	ModelVersion            string            `json:"model_version" validate:"required"`
	Jurisdiction            string            `json:"jurisdiction" validate:"required"`
	ApprovedRegions         []string          `json:"approved_regions"`
	ComplianceTags          []string          `json:"compliance_tags"`
	DataHandlingConstraints map[string]string `json:"data_handling_constraints"`
}

func (h *Handler) handleRegisterModel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[registerModelRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	m, err := h.registry.Register(r.Context(), registry.RegisterInput{
		TenantID:                tenantID,
		ModelID:                 req.ModelID,
		ModelName:               req.ModelName,
		ModelVersion:            req.ModelVersion,
		Jurisdiction:            jurisdiction,
		ApprovedRegions:         req.ApprovedRegions,
		ComplianceTags:          req.ComplianceTags,
		DataHandlingConstraints: req.DataHandlingConstraints,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleQueryRegistry(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := registry.Query{
		ComplianceTag:  q.Get("compliance_tag"),
		ApprovalStatus: registry.ApprovalStatus(q.Get("approval_status")),
		ModelID:        q.Get("model_id"),
		AvailableOnly:  q.Get("available_only") == "true",
	}
	if raw := q.Get("jurisdiction"); raw != "" {
		jurisdiction, err := id.ParseJurisdiction(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		query.Jurisdiction = jurisdiction
	}

	entries, err := h.registry.QueryRegistry(r.Context(), tenantID, query)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleGetRegistration(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	registrationID, ok := registrationIDFromPath(w, r)
	if !ok {
		return
	}

	m, err := h.registry.Get(r.Context(), tenantID, registrationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleApproveModel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	registrationID, ok := registrationIDFromPath(w, r)
	if !ok {
		return
	}

	m, err := h.registry.Approve(r.Context(), tenantID, registrationID, requestcontext.Actor(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleRejectModel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	registrationID, ok := registrationIDFromPath(w, r)
	if !ok {
		return
	}

	m, err := h.registry.Reject(r.Context(), tenantID, registrationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

type revokeModelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) handleRevokeModel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	registrationID, ok := registrationIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[revokeModelRequest](w, r, h.logger)
	if !ok {
		return
	}

	m, err := h.registry.Revoke(r.Context(), tenantID, registrationID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

type setAvailabilityRequest struct {
	Available *bool    `json:"available" validate:"required"`
	Regions   []string `json:"regions"`
}

func (h *Handler) handleSetModelAvailability(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	registrationID, ok := registrationIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[setAvailabilityRequest](w, r, h.logger)
	if !ok {
		return
	}

	m, err := h.registry.SetAvailability(r.Context(), tenantID, registrationID, *req.Available, req.Regions)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

type addTagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1"`
}

func (h *Handler) handleAddComplianceTags(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	registrationID, ok := registrationIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[addTagsRequest](w, r, h.logger)
	if !ok {
		return
	}

	m, err := h.registry.AddComplianceTags(r.Context(), tenantID, registrationID, req.Tags, requestcontext.Actor(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

type certifyRequest struct {
	CertifyingBody string    `json:"certifying_body" validate:"required"`
	Framework      string    `json:"framework" validate:"required"`
	CertificateID  string    `json:"certificate_id" validate:"required"`
	ValidUntil     time.Time `json:"valid_until" validate:"required"`
}

func (h *Handler) handleCertifyModel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	registrationID, ok := registrationIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[certifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	cert, err := h.registry.Certify(r.Context(), registry.CertifyInput{
		TenantID:       tenantID,
		RegistrationID: registrationID,
		CertifyingBody: req.CertifyingBody,
		Framework:      req.Framework,
		CertificateID:  req.CertificateID,
		ValidUntil:     req.ValidUntil,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cert)
}

func (h *Handler) handleGetCertifications(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	registrationID, ok := registrationIDFromPath(w, r)
	if !ok {
		return
	}

	certs, err := h.registry.GetCertifications(r.Context(), tenantID, registrationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, certs)
}

type synchronizeRequest struct {
	SourceJurisdiction string `json:"source_jurisdiction" validate:"required"`
	TargetJurisdiction string `json:"target_jurisdiction" validate:"required"`
}

func (h *Handler) handleSynchronizeRegistry(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[synchronizeRequest](w, r, h.logger)
	if !ok {
		return
	}

	source, err := id.ParseJurisdiction(req.SourceJurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	target, err := id.ParseJurisdiction(req.TargetJurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.registry.Synchronize(r.Context(), tenantID, source, target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

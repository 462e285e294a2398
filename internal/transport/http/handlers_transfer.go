package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sovereign/internal/transfer"
	id "sovereign/pkg/domain"
	"sovereign/pkg/platform/httputil"
)

func (h *Handler) registerTransfer(r chi.Router) {
	r.Route("/transfers", func(r chi.Router) {
		r.Post("/check", h.handleCheckTransfer)
		r.Post("/exemptions", h.handleGrantExemption)
		r.Get("/exemptions", h.handleListExemptions)
	})
}

type checkTransferRequest struct {
	SourceJurisdiction      string `json:"source_jurisdiction" validate:"required"`
	DestinationJurisdiction string `json:"destination_jurisdiction" validate:"required"`
	DataClassification      string `json:"data_classification" validate:"required"`
}

func (h *Handler) handleCheckTransfer(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[checkTransferRequest](w, r, h.logger)
	if !ok {
		return
	}

	src, err := id.ParseJurisdiction(req.SourceJurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dst, err := id.ParseJurisdiction(req.DestinationJurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	classification, err := id.ParseDataClassification(req.DataClassification)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	decision, err := h.transfer.Check(r.Context(), tenantID, src, dst, classification)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

type grantExemptionRequest struct {
	SourceJurisdiction      string    `json:"source_jurisdiction" validate:"required"`
	DestinationJurisdiction string    `json:"destination_jurisdiction" validate:"required"`
	DataClassification      string    `json:"data_classification" validate:"required"`
	Reason                  string    `json:"reason" validate:"required"`
	ExpiresAt               time.Time `json:"expires_at"`
}

func (h *Handler) handleGrantExemption(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[grantExemptionRequest](w, r, h.logger)
	if !ok {
		return
	}

	src, err := id.ParseJurisdiction(req.SourceJurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dst, err := id.ParseJurisdiction(req.DestinationJurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	classification, err := id.ParseDataClassification(req.DataClassification)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	exemption, err := h.transfer.GrantExemption(r.Context(), transfer.Exemption{
		TenantID:                tenantID,
		SourceJurisdiction:      src,
		DestinationJurisdiction: dst,
		DataClassification:      classification,
		Reason:                  req.Reason,
		ExpiresAt:               req.ExpiresAt,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, exemption)
}

func (h *Handler) handleListExemptions(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	exemptions, err := h.transfer.ListExemptions(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, exemptions)
}

package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sovereign/internal/audit"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/httputil"
)

func (h *Handler) registerAudit(r chi.Router) {
	r.Get("/audit/events", h.handleListAuditEvents)
}

func (h *Handler) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}

	q := audit.Query{TenantID: tenantID}
	params := r.URL.Query()
	if raw := params.Get("jurisdiction"); raw != "" {
		jurisdiction, err := id.ParseJurisdiction(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		q.Jurisdiction = jurisdiction
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		q.Limit = limit
	}

	entries, err := h.auditor.List(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

package httptransport

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sovereign/internal/keys"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/httputil"
)

func (h *Handler) registerKeys(r chi.Router) {
	r.Route("/keys", func(r chi.Router) {
		r.Post("/", h.handleImportKey)
		r.Get("/", h.handleListKeys)
		r.Get("/{keyID}", h.handleGetKey)
		r.Get("/{keyID}/lifecycle", h.handleKeyLifecycle)
		r.Post("/{keyID}/rotate", h.handleRotateKey)
		r.Post("/{keyID}/revoke", h.handleRevokeKey)
	})
}

func keyIDFromPath(w http.ResponseWriter, r *http.Request) (id.KeyID, bool) {
	keyUUID, err := uuid.Parse(chi.URLParam(r, "keyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid key id"))
		return id.KeyID{}, false
	}
	return id.KeyID(keyUUID), true
}

// decodeMaterial decodes base64 key material from a request body.
func decodeMaterial(w http.ResponseWriter, encoded string) ([]byte, bool) {
	material, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "key material must be base64"))
		return nil, false
	}
	return material, true
}

type importKeyRequest struct {
	Jurisdiction string `json:"jurisdiction" validate:"required"`
	Label        string `json:"label"`
	Algorithm    string `json:"algorithm" validate:"required"`
	Material     string `json:"material" validate:"required,base64"`
}

func (h *Handler) handleImportKey(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[importKeyRequest](w, r, h.logger)
	if !ok {
		return
	}

	jurisdiction, err := id.ParseJurisdiction(req.Jurisdiction)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	material, ok := decodeMaterial(w, req.Material)
	if !ok {
		return
	}

	key, err := h.keys.ImportKey(r.Context(), keys.ImportInput{
		TenantID:     tenantID,
		Jurisdiction: jurisdiction,
		Label:        req.Label,
		Algorithm:    req.Algorithm,
		Material:     material,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, key)
}

func (h *Handler) handleListKeys(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	list, err := h.keys.ListKeys(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetKey(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	keyID, ok := keyIDFromPath(w, r)
	if !ok {
		return
	}

	key, err := h.keys.GetKey(r.Context(), tenantID, keyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, key)
}

func (h *Handler) handleKeyLifecycle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	keyID, ok := keyIDFromPath(w, r)
	if !ok {
		return
	}

	history, err := h.keys.GetLifecycle(r.Context(), tenantID, keyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

type rotateKeyRequest struct {
	Material string `json:"material" validate:"required,base64"`
}

func (h *Handler) handleRotateKey(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	keyID, ok := keyIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[rotateKeyRequest](w, r, h.logger)
	if !ok {
		return
	}
	material, ok := decodeMaterial(w, req.Material)
	if !ok {
		return
	}

	key, err := h.keys.RotateKey(r.Context(), tenantID, keyID, material)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, key)
}

type revokeKeyRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) handleRevokeKey(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	keyID, ok := keyIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[revokeKeyRequest](w, r, h.logger)
	if !ok {
		return
	}

	key, err := h.keys.RevokeKey(r.Context(), tenantID, keyID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, key)
}

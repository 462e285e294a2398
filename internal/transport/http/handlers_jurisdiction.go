package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sovereign/internal/jurisdiction"
	"sovereign/pkg/platform/httputil"
	"sovereign/pkg/requestcontext"
)

func (h *Handler) registerJurisdiction(r chi.Router) {
	r.Get("/jurisdiction/detect", h.handleDetectJurisdiction)
}

// handleDetectJurisdiction re-runs detection against the live request and
// returns the full resolution, including losing candidates and whether the
// signals conflicted.
func (h *Handler) handleDetectJurisdiction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	headers := make(map[string]string, len(r.Header))
	for key := range r.Header {
		headers[key] = r.Header.Get(key)
	}

	detections := jurisdiction.Detect(jurisdiction.Input{
		Claims:   requestcontext.Claims(ctx),
		Headers:  headers,
		ClientIP: requestcontext.ClientIP(ctx),
	})
	resolution, err := jurisdiction.Resolve(detections)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolution)
}

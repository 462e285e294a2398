package middleware

import (
	"log/slog"
	"net/http"

	"sovereign/internal/jurisdiction"
	id "sovereign/pkg/domain"
	"sovereign/pkg/requestcontext"
)

// ResolveJurisdiction detects the request jurisdiction from token claims,
// headers and client IP, resolves conflicts, and stores the winner in the
// context. Runs after RequireAuth so verified claims are available.
func ResolveJurisdiction(defaultJurisdiction id.Jurisdiction, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			headers := make(map[string]string, len(r.Header))
			for key := range r.Header {
				headers[key] = r.Header.Get(key)
			}

			detections := jurisdiction.Detect(jurisdiction.Input{
				Claims:   requestcontext.Claims(ctx),
				Headers:  headers,
				ClientIP: requestcontext.ClientIP(ctx),
				Default:  defaultJurisdiction,
			})
			resolution, err := jurisdiction.Resolve(detections)
			if err != nil {
				// Detect always yields the default fallback, so this cannot
				// happen on a live request.
				logger.ErrorContext(ctx, "jurisdiction resolution failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if resolution.HasConflict {
				logger.WarnContext(ctx, "conflicting jurisdiction signals",
					"winner", resolution.Winner.Jurisdiction,
					"source", resolution.Winner.Source,
					"candidates", len(resolution.Candidates),
					"request_id", requestcontext.RequestID(ctx),
				)
			}

			ctx = requestcontext.WithJurisdiction(ctx, resolution.Winner.Jurisdiction)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services and encode; business logic stays out of this package.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sovereign/internal/audit"
	"sovereign/internal/compliance"
	"sovereign/internal/deployment"
	"sovereign/internal/keys"
	"sovereign/internal/platform/middleware"
	"sovereign/internal/registry"
	"sovereign/internal/residency"
	"sovereign/internal/routing"
	"sovereign/internal/transfer"
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
	"sovereign/pkg/platform/httputil"
	"sovereign/pkg/requestcontext"
)

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	residency   *residency.Service
	transfer    *transfer.Service
	routing     *routing.Service
	deployments *deployment.Service
	compliance  *compliance.Service
	registry    *registry.Service
	keys        *keys.Service
	auditor     *audit.Service
	logger      *slog.Logger
}

// NewHandler wires the services into a Handler.
func NewHandler(
	residencySvc *residency.Service,
	transferSvc *transfer.Service,
	routingSvc *routing.Service,
	deploymentSvc *deployment.Service,
	complianceSvc *compliance.Service,
	registrySvc *registry.Service,
	keysSvc *keys.Service,
	auditor *audit.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		residency:   residencySvc,
		transfer:    transferSvc,
		routing:     routingSvc,
		deployments: deploymentSvc,
		compliance:  complianceSvc,
		registry:    registrySvc,
		keys:        keysSvc,
		auditor:     auditor,
		logger:      logger,
	}
}

// NewRouter builds the full route tree. Health and metrics are open; every
// /v1 route requires a tenant-scoped token.
func NewRouter(h *Handler, validator middleware.TokenValidator, defaultJurisdiction id.Jurisdiction) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Logger(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, h.logger))
		r.Use(middleware.ResolveJurisdiction(defaultJurisdiction, h.logger))

		h.registerResidency(r)
		h.registerTransfer(r)
		h.registerRouting(r)
		h.registerDeployments(r)
		h.registerCompliance(r)
		h.registerRegistry(r)
		h.registerKeys(r)
		h.registerJurisdiction(r)
		h.registerAudit(r)
	})
	return r
}

// tenantFromContext reads the authenticated tenant. The auth middleware
// guarantees it is set on every /v1 route.
func tenantFromContext(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	tenantID := requestcontext.TenantID(r.Context())
	if tenantID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no tenant in request context"))
		return id.TenantID{}, false
	}
	return tenantID, true
}

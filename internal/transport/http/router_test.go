package httptransport

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"sovereign/internal/audit"
	"sovereign/internal/compliance"
	complianceMetrics "sovereign/internal/compliance/metrics"
	"sovereign/internal/deployment"
	"sovereign/internal/events"
	"sovereign/internal/keys"
	keysMetrics "sovereign/internal/keys/metrics"
	"sovereign/internal/platform/middleware"
	"sovereign/internal/registry"
	registryMetrics "sovereign/internal/registry/metrics"
	"sovereign/internal/residency"
	residencyMetrics "sovereign/internal/residency/metrics"
	"sovereign/internal/routing"
	routingMetrics "sovereign/internal/routing/metrics"
	"sovereign/internal/transfer"
	transferMetrics "sovereign/internal/transfer/metrics"
	id "sovereign/pkg/domain"
)

const testSigningKey = "router-test-secret"

// Prometheus collectors register globally, so the suite shares one set.
var (
	residencyM  = residencyMetrics.New()
	transferM   = transferMetrics.New()
	routingM    = routingMetrics.New()
	complianceM = complianceMetrics.New()
	registryM   = registryMetrics.New()
	keysM       = keysMetrics.New()
)

type RouterSuite struct {
	suite.Suite
	server *httptest.Server
	tenant id.TenantID
	token  string
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	publisher := events.Nop{}

	auditor := audit.NewService(audit.NewInMemoryStore(), logger)
	residencySvc := residency.NewService(residency.NewInMemoryStore(), auditor, publisher, residencyM, logger)
	transferSvc := transfer.NewService(transfer.NewInMemoryStore(), auditor, publisher, transferM, logger)
	deploymentSvc := deployment.NewService(deployment.NewInMemoryStore(), deployment.StaticOrchestrator{}, residencySvc, publisher, logger)
	routingSvc := routing.NewService(routing.NewInMemoryStore(), deploymentSvc, auditor, publisher, routing.NewInMemoryAnalytics(), routingM, logger)
	complianceSvc := compliance.NewService(compliance.NewInMemoryReportStore(), compliance.NewInMemoryMapStore(), publisher, complianceM, logger)
	registrySvc := registry.NewService(registry.NewInMemoryStore(), registry.NewInMemoryCertificationStore(), publisher, registryM, logger)
	keysSvc := keys.NewService(keys.NewInMemoryStore(), publisher, keysM, logger)

	handler := NewHandler(residencySvc, transferSvc, routingSvc, deploymentSvc, complianceSvc, registrySvc, keysSvc, auditor, logger)
	router := NewRouter(handler, middleware.NewHMACValidator(testSigningKey), id.JurisdictionUS)

	s.server = httptest.NewServer(router)
	s.tenant = id.NewTenantID()
	s.token = s.signToken(jwt.MapClaims{
		"tenant_id":    s.tenant.String(),
		"sub":          "reviewer@example.com",
		"jurisdiction": "EU",
		"exp":          time.Now().Add(time.Hour).Unix(),
	})
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterSuite) signToken(claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *RouterSuite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *RouterSuite) TestHealthzIsOpen() {
	resp, err := http.Get(s.server.URL + "/healthz")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterSuite) TestV1RequiresToken() {
	resp, err := http.Get(s.server.URL + "/v1/residency/rules")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterSuite) TestRejectsForeignSignature() {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"tenant_id": s.tenant.String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("some-other-secret"))
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/v1/residency/rules", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterSuite) TestResidencyRuleRoundTrip() {
	resp := s.do(http.MethodPost, "/v1/residency/rules", map[string]any{
		"jurisdiction":        "EU",
		"data_classification": "pii",
		"allowed_regions":     []string{"eu-west-1"},
		"blocked_regions":     []string{"us-east-1"},
		"action":              "block",
		"priority":            10,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var rule residency.Rule
	s.decode(resp, &rule)
	s.Equal(s.tenant, rule.TenantID)
	s.True(rule.Active)

	resp = s.do(http.MethodPost, "/v1/residency/enforce", map[string]any{
		"jurisdiction":        "EU",
		"data_classification": "pii",
		"region":              "us-east-1",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	var decision residency.Decision
	s.decode(resp, &decision)
	s.False(decision.Compliant)
	s.Equal(rule.ID, decision.RuleID)

	// The violation is on the audit trail.
	resp = s.do(http.MethodGet, "/v1/audit/events?jurisdiction=EU", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var entries []audit.Entry
	s.decode(resp, &entries)
	s.Require().NotEmpty(entries)
	s.Equal(audit.OutcomeViolation, entries[0].Outcome)
}

func (s *RouterSuite) TestCreateRuleValidation() {
	resp := s.do(http.MethodPost, "/v1/residency/rules", map[string]any{
		"jurisdiction": "EU",
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (s *RouterSuite) TestTransferCheck() {
	resp := s.do(http.MethodPost, "/v1/transfers/check", map[string]any{
		"source_jurisdiction":      "EU",
		"destination_jurisdiction": "US",
		"data_classification":      "health",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	var decision transfer.Decision
	s.decode(resp, &decision)
	s.False(decision.Allowed)
}

func (s *RouterSuite) TestJurisdictionDetectUsesClaims() {
	resp := s.do(http.MethodGet, "/v1/jurisdiction/detect", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var resolution struct {
		Winner struct {
			Jurisdiction string `json:"jurisdiction"`
			Source       string `json:"source"`
		} `json:"winner"`
	}
	s.decode(resp, &resolution)
	s.Equal("EU", resolution.Winner.Jurisdiction)
	s.Equal("jwt_claim", resolution.Winner.Source)
}

func (s *RouterSuite) TestKeyImportAndRotate() {
	material := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xA5}, 32))
	resp := s.do(http.MethodPost, "/v1/keys/", map[string]any{
		"jurisdiction": "EU",
		"label":        "tenant-master",
		"algorithm":    "AES-256",
		"material":     material,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var key keys.ManagedKey
	s.decode(resp, &key)
	s.Equal(1, key.Version)

	rotated := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x5A}, 32))
	resp = s.do(http.MethodPost, fmt.Sprintf("/v1/keys/%s/rotate", key.ID), map[string]any{
		"material": rotated,
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	var updated keys.ManagedKey
	s.decode(resp, &updated)
	s.Equal(2, updated.Version)
	s.NotEqual(key.Fingerprint, updated.Fingerprint)
}

func (s *RouterSuite) TestRegistryLifecycleOverHTTP() {
	resp := s.do(http.MethodPost, "/v1/registry/models", map[string]any{
		"model_id":        "llm-7b",
		"model_name":      "Test Model",
		"model_version":   "1.0.0",
		"jurisdiction":    "EU",
		"compliance_tags": []string{"GDPR"},
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var m registry.SovereignModel
	s.decode(resp, &m)
	s.Equal(registry.ApprovalPending, m.ApprovalStatus)

	resp = s.do(http.MethodPost, fmt.Sprintf("/v1/registry/models/%s/approve", m.ID), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var approved registry.SovereignModel
	s.decode(resp, &approved)
	s.Equal(registry.ApprovalApproved, approved.ApprovalStatus)
	// Approver comes from the token subject.
	s.Equal("reviewer@example.com", approved.ApprovedBy)
}

func (s *RouterSuite) TestMetricsEndpointIsOpen() {
	resp, err := http.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

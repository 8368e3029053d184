package api

import (
	"net/http"
	"time"

	"github.com/forensicate/forensicate/internal/auth"
	"github.com/forensicate/forensicate/internal/chread"
	"github.com/forensicate/forensicate/internal/community"
	"github.com/forensicate/forensicate/internal/rules"
	"github.com/forensicate/forensicate/internal/scanner"
	"github.com/forensicate/forensicate/internal/storage"
	"github.com/forensicate/forensicate/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Store           *store.Store
	Scanner         *scanner.Driver
	Catalog         *rules.Catalog
	Authenticator   auth.Authenticator
	Limiters        *RateLimiters
	Writer          storage.EventWriter
	Reader          *chread.Reader // nil if ClickHouse unavailable
	CommunityLoader *community.Loader // nil if no community rules URL configured
	ScanTimeout     time.Duration
	Logger          *zap.Logger
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Scan endpoint (auth required via Bearer fcs_ token)
	mux.HandleFunc("POST /v1/scan", deps.authMiddleware(deps.handleScan))

	// Tenant CRUD (no auth — dashboard auth added later)
	mux.HandleFunc("POST /api/tenants", deps.handleCreateTenant)
	mux.HandleFunc("GET /api/tenants", deps.handleListTenants)
	mux.HandleFunc("GET /api/tenants/{tenant_id}", deps.handleGetTenant)
	mux.HandleFunc("PATCH /api/tenants/{tenant_id}", deps.handleUpdateTenant)
	mux.HandleFunc("DELETE /api/tenants/{tenant_id}", deps.handleDeleteTenant)
	mux.HandleFunc("POST /api/tenants/{tenant_id}/rotate-key", deps.handleRotateKey)

	// Rule override CRUD (no auth)
	mux.HandleFunc("GET /api/tenants/{tenant_id}/rule-override", deps.handleGetRuleOverride)
	mux.HandleFunc("PATCH /api/tenants/{tenant_id}/rule-override", deps.handleUpdateRuleOverride)
	mux.HandleFunc("PUT /api/tenants/{tenant_id}/rule-override", deps.handleReplaceRuleOverride)
	mux.HandleFunc("GET /api/rules/stats", deps.handleRuleStats)

	// Community rules (no auth)
	mux.HandleFunc("GET /api/community-rules", deps.handleListCommunityRules)

	// Events & Analytics (no auth)
	mux.HandleFunc("GET /api/scan-events", deps.handleListScanEvents)
	mux.HandleFunc("GET /api/scan-events/{request_id}", deps.handleGetScanEvent)
	mux.HandleFunc("GET /api/analytics", deps.handleGetAnalytics)

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	return corsMiddleware(requestLogging(mux, deps.Logger))
}

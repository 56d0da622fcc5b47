// Package httpapi is the HTTP edge of the service. It resolves the tenant
// for every inbound request, authenticates bearer tokens, binds the
// execution context and translates domain errors into stable response
// codes.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"signhub.io/internal/auth"
	"signhub.io/internal/guard"
	"signhub.io/internal/obs"
	"signhub.io/internal/tenant"
)

// ReadyProbe reports whether downstream dependencies answer.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries everything the HTTP layer wires together.
type Deps struct {
	Resolver    *tenant.Resolver
	Registry    tenant.Registry
	Tokens      *auth.TokenService
	Users       auth.UserStore
	Memberships auth.MembershipStore
	Assets      *guard.Assets
	Throttle    *auth.Throttle
	Ready       ReadyProbe
	Version     string
}

// API is the HTTP layer.
type API struct {
	mux         *http.ServeMux
	resolver    *tenant.Resolver
	registry    tenant.Registry
	tokens      *auth.TokenService
	users       auth.UserStore
	memberships auth.MembershipStore
	assets      *guard.Assets
	throttle    *auth.Throttle
	readyProbe  ReadyProbe
	version     string
}

func New(d Deps) *API {
	a := &API{
		mux:         http.NewServeMux(),
		resolver:    d.Resolver,
		registry:    d.Registry,
		tokens:      d.Tokens,
		users:       d.Users,
		memberships: d.Memberships,
		assets:      d.Assets,
		throttle:    d.Throttle,
		readyProbe:  d.Ready,
		version:     d.Version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// token lifecycle
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)

	// tenant-scoped resources
	a.mux.HandleFunc("/v1/assets", a.handleAssetsCollection)
	a.mux.HandleFunc("/v1/assets/", a.handleAssetResource)
	a.mux.HandleFunc("/v1/members", a.handleMembersCollection)
	a.mux.HandleFunc("/v1/members/", a.handleMemberResource)

	// platform provisioning
	a.mux.HandleFunc("/v1/admin/tenants", a.handleTenantsCollection)
	a.mux.HandleFunc("/v1/admin/tenants/", a.handleTenantResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 100)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- service handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "signhub-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "signhub-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// resolveTenant maps the request's routing signals to a tenant.
func (a *API) resolveTenant(r *http.Request) (tenant.Tenant, error) {
	return a.resolver.Resolve(r.Context(), tenant.RequestMeta{
		Host:         r.Host,
		TenantHeader: r.Header.Get("X-Tenant-ID"),
		DebugTenant:  r.URL.Query().Get("tenant"),
	})
}

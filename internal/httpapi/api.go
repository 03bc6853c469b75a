package httpapi

import (
	"context"
	"net/http"
	"strings"

	"menuqr.org/internal/auth"
	"menuqr.org/internal/menu"
	"menuqr.org/internal/obs"
)

// API wires the services onto HTTP routes.
type API struct {
	sessions  *auth.Service
	tokens    *auth.TokenService
	claims    *auth.ClaimService
	roles     *auth.RoleService
	directory *auth.DirectoryService
	menu      *menu.Service
	version   string
	ready     func(ctx context.Context) error
}

// Option configures the API.
type Option func(*API)

// WithVersion sets the version string reported by /v1/info.
func WithVersion(version string) Option {
	return func(a *API) {
		a.version = version
	}
}

// WithReadyProbe sets the dependency check behind /readyz.
func WithReadyProbe(probe func(ctx context.Context) error) Option {
	return func(a *API) {
		a.ready = probe
	}
}

// New builds the API.
func New(sessions *auth.Service, tokens *auth.TokenService, claims *auth.ClaimService,
	roles *auth.RoleService, directory *auth.DirectoryService, menuSvc *menu.Service, opts ...Option) *API {
	a := &API{
		sessions:  sessions,
		tokens:    tokens,
		claims:    claims,
		roles:     roles,
		directory: directory,
		menu:      menuSvc,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler assembles the routes and the middleware chain.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.Health)
	mux.HandleFunc("/readyz", a.Ready)
	mux.HandleFunc("/v1/info", a.Info)
	mux.Handle("/metrics", obs.Handler())

	mux.HandleFunc("/auth/login", a.handleLogin)
	mux.HandleFunc("/auth/register", a.handleRegister)
	mux.HandleFunc("/auth/refresh", a.handleRefresh)
	mux.HandleFunc("/auth/logout", a.handleLogout)
	mux.HandleFunc("/auth/me/claims", a.handleMyClaims)

	mux.HandleFunc("/admin/claims", a.handleUserClaims)
	mux.HandleFunc("/admin/claims/catalog", a.handleClaimCatalog)
	mux.HandleFunc("/admin/roles", a.handleRoles)
	mux.HandleFunc("/admin/roles/", a.handleRoleSubtree)
	mux.HandleFunc("/admin/users", a.handleUsers)
	mux.HandleFunc("/admin/users/", a.handleUserByID)
	mux.HandleFunc("/admin/tenant", a.handleTenant)

	mux.HandleFunc("/menu/categories", a.handleCategories)
	mux.HandleFunc("/menu/categories/", a.handleCategoryByID)
	mux.HandleFunc("/menu/products", a.handleProducts)
	mux.HandleFunc("/menu/products/", a.handleProductByID)
	mux.HandleFunc("/orders", a.handleOrders)
	mux.HandleFunc("/orders/", a.handleOrderByID)

	mux.HandleFunc("/public/", a.handlePublic)

	var h http.Handler = mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 20, 10)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return h
}

// pathTail returns the path segment after the prefix, or "" when the path
// has extra segments.
func pathTail(path, prefix string) string {
	tail := strings.TrimPrefix(path, prefix)
	if tail == "" || strings.Contains(tail, "/") {
		return ""
	}
	return tail
}

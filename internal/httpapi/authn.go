package httpapi

import (
	"net/http"
	"strings"

	"menuqr.org/internal/auth"
	"menuqr.org/internal/obs"
)

// publicPaths are reachable without an access token. Logout is public so a
// client with an expired access token can still end its session.
var publicPaths = map[string]bool{
	"/auth/login":    true,
	"/auth/register": true,
	"/auth/refresh":  true,
	"/auth/logout":   true,
	"/healthz":       true,
	"/readyz":        true,
	"/metrics":       true,
	"/v1/info":       true,
}

// withAuth validates the bearer token, resolves the caller's effective
// claims and attaches the principal to the context. Public paths and menu
// browsing pass through untouched.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] || strings.HasPrefix(r.URL.Path, "/public/") {
			next.ServeHTTP(w, r)
			return
		}

		raw := extractBearerToken(r)
		if raw == "" {
			obs.CountAuthDecision("unauthenticated")
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claims, err := a.tokens.ParseAccessToken(raw)
		if err != nil {
			obs.CountAuthDecision("unauthenticated")
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		// Claims are resolved fresh on every request, so an override takes
		// effect immediately even while older access tokens are still live.
		effective, err := a.claims.EffectiveClaims(r.Context(), claims.UserID)
		if err != nil {
			obs.CountAuthDecision("unauthenticated")
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		principal := &auth.Principal{
			UserID:   claims.UserID,
			TenantID: claims.TenantID,
			Email:    claims.Email,
			Claims:   effective,
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// principal pulls the authenticated caller off the request, writing a 401
// when the middleware did not set one.
func principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		obs.CountAuthDecision("unauthenticated")
		writeError(w, r, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return p, true
}

// requireClaim gates a handler on a single claim.
func requireClaim(claim string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		if !p.HasClaim(claim) {
			obs.CountAuthDecision("forbidden")
			writeErrorExtra(w, r, http.StatusForbidden, "Forbidden", map[string]any{
				"required_claim": claim,
			})
			return
		}
		obs.CountAuthDecision("allowed")
		next(w, r)
	}
}

// requireAnyClaim gates a handler on holding at least one of the claims.
func requireAnyClaim(claims []string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		for _, claim := range claims {
			if p.HasClaim(claim) {
				obs.CountAuthDecision("allowed")
				next(w, r)
				return
			}
		}
		obs.CountAuthDecision("forbidden")
		writeErrorExtra(w, r, http.StatusForbidden, "Forbidden", map[string]any{
			"required_claims": claims,
			"requires_any":    true,
		})
	}
}

// requireAllClaims gates a handler on holding every one of the claims.
func requireAllClaims(claims []string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		var missing []string
		for _, claim := range claims {
			if !p.HasClaim(claim) {
				missing = append(missing, claim)
			}
		}
		if len(missing) > 0 {
			obs.CountAuthDecision("forbidden")
			writeErrorExtra(w, r, http.StatusForbidden, "Forbidden", map[string]any{
				"missing_claims": missing,
				"requires_all":   true,
			})
			return
		}
		obs.CountAuthDecision("allowed")
		next(w, r)
	}
}

// sameTenant rejects cross-tenant access without revealing whether the
// target exists.
func sameTenant(w http.ResponseWriter, r *http.Request, p *auth.Principal, tenantID string) bool {
	if p.TenantID != tenantID {
		obs.CountAuthDecision("forbidden")
		writeError(w, r, http.StatusForbidden, "Unauthorized")
		return false
	}
	return true
}

package auth

import "context"

// Principal is the authenticated caller attached to a request context after
// access token validation and claim resolution.
type Principal struct {
	UserID   string
	TenantID string
	Email    string
	Claims   map[string]bool
}

// HasClaim reports whether the principal holds the named claim. Unknown
// claims resolve to false.
func (p *Principal) HasClaim(name string) bool {
	if p == nil {
		return false
	}
	return p.Claims[name]
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal set by the authentication
// middleware, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok && p != nil
}

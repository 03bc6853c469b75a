package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"menuqr.org/internal/audit"
)

type updateClaimRequest struct {
	ClaimName string `json:"claim_name"`
	Granted   bool   `json:"granted"`
	Force     bool   `json:"force"`
}

type updateClaimsRequest struct {
	Claims map[string]bool `json:"claims"`
	Force  bool            `json:"force"`
}

// handleUserClaims serves the per-user permission matrix. GET returns every
// system claim with effective value, source and recent audit history; PUT
// mutates one override; POST replaces the full set.
func (a *API) handleUserClaims(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		requireClaim("users.manage_permissions", a.getUserClaims)(w, r)
	case http.MethodPut:
		requireClaim("users.manage_permissions", a.putUserClaim)(w, r)
	case http.MethodPost:
		requireClaim("users.manage_permissions", a.putUserClaims)(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPost)
	}
}

// targetUser validates the userId query parameter and pins it to the
// caller's tenant. A cross-tenant target reads as a generic Unauthorized.
func (a *API) targetUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := principal(w, r)
	if !ok {
		return "", false
	}
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, "userId query parameter is required")
		return "", false
	}
	user, err := a.directory.GetUser(r.Context(), p.TenantID, userID)
	if err != nil {
		writeError(w, r, http.StatusForbidden, "Unauthorized")
		return "", false
	}
	return user.ID, true
}

func (a *API) getUserClaims(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.targetUser(w, r)
	if !ok {
		return
	}

	details, err := a.claims.UserClaimsDetailed(r.Context(), userID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("audit_limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	log, err := a.claims.AuditLog(r.Context(), userID, limit)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"claims":    details,
		"audit_log": log,
	})
}

func (a *API) putUserClaim(w http.ResponseWriter, r *http.Request) {
	p, _ := principal(w, r)
	userID, ok := a.targetUser(w, r)
	if !ok {
		return
	}
	var req updateClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ClaimName == "" {
		writeError(w, r, http.StatusBadRequest, "claim_name is required")
		return
	}

	if ok, warning := a.claims.CanModifyUserClaim(p.UserID, userID, req.ClaimName, req.Granted); !ok && !req.Force {
		writeErrorExtra(w, r, http.StatusBadRequest, warning, map[string]any{
			"requires_force": true,
		})
		return
	}

	if err := a.claims.SetUserClaim(r.Context(), userID, req.ClaimName, req.Granted, p.UserID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "claims.updated", map[string]any{
		"target_user": userID,
		"claim":       req.ClaimName,
		"granted":     req.Granted,
	})
	writeData(w, http.StatusOK, map[string]any{"updated": true})
}

func (a *API) putUserClaims(w http.ResponseWriter, r *http.Request) {
	p, _ := principal(w, r)
	userID, ok := a.targetUser(w, r)
	if !ok {
		return
	}
	var req updateClaimsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Claims == nil {
		writeError(w, r, http.StatusBadRequest, "claims object is required")
		return
	}

	// Bulk replacement denies everything not named, so check the critical
	// claims for self-lockout too.
	if p.UserID == userID && !req.Force {
		for _, critical := range []string{"users.manage_permissions", "tenant.edit"} {
			if req.Claims[critical] {
				continue
			}
			if ok, warning := a.claims.CanModifyUserClaim(p.UserID, userID, critical, false); !ok {
				writeErrorExtra(w, r, http.StatusBadRequest, warning, map[string]any{
					"requires_force": true,
				})
				return
			}
		}
	}

	if err := a.claims.SetUserClaims(r.Context(), userID, req.Claims, p.UserID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "claims.replaced", map[string]any{
		"target_user": userID,
		"granted":     len(req.Claims),
	})
	writeData(w, http.StatusOK, map[string]any{"updated": true})
}

// handleClaimCatalog lists every system claim grouped by resource.
func (a *API) handleClaimCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	requireClaim("users.manage_permissions", func(w http.ResponseWriter, r *http.Request) {
		grouped, flat, err := a.claims.Catalog(r.Context())
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{
			"grouped": grouped,
			"claims":  flat,
		})
	})(w, r)
}

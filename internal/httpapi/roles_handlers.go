package httpapi

import (
	"net/http"
	"strings"

	"menuqr.org/internal/audit"
	"menuqr.org/internal/auth"
)

type updateRoleClaimsRequest struct {
	ClaimIDs []string `json:"claim_ids"`
}

type updateRoleMetadataRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// roleReadClaims gates role reads: full permission admins and plain user
// viewers both need the role definitions to render staff screens.
var roleReadClaims = []string{"users.manage_permissions", "users.view"}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	requireAnyClaim(roleReadClaims, func(w http.ResponseWriter, r *http.Request) {
		roles, err := a.roles.ListRoles(r.Context())
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"roles": roles})
	})(w, r)
}

// handleRoleSubtree routes /admin/roles/{role}, /admin/roles/{role}/claims
// and /admin/roles/{role}/users.
func (a *API) handleRoleSubtree(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/admin/roles/")
	parts := strings.Split(tail, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	role := parts[0]

	switch {
	case len(parts) == 1:
		a.handleRole(w, r, role)
	case len(parts) == 2 && parts[1] == "claims":
		a.handleRoleClaims(w, r, role)
	case len(parts) == 2 && parts[1] == "users":
		a.handleRoleUsers(w, r, role)
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

func (a *API) handleRole(w http.ResponseWriter, r *http.Request, role string) {
	switch r.Method {
	case http.MethodGet:
		requireAnyClaim(roleReadClaims, func(w http.ResponseWriter, r *http.Request) {
			detail, err := a.roles.GetRoleWithClaims(r.Context(), role)
			if err != nil {
				handleAuthError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, detail)
		})(w, r)
	case http.MethodPut:
		requireClaim("users.manage_permissions", func(w http.ResponseWriter, r *http.Request) {
			var req updateRoleMetadataRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			updated, err := a.roles.UpdateRoleMetadata(r.Context(), role, auth.RoleMetadataUpdate{
				Title:       req.Title,
				Description: req.Description,
				Color:       req.Color,
			})
			if err != nil {
				handleAuthError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "role.metadata_updated", map[string]any{
				"role": role,
			})
			writeData(w, http.StatusOK, updated)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) handleRoleClaims(w http.ResponseWriter, r *http.Request, role string) {
	switch r.Method {
	case http.MethodGet:
		requireAnyClaim(roleReadClaims, func(w http.ResponseWriter, r *http.Request) {
			details, err := a.roles.GetRoleClaimsDetailed(r.Context(), role)
			if err != nil {
				handleAuthError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, map[string]any{
				"role":   role,
				"claims": details,
			})
		})(w, r)
	case http.MethodPut:
		requireClaim("users.manage_permissions", func(w http.ResponseWriter, r *http.Request) {
			var req updateRoleClaimsRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			if err := a.roles.UpdateRoleClaims(r.Context(), role, req.ClaimIDs); err != nil {
				handleAuthError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "role.claims_updated", map[string]any{
				"role":   role,
				"claims": len(req.ClaimIDs),
			})
			writeData(w, http.StatusOK, map[string]any{"updated": true})
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) handleRoleUsers(w http.ResponseWriter, r *http.Request, role string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	requireClaim("users.view", func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		users, err := a.roles.UsersByRole(r.Context(), p.TenantID, role)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		if users == nil {
			users = []auth.User{}
		}
		writeData(w, http.StatusOK, map[string]any{
			"role":  role,
			"users": users,
		})
	})(w, r)
}

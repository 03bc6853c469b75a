package httpapi

import (
	"net/http"

	"menuqr.org/internal/audit"
	"menuqr.org/internal/auth"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		requireClaim("users.view", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			users, err := a.directory.ListUsers(r.Context(), p.TenantID)
			if err != nil {
				handleAuthError(w, r, err)
				return
			}
			if users == nil {
				users = []auth.User{}
			}
			writeData(w, http.StatusOK, map[string]any{"users": users})
		})(w, r)
	case http.MethodPost:
		requireClaim("users.create", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			var req createUserRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			user, err := a.directory.CreateUser(r.Context(), p.TenantID,
				req.Name, req.Email, req.Password, req.Role, req.Phone)
			if err != nil {
				handleAuthError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "user.created", map[string]any{
				"created_user": user.ID,
				"role":         user.Role,
			})
			writeData(w, http.StatusCreated, user)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserByID(w http.ResponseWriter, r *http.Request) {
	userID := pathTail(r.URL.Path, "/admin/users/")
	if userID == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		requireClaim("users.view", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			user, err := a.directory.GetUser(r.Context(), p.TenantID, userID)
			if err != nil {
				handleAuthError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, user)
		})(w, r)
	case http.MethodPut:
		requireClaim("users.edit", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			var req updateUserRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			user, err := a.directory.UpdateUser(r.Context(), p.TenantID, userID, auth.UserUpdate{
				Name:     req.Name,
				Email:    req.Email,
				Password: req.Password,
				Role:     req.Role,
				Phone:    req.Phone,
				IsActive: req.IsActive,
			})
			if err != nil {
				handleAuthError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "user.updated", map[string]any{
				"updated_user": userID,
			})
			writeData(w, http.StatusOK, user)
		})(w, r)
	case http.MethodDelete:
		requireClaim("users.delete", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			if err := a.directory.DeleteUser(r.Context(), p.TenantID, p.UserID, userID); err != nil {
				handleAuthError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "user.deleted", map[string]any{
				"deleted_user": userID,
			})
			writeData(w, http.StatusOK, map[string]any{"deleted": true})
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

package httpapi

import (
	"net/http"

	"menuqr.org/internal/audit"
	"menuqr.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	TenantName string `json:"tenant_name"`
	Slug       string `json:"slug"`
	OwnerName  string `json:"owner_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *auth.User   `json:"user"`
	Tenant       *auth.Tenant `json:"tenant"`
}

func sessionPayload(s *auth.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.ExpiresIn.Seconds()),
		User:         s.User,
		Tenant:       s.Tenant,
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := a.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "session.login", map[string]any{
		"user_id": sess.User.ID,
	})
	writeData(w, http.StatusOK, sessionPayload(sess))
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := a.sessions.Register(r.Context(), auth.RegisterInput{
		TenantName: req.TenantName,
		Slug:       req.Slug,
		OwnerName:  req.OwnerName,
		Email:      req.Email,
		Password:   req.Password,
		Phone:      req.Phone,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "tenant.registered", map[string]any{
		"tenant_id": sess.User.TenantID,
		"user_id":   sess.User.ID,
	})
	writeData(w, http.StatusCreated, sessionPayload(sess))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := a.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sessionPayload(sess))
}

// handleLogout revokes the supplied refresh token. When a valid bearer token
// accompanies the request, every session of that user ends. The endpoint is
// public so an expired access token still lets a client log out.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req logoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var userID string
	if raw := extractBearerToken(r); raw != "" {
		if claims, err := a.tokens.ParseAccessToken(raw); err == nil {
			userID = claims.UserID
		}
	}
	if err := a.sessions.Logout(r.Context(), req.RefreshToken, userID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "session.logout", map[string]any{
		"all_sessions": userID != "",
	})
	writeData(w, http.StatusOK, map[string]any{"logged_out": true})
}

// handleMyClaims returns the caller's effective claim names, for clients
// that build their UI from permissions.
func (a *API) handleMyClaims(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	names, err := a.claims.GrantedClaimNames(r.Context(), p.UserID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeData(w, http.StatusOK, map[string]any{"claims": names})
}

package httpapi

import (
	"net/http"

	"menuqr.org/internal/audit"
	"menuqr.org/internal/auth"
)

type updateTenantRequest struct {
	Name           *string  `json:"name"`
	Phone          *string  `json:"phone"`
	WhatsAppNumber *string  `json:"whatsapp_number"`
	LogoURL        *string  `json:"logo_url"`
	ColorTheme     *string  `json:"color_theme"`
	Currencies     []string `json:"currencies"`
}

func (a *API) handleTenant(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		requireClaim("tenant.view", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			tenant, err := a.directory.GetTenant(r.Context(), p.TenantID)
			if err != nil {
				handleAuthError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, tenant)
		})(w, r)
	case http.MethodPut:
		requireClaim("tenant.edit", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			var req updateTenantRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			tenant, err := a.directory.UpdateTenant(r.Context(), p.TenantID, auth.TenantUpdate{
				Name:           req.Name,
				Phone:          req.Phone,
				WhatsAppNumber: req.WhatsAppNumber,
				LogoURL:        req.LogoURL,
				ColorTheme:     req.ColorTheme,
				Currencies:     req.Currencies,
			})
			if err != nil {
				handleAuthError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "tenant.updated", nil)
			writeData(w, http.StatusOK, tenant)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

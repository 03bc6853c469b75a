package httpapi

import (
	"net/http"
	"strings"

	"menuqr.org/internal/menu"
)

// handlePublic serves the unauthenticated customer surface:
// GET  /public/{slug}/menu    the tenant's browsable menu
// POST /public/{slug}/orders  place an order against that menu
func (a *API) handlePublic(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/public/")
	parts := strings.Split(tail, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	slug, resource := parts[0], parts[1]

	tenant, err := a.directory.GetTenantBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch resource {
	case "menu":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.publicMenu(w, r, tenant.ID, tenant.Name)
	case "orders":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.publicPlaceOrder(w, r, tenant.ID)
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

// publicMenu returns active categories with their available products only.
func (a *API) publicMenu(w http.ResponseWriter, r *http.Request, tenantID, tenantName string) {
	categories, err := a.menu.ListCategories(r.Context(), tenantID)
	if err != nil {
		handleMenuError(w, r, err)
		return
	}
	products, err := a.menu.ListProducts(r.Context(), tenantID, "")
	if err != nil {
		handleMenuError(w, r, err)
		return
	}

	byCategory := make(map[string][]menu.Product)
	for _, p := range products {
		if p.IsAvailable {
			byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
		}
	}

	type publicCategory struct {
		menu.Category
		Products []menu.Product `json:"products"`
	}
	visible := make([]publicCategory, 0, len(categories))
	for _, c := range categories {
		if !c.IsActive {
			continue
		}
		items := byCategory[c.ID]
		if items == nil {
			items = []menu.Product{}
		}
		visible = append(visible, publicCategory{Category: c, Products: items})
	}

	writeData(w, http.StatusOK, map[string]any{
		"restaurant": tenantName,
		"categories": visible,
	})
}

func (a *API) publicPlaceOrder(w http.ResponseWriter, r *http.Request, tenantID string) {
	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	order, err := a.menu.PlaceOrder(r.Context(), tenantID, orderFromRequest(req))
	if err != nil {
		handleMenuError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, order)
}

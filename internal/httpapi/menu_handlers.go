package httpapi

import (
	"net/http"

	"menuqr.org/internal/menu"
)

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

type productRequest struct {
	CategoryID  string         `json:"category_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ImageURL    string         `json:"image_url"`
	Price       int64          `json:"price"`
	Currency    string         `json:"currency"`
	Variants    []menu.Variant `json:"variants"`
	SortOrder   int            `json:"sort_order"`
}

type updateProductRequest struct {
	CategoryID  *string        `json:"category_id"`
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	ImageURL    *string        `json:"image_url"`
	Price       *int64         `json:"price"`
	Currency    *string        `json:"currency"`
	Variants    []menu.Variant `json:"variants"`
	IsAvailable *bool          `json:"is_available"`
	SortOrder   *int           `json:"sort_order"`
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		requireClaim("categories.view", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			categories, err := a.menu.ListCategories(r.Context(), p.TenantID)
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			if categories == nil {
				categories = []menu.Category{}
			}
			writeData(w, http.StatusOK, map[string]any{"categories": categories})
		})(w, r)
	case http.MethodPost:
		requireClaim("categories.create", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			var req createCategoryRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			category, err := a.menu.CreateCategory(r.Context(), p.TenantID, req.Name, req.Description, req.SortOrder)
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusCreated, category)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/menu/categories/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		requireClaim("categories.edit", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			var req updateCategoryRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			category, err := a.menu.UpdateCategory(r.Context(), p.TenantID, id, menu.CategoryUpdate{
				Name:        req.Name,
				Description: req.Description,
				SortOrder:   req.SortOrder,
				IsActive:    req.IsActive,
			})
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, category)
		})(w, r)
	case http.MethodDelete:
		requireClaim("categories.delete", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			if err := a.menu.DeleteCategory(r.Context(), p.TenantID, id); err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, map[string]any{"deleted": true})
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		requireClaim("products.view", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			products, err := a.menu.ListProducts(r.Context(), p.TenantID, r.URL.Query().Get("category_id"))
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			if products == nil {
				products = []menu.Product{}
			}
			writeData(w, http.StatusOK, map[string]any{"products": products})
		})(w, r)
	case http.MethodPost:
		requireClaim("products.create", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			var req productRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			product, err := a.menu.CreateProduct(r.Context(), p.TenantID, menu.Product{
				CategoryID:  req.CategoryID,
				Name:        req.Name,
				Description: req.Description,
				ImageURL:    req.ImageURL,
				Price:       req.Price,
				Currency:    req.Currency,
				Variants:    req.Variants,
				SortOrder:   req.SortOrder,
			})
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusCreated, product)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProductByID(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/menu/products/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		requireClaim("products.view", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			product, err := a.menu.GetProduct(r.Context(), p.TenantID, id)
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, product)
		})(w, r)
	case http.MethodPut:
		requireClaim("products.edit", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			var req updateProductRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			product, err := a.menu.UpdateProduct(r.Context(), p.TenantID, id, menu.ProductUpdate{
				CategoryID:  req.CategoryID,
				Name:        req.Name,
				Description: req.Description,
				ImageURL:    req.ImageURL,
				Price:       req.Price,
				Currency:    req.Currency,
				Variants:    req.Variants,
				IsAvailable: req.IsAvailable,
				SortOrder:   req.SortOrder,
			})
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, product)
		})(w, r)
	case http.MethodDelete:
		requireClaim("products.delete", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			if err := a.menu.DeleteProduct(r.Context(), p.TenantID, id); err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, map[string]any{"deleted": true})
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

package httpapi

import (
	"net/http"

	"menuqr.org/internal/menu"
)

type placeOrderRequest struct {
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	TableNumber   string           `json:"table_number"`
	Currency      string           `json:"currency"`
	Notes         string           `json:"notes"`
	Items         []orderItemInput `json:"items"`
}

type orderItemInput struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func orderFromRequest(req placeOrderRequest) menu.Order {
	items := make([]menu.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, menu.OrderItem{
			ProductID: item.ProductID,
			Variant:   item.Variant,
			Quantity:  item.Quantity,
		})
	}
	return menu.Order{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		TableNumber:   req.TableNumber,
		Currency:      req.Currency,
		Notes:         req.Notes,
		Items:         items,
	}
}

func (a *API) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		requireClaim("orders.view", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			orders, err := a.menu.ListOrders(r.Context(), p.TenantID, r.URL.Query().Get("status"))
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			if orders == nil {
				orders = []menu.Order{}
			}
			writeData(w, http.StatusOK, map[string]any{"orders": orders})
		})(w, r)
	case http.MethodPost:
		// Staff-side order entry, e.g. phone orders.
		requireClaim("orders.create", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			var req placeOrderRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			order, err := a.menu.PlaceOrder(r.Context(), p.TenantID, orderFromRequest(req))
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusCreated, order)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/orders/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		requireClaim("orders.view", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			order, err := a.menu.GetOrder(r.Context(), p.TenantID, id)
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, order)
		})(w, r)
	case http.MethodPut:
		requireClaim("orders.edit", func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal(w, r)
			if !ok {
				return
			}
			var req updateOrderStatusRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			order, err := a.menu.UpdateOrderStatus(r.Context(), p.TenantID, id, req.Status)
			if err != nil {
				handleMenuError(w, r, err)
				return
			}
			writeData(w, http.StatusOK, order)
		})(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

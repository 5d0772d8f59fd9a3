package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/pkg/metrics"
)

// CheckoutAPI and OrderAPI are consumer-side views of the service layer.
type CheckoutAPI interface {
	PlaceOrder(ctx context.Context, userID string, address domain.ShippingAddress) (string, error)
}

type OrderAPI interface {
	Pay(ctx context.Context, userID, orderID string) (domain.OrderStatus, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

type OrderHandler struct {
	checkout CheckoutAPI
	orders   OrderAPI
	metrics  *metrics.ServerMetrics
	timeout  time.Duration
}

func NewOrderHandler(checkout CheckoutAPI, orders OrderAPI, m *metrics.ServerMetrics, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		orders:   orders,
		metrics:  m,
		timeout:  timeout,
	}
}

type PlaceOrderRequestDTO struct {
	FullName string `json:"fullname"`
	Phone    string `json:"phone"`
	Line1    string `json:"line1"`
	City     string `json:"city"`
	Province string `json:"province"`
	Postal   string `json:"postal"`
}

type PayOrderRequestDTO struct {
	OrderID string `json:"order_id"`
}

// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	orderID, err := h.checkout.PlaceOrder(ctx, userID, domain.ShippingAddress{
		FullName: req.FullName,
		Phone:    req.Phone,
		Line1:    req.Line1,
		City:     req.City,
		Province: req.Province,
		Postal:   req.Postal,
	})
	if err != nil {
		h.countCheckout("failure")
		handleServiceError(w, err)
		return
	}

	h.countCheckout("success")
	respondJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "order_id": orderID})
}

// GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// POST /api/orders/pay
func (h *OrderHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req PayOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order_id is required")
		return
	}

	status, err := h.orders.Pay(ctx, userID, req.OrderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "status": status})
}

func (h *OrderHandler) countCheckout(result string) {
	if h.metrics != nil {
		h.metrics.Checkouts.WithLabelValues(result).Inc()
	}
}

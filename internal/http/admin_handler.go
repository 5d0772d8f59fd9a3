package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/domain"
	"storefront/internal/service"
)

type AdminOrderAPI interface {
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	SalesStats(ctx context.Context) (*domain.SalesReport, error)
}

type AdminCatalogAPI interface {
	ListAll(ctx context.Context) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, input service.CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, input service.UpdateProductInput) (*domain.Product, error)
}

type AdminHandler struct {
	orders  AdminOrderAPI
	catalog AdminCatalogAPI
	timeout time.Duration
}

func NewAdminHandler(orders AdminOrderAPI, catalog AdminCatalogAPI, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		orders:  orders,
		catalog: catalog,
		timeout: timeout,
	}
}

type SetStatusRequestDTO struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// GET /api/admin/orders
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListAllOrders(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// PATCH /api/admin/orders
func (h *AdminHandler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SetStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OrderID == "" || req.Status == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order_id and status are required")
		return
	}

	if err := h.orders.SetStatus(ctx, req.OrderID, domain.OrderStatus(req.Status)); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GET /api/admin/stats
func (h *AdminHandler) SalesStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report, err := h.orders.SalesStats(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GET /api/admin/products
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListAll(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// POST /api/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var input service.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, err := h.catalog.CreateProduct(ctx, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "product": product})
}

// PUT /api/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var input service.UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "product": product})
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"storefront/pkg/metrics"
)

type RouterConfig struct {
	Cart           *CartHandler
	Catalog        *CatalogHandler
	Orders         *OrderHandler
	Admin          *AdminHandler
	Metrics        *metrics.ServerMetrics
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware(cfg.Metrics))
	r.Use(AuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Catalog.ListProducts)
			r.Get("/{slug}", cfg.Catalog.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Cart.GetCart)
			r.Post("/", cfg.Cart.AddItem)
			r.Patch("/", cfg.Cart.UpdateQuantity)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", cfg.Orders.ListOrders)
			r.Post("/", cfg.Orders.PlaceOrder)
			r.Post("/pay", cfg.Orders.PayOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/orders", cfg.Admin.ListOrders)
			r.Patch("/orders", cfg.Admin.SetOrderStatus)
			r.Get("/stats", cfg.Admin.SalesStats)
			r.Route("/products", func(r chi.Router) {
				r.Get("/", cfg.Admin.ListProducts)
				r.Post("/", cfg.Admin.CreateProduct)
				r.Put("/{id}", cfg.Admin.UpdateProduct)
			})
		})
	})

	return r
}

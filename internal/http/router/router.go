package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rogerio-castellano/stationery-tracker/internal/http/handlers"
	mw "github.com/rogerio-castellano/stationery-tracker/internal/http/middleware"
	rl "github.com/rogerio-castellano/stationery-tracker/internal/http/rate_limiter"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/rogerio-castellano/stationery-tracker/docs"
)

// NewRouter wires every endpoint of s. A nil limiter disables rate limiting.
func NewRouter(s *handlers.Server, limiter *rl.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logger)
	r.Use(chimw.Recoverer)
	if limiter != nil {
		r.Use(mw.RateLimit(limiter))
	}

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/products", func(r chi.Router) {
		r.Post("/", s.CreateProductHandler)
		r.Get("/", s.GetProductsHandler)
		r.Get("/search", s.FilterProductsHandler)
		r.Post("/import", s.ImportProductsHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetProductByIDHandler)
			r.Put("/", s.UpdateProductHandler)
			r.Delete("/", s.DeleteProductHandler)
			r.Post("/adjust", s.AdjustQuantityHandler)
			r.Get("/availability", s.AvailabilityHandler)
			r.Get("/movements", s.GetMovementsHandler)
			r.Get("/movements/export", s.ExportMovementsHandler)
			r.Post("/alerts", s.EvaluateAlertHandler)
			r.Get("/alerts", s.GetProductAlertsHandler)
		})
	})
	r.Get("/stock/low", s.GetLowStockHandler)
	r.Get("/alerts", s.GetAlertsHandler)

	r.Route("/sales", func(r chi.Router) {
		r.Post("/", s.CreateSaleHandler)
		r.Get("/", s.GetSalesHandler)
		r.Post("/availability", s.SaleAvailabilityHandler)
		r.Get("/{id}", s.GetSaleHandler)
		r.Put("/{id}", s.UpdateSaleHandler)
		r.Delete("/{id}", s.DeleteSaleHandler)
		r.Post("/{id}/payments", s.AddSalePaymentHandler)
		r.Get("/{id}/payments", s.GetSalePaymentsHandler)
		r.Get("/{id}/receipt", s.GetReceiptHandler)
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Post("/", s.CreateSupplierHandler)
		r.Get("/", s.GetSuppliersHandler)
		r.Get("/{id}", s.GetSupplierHandler)
		r.Put("/{id}", s.UpdateSupplierHandler)
		r.Delete("/{id}", s.DeleteSupplierHandler)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", s.CreateOrderHandler)
		r.Get("/", s.GetOrdersHandler)
		r.Get("/{id}", s.GetOrderHandler)
		r.Put("/{id}/status", s.UpdateOrderStatusHandler)
		r.Delete("/{id}", s.DeleteOrderHandler)
	})

	r.Route("/invoices", func(r chi.Router) {
		r.Post("/", s.CreateInvoiceHandler)
		r.Get("/", s.GetInvoicesHandler)
		r.Post("/{id}/payments", s.PayInvoiceHandler)
	})

	r.Route("/backups", func(r chi.Router) {
		r.Get("/", s.GetBackupsHandler)
		r.Post("/", s.CreateBackupHandler)
		r.Get("/status", s.GetBackupStatusHandler)
		r.Delete("/prune", s.PruneBackupsHandler)
		r.Get("/scheduler", s.GetSchedulerHandler)
		r.Post("/scheduler/start", s.StartSchedulerHandler)
		r.Post("/scheduler/stop", s.StopSchedulerHandler)
	})

	r.Get("/metrics/dashboard", s.GetDashboardMetricsHandler)
	return r
}

package handlers

import (
	"context"

	"github.com/rogerio-castellano/stationery-tracker/internal/backup"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/rogerio-castellano/stationery-tracker/internal/service"
)

// Server groups the dependencies the HTTP handlers work with.
type Server struct {
	Ledger    *service.LedgerService
	Sales     *service.SaleService
	Suppliers *service.SupplierService
	Metrics   repo.MetricsRepository

	Backups       *backup.Service
	Scheduler     *backup.Scheduler
	RetentionDays int

	// BaseContext outlives single requests. The scheduler loop started through
	// the API runs on it.
	BaseContext context.Context
}

func (s *Server) baseContext() context.Context {
	if s.BaseContext != nil {
		return s.BaseContext
	}
	return context.Background()
}

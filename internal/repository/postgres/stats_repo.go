package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"travelbill/internal/domain"
	"travelbill/internal/port"
)

type statsRepo struct {
	db *sqlx.DB
}

// NewStatsRepo creates a new PostgreSQL-backed StatsRepository.
func NewStatsRepo(db *sqlx.DB) port.StatsRepository {
	return &statsRepo{db: db}
}

const invoiceStatsSelect = `SELECT
	COUNT(*) AS total_invoices,
	COUNT(CASE WHEN status = 'draft' THEN 1 END) AS draft,
	COUNT(CASE WHEN status = 'issued' THEN 1 END) AS issued,
	COUNT(CASE WHEN status = 'cancelled' THEN 1 END) AS cancelled,
	COUNT(CASE WHEN document_kind = 'tax_invoice' THEN 1 END) AS tax_invoices,
	COUNT(CASE WHEN document_kind = 'proforma' THEN 1 END) AS proformas,
	COALESCE(SUM(grand_total) FILTER (WHERE status <> 'cancelled'), 0) AS billed,
	COALESCE(SUM(tax_total) FILTER (WHERE status <> 'cancelled'), 0) AS tax_collected,
	COALESCE(SUM(service_charges) FILTER (WHERE status <> 'cancelled'), 0) AS service_charges
FROM invoices `

const serviceTypeStatsSelect = `SELECT
	service_type,
	COUNT(*) AS invoices,
	COALESCE(SUM(grand_total) FILTER (WHERE status <> 'cancelled'), 0) AS billed
FROM invoices `

func (r *statsRepo) GetInvoiceStats(ctx context.Context, tenantID uuid.UUID, filters domain.InvoiceFilters) (*domain.InvoiceStats, error) {
	where, args := buildInvoiceWhere(tenantID, filters)

	var stats domain.InvoiceStats
	if err := r.db.GetContext(ctx, &stats, invoiceStatsSelect+where, args...); err != nil {
		return nil, fmt.Errorf("statsRepo.GetInvoiceStats totals: %w", err)
	}

	var rows []domain.CategoryStats
	if err := r.db.SelectContext(ctx, &rows,
		serviceTypeStatsSelect+where+" GROUP BY service_type ORDER BY service_type", args...); err != nil {
		return nil, fmt.Errorf("statsRepo.GetInvoiceStats service types: %w", err)
	}
	stats.ByCategory = rows

	return &stats, nil
}

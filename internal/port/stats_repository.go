package port

import (
	"context"

	"github.com/google/uuid"

	"travelbill/internal/domain"
)

// StatsRepository provides aggregate statistics queries.
type StatsRepository interface {
	// GetInvoiceStats returns tenant totals with ByCategory holding one row
	// per stored service type.
	GetInvoiceStats(ctx context.Context, tenantID uuid.UUID, filters domain.InvoiceFilters) (*domain.InvoiceStats, error)
}

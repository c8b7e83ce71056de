package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"travelbill/internal/domain"
)

// InvoiceRepository defines the contract for invoice persistence.
// All tenant-facing queries take tenantID to enforce isolation at the data layer.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, tenantID uuid.UUID, filters domain.InvoiceFilters, offset, limit int) ([]domain.Invoice, int, error)
	UpdateTotals(ctx context.Context, inv *domain.Invoice) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.InvoiceStatus) error
	SetDocumentKey(ctx context.Context, tenantID, id uuid.UUID, key string) error
	// ScanAll walks every tenant's invoices in id order, starting after afterID.
	ScanAll(ctx context.Context, afterID uuid.UUID, limit int) ([]domain.Invoice, error)
}

// InvoiceSequence hands out invoice numbers. Next atomically increments and
// returns the counter for one tenant and calendar day, starting at 1.
type InvoiceSequence interface {
	Next(ctx context.Context, tenantID uuid.UUID, day time.Time) (int64, error)
}

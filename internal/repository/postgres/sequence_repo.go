package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"travelbill/internal/port"
)

type sequenceRepo struct {
	db *sqlx.DB
}

// NewSequenceRepo creates a PostgreSQL-backed InvoiceSequence. The counter row
// is created and incremented in one statement, so concurrent callers for the
// same tenant and day serialize on the row lock.
func NewSequenceRepo(db *sqlx.DB) port.InvoiceSequence {
	return &sequenceRepo{db: db}
}

func (r *sequenceRepo) Next(ctx context.Context, tenantID uuid.UUID, day time.Time) (int64, error) {
	var value int64
	err := r.db.GetContext(ctx, &value,
		`INSERT INTO invoice_sequences (tenant_id, seq_date, last_value, updated_at)
		 VALUES ($1, $2, 1, NOW())
		 ON CONFLICT (tenant_id, seq_date) DO UPDATE
		 SET last_value = invoice_sequences.last_value + 1, updated_at = NOW()
		 RETURNING last_value`,
		tenantID, day.UTC().Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("sequenceRepo.Next: %w", err)
	}
	return value, nil
}

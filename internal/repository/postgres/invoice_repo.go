package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"travelbill/internal/domain"
	"travelbill/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	query := `INSERT INTO invoices (
		id, tenant_id, invoice_number, invoice_date, service_type, currency,
		status, document_kind, customer_name, customer_email, customer_gstin,
		subtotal, tax_pct, tax_total, service_pct, service_charges, grand_total,
		line_items, metadata, terms, document_key,
		created_by, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10, $11,
		$12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21,
		$22, $23, $24
	)`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.TenantID, inv.InvoiceNumber, inv.InvoiceDate, inv.ServiceType, inv.Currency,
		inv.Status, inv.DocumentKind, inv.CustomerName, inv.CustomerEmail, inv.CustomerGSTIN,
		inv.Subtotal, inv.TaxPct, inv.TaxTotal, inv.ServicePct, inv.ServiceCharges, inv.GrandTotal,
		inv.LineItems, inv.Metadata, inv.Terms, inv.DocumentKey,
		inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "invoice_number") {
			return domain.ErrDuplicateInvoiceNumber
		}
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv,
		"SELECT * FROM invoices WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, tenantID uuid.UUID, filters domain.InvoiceFilters, offset, limit int) ([]domain.Invoice, int, error) {
	where, args := buildInvoiceWhere(tenantID, filters)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT * FROM invoices %s
		ORDER BY invoice_date DESC, invoice_number DESC LIMIT $%d OFFSET $%d`, where, n+1, n+2)
	args = append(args, limit, offset)

	var invoices []domain.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) UpdateTotals(ctx context.Context, inv *domain.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET
			subtotal = $1, tax_pct = $2, tax_total = $3,
			service_pct = $4, service_charges = $5, grand_total = $6,
			updated_at = $7
		 WHERE id = $8 AND tenant_id = $9`,
		inv.Subtotal, inv.TaxPct, inv.TaxTotal,
		inv.ServicePct, inv.ServiceCharges, inv.GrandTotal,
		inv.UpdatedAt, inv.ID, inv.TenantID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateTotals: %w", err)
	}
	return expectOneRow(result, "invoiceRepo.UpdateTotals")
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.InvoiceStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4",
		status, time.Now().UTC(), id, tenantID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateStatus: %w", err)
	}
	return expectOneRow(result, "invoiceRepo.UpdateStatus")
}

func (r *invoiceRepo) SetDocumentKey(ctx context.Context, tenantID, id uuid.UUID, key string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE invoices SET document_key = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4",
		key, time.Now().UTC(), id, tenantID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.SetDocumentKey: %w", err)
	}
	return expectOneRow(result, "invoiceRepo.SetDocumentKey")
}

func (r *invoiceRepo) ScanAll(ctx context.Context, afterID uuid.UUID, limit int) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.SelectContext(ctx, &invoices,
		"SELECT * FROM invoices WHERE id > $1 ORDER BY id LIMIT $2", afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ScanAll: %w", err)
	}
	return invoices, nil
}

func expectOneRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

// buildInvoiceWhere constructs the WHERE clause for invoice listings.
// It returns the clause string (starting with "WHERE") and the positional arguments.
func buildInvoiceWhere(tenantID uuid.UUID, filters domain.InvoiceFilters) (clause string, args []interface{}) {
	args = []interface{}{tenantID}
	conds := []string{"tenant_id = $1"}
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filters.ServiceType != "" {
		add("service_type = $%d", filters.ServiceType)
	}
	if filters.Status != "" {
		add("status = $%d", filters.Status)
	}
	if filters.DocumentKind != "" {
		add("document_kind = $%d", filters.DocumentKind)
	}
	if filters.From != nil {
		add("invoice_date >= $%d", *filters.From)
	}
	if filters.To != nil {
		add("invoice_date <= $%d", *filters.To)
	}
	if s := strings.TrimSpace(filters.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(invoice_number ILIKE $%d OR customer_name ILIKE $%d)", len(args), len(args)))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"travelbill/internal/billing"
)

// Invoice is one stored invoice row. The header totals are a cache of the
// line-item computation and may be stale for rows written by older clients.
type Invoice struct {
	ID             uuid.UUID           `db:"id" json:"id"`
	TenantID       uuid.UUID           `db:"tenant_id" json:"tenant_id"`
	InvoiceNumber  string              `db:"invoice_number" json:"invoice_number"`
	InvoiceDate    time.Time           `db:"invoice_date" json:"invoice_date"`
	ServiceType    string              `db:"service_type" json:"service_type"`
	Currency       string              `db:"currency" json:"currency"`
	Status         InvoiceStatus       `db:"status" json:"status"`
	DocumentKind   DocumentKind        `db:"document_kind" json:"document_kind"`
	CustomerName   string              `db:"customer_name" json:"customer_name"`
	CustomerEmail  string              `db:"customer_email" json:"customer_email"`
	CustomerGSTIN  string              `db:"customer_gstin" json:"customer_gstin"`
	Subtotal       decimal.Decimal     `db:"subtotal" json:"subtotal"`
	TaxPct         decimal.NullDecimal `db:"tax_pct" json:"tax_pct"`
	TaxTotal       decimal.Decimal     `db:"tax_total" json:"tax_total"`
	ServicePct     decimal.NullDecimal `db:"service_pct" json:"service_pct"`
	ServiceCharges decimal.Decimal     `db:"service_charges" json:"service_charges"`
	GrandTotal     decimal.Decimal     `db:"grand_total" json:"grand_total"`
	LineItems      json.RawMessage     `db:"line_items" json:"line_items"`
	Metadata       json.RawMessage     `db:"metadata" json:"metadata"`
	Terms          string              `db:"terms" json:"terms"`
	DocumentKey    string              `db:"document_key" json:"document_key,omitempty"`
	CreatedBy      uuid.UUID           `db:"created_by" json:"created_by"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// HeaderRecord exposes the row in the shape the billing engine reads.
// Metadata is parsed; a malformed blob becomes an empty object.
func (i *Invoice) HeaderRecord() billing.Record {
	meta := billing.ParseRecord(i.Metadata)
	if meta == nil {
		meta = billing.Record{}
	}
	rec := billing.Record{
		"invoiceNumber":  i.InvoiceNumber,
		"serviceType":    i.ServiceType,
		"currency":       i.Currency,
		"status":         string(i.Status),
		"documentKind":   string(i.DocumentKind),
		"subtotal":       i.Subtotal,
		"taxTotal":       i.TaxTotal,
		"serviceCharges": i.ServiceCharges,
		"grandTotal":     i.GrandTotal,
		"metadata":       map[string]any(meta),
		"terms":          i.Terms,
	}
	if i.TaxPct.Valid {
		rec["taxPct"] = i.TaxPct.Decimal
	}
	if i.ServicePct.Valid {
		rec["servicePct"] = i.ServicePct.Decimal
	}
	return rec
}

// ItemRecords parses the stored line items; unparsable data yields none.
func (i *Invoice) ItemRecords() []billing.Record {
	return billing.ParseItems(i.LineItems)
}

// ApplyTotals overwrites the cached header totals.
func (i *Invoice) ApplyTotals(t billing.InvoiceTotals) {
	i.Subtotal = t.Subtotal.Decimal
	i.TaxTotal = t.TaxAmt.Decimal
	i.ServiceCharges = t.SvcAmt.Decimal
	i.GrandTotal = t.Total.Decimal
	i.TaxPct = nullRate(t.TaxPct)
	i.ServicePct = nullRate(t.SvcPct)
}

// TotalsDiffer reports whether the cached header differs from t.
func (i *Invoice) TotalsDiffer(t billing.InvoiceTotals) bool {
	return !i.Subtotal.Equal(t.Subtotal.Decimal) ||
		!i.TaxTotal.Equal(t.TaxAmt.Decimal) ||
		!i.ServiceCharges.Equal(t.SvcAmt.Decimal) ||
		!i.GrandTotal.Equal(t.Total.Decimal)
}

func nullRate(r *billing.Rate) decimal.NullDecimal {
	if r == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(r.Decimal)
}

// InvoiceView is an invoice together with its recomputed breakdown.
type InvoiceView struct {
	*Invoice
	Breakdown billing.Breakdown `json:"breakdown"`
}

// InvoiceFilters narrows invoice listings and exports.
type InvoiceFilters struct {
	ServiceType  string
	Status       InvoiceStatus
	DocumentKind DocumentKind
	From         *time.Time
	To           *time.Time
	Search       string
}

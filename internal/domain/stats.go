package domain

import "github.com/shopspring/decimal"

// InvoiceStats aggregates a tenant's invoices. Amounts are sums of the cached
// header totals and exclude cancelled invoices.
type InvoiceStats struct {
	TotalInvoices  int             `db:"total_invoices" json:"total_invoices"`
	Draft          int             `db:"draft" json:"draft"`
	Issued         int             `db:"issued" json:"issued"`
	Cancelled      int             `db:"cancelled" json:"cancelled"`
	TaxInvoices    int             `db:"tax_invoices" json:"tax_invoices"`
	Proformas      int             `db:"proformas" json:"proformas"`
	Billed         decimal.Decimal `db:"billed" json:"billed"`
	TaxCollected   decimal.Decimal `db:"tax_collected" json:"tax_collected"`
	ServiceCharges decimal.Decimal `db:"service_charges" json:"service_charges"`
	ByCategory     []CategoryStats `db:"-" json:"by_category"`
}

// CategoryStats is one row of the per-service breakdown. The repository
// fills it per stored service type; the service folds those into canonical
// categories.
type CategoryStats struct {
	Category string          `db:"service_type" json:"category"`
	Invoices int             `db:"invoices" json:"invoices"`
	Billed   decimal.Decimal `db:"billed" json:"billed"`
}

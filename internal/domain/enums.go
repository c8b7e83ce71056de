package domain

// UserRole is the role carried in access token claims.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleAccountant UserRole = "accountant"
	RoleViewer     UserRole = "viewer"
)

// CanIssueInvoices reports whether the role may create, publish and email invoices.
func (r UserRole) CanIssueInvoices() bool {
	return r == RoleAdmin || r == RoleAccountant
}

// InvoiceStatus represents the lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// ValidInvoiceStatuses lists every accepted status.
var ValidInvoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusDraft:     true,
	InvoiceStatusIssued:    true,
	InvoiceStatusCancelled: true,
}

// DocumentKind is the document an invoice renders as.
type DocumentKind string

const (
	DocumentKindTaxInvoice DocumentKind = "tax_invoice"
	DocumentKindProforma   DocumentKind = "proforma"
)

// ValidDocumentKinds lists every accepted document kind.
var ValidDocumentKinds = map[DocumentKind]bool{
	DocumentKindTaxInvoice: true,
	DocumentKindProforma:   true,
}

// ExportFormat is a tabular export format.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ContentType returns the MIME type of the export format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatCSV:
		return "text/csv; charset=utf-8"
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

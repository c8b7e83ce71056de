package port

import "travelbill/internal/domain"

// DocumentRenderer turns a computed invoice view into a printable document.
type DocumentRenderer interface {
	Render(view *domain.InvoiceView) ([]byte, error)
}

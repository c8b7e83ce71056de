package port

import "context"

// InvoiceEmail carries what the customer needs to fetch a published invoice.
type InvoiceEmail struct {
	ToEmail       string
	ToName        string
	InvoiceNumber string
	DocumentTitle string
	Amount        string
	Currency      string
	DownloadURL   string
}

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	SendInvoiceEmail(ctx context.Context, msg InvoiceEmail) error
}

package domain

import "errors"

var (
	ErrNotFound                = errors.New("resource not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrInsufficientRole        = errors.New("insufficient role for this action")
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrInvalidInvoice          = errors.New("invalid invoice")
	ErrNoLineItems             = errors.New("invoice has no line items")
	ErrDuplicateInvoiceNumber  = errors.New("invoice number already exists for this tenant")
	ErrInvoiceCancelled        = errors.New("invoice is cancelled")
	ErrMissingRecipient        = errors.New("no recipient email for invoice")
	ErrUploadFailed            = errors.New("document upload to storage failed")
	ErrEmailDeliveryFailed     = errors.New("email delivery failed")
	ErrExportTooLarge          = errors.New("export exceeds maximum allowed rows")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
)

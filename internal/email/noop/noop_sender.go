package noop

import (
	"context"

	"github.com/rs/zerolog"

	"travelbill/internal/port"
)

type noopSender struct{}

// NewNoopSender creates an EmailSender that only logs the download link.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendInvoiceEmail(ctx context.Context, msg port.InvoiceEmail) error {
	zerolog.Ctx(ctx).Info().
		Str("to", msg.ToEmail).
		Str("invoice_number", msg.InvoiceNumber).
		Str("url", msg.DownloadURL).
		Msg("noop email: invoice link")
	return nil
}

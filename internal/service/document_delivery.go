package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"travelbill/internal/csvexport"
	"travelbill/internal/domain"
	"travelbill/internal/port"
)

func (s *invoiceService) RenderPDF(ctx context.Context, tenantID, id uuid.UUID) ([]byte, *domain.InvoiceView, error) {
	view, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.renderer.Render(view)
	if err != nil {
		return nil, nil, fmt.Errorf("invoice.RenderPDF: %w", err)
	}
	return out, view, nil
}

// DocumentKey returns the object key of an invoice's published PDF.
func DocumentKey(tenantID uuid.UUID, invoiceNumber string) string {
	return fmt.Sprintf("invoices/%s/%s.pdf", tenantID, csvexport.SanitizeFilename(invoiceNumber))
}

func (s *invoiceService) PublishPDF(ctx context.Context, tenantID, id uuid.UUID, role domain.UserRole) (*PublishedDocument, error) {
	if !role.CanIssueInvoices() {
		return nil, domain.ErrInsufficientRole
	}
	doc, _, err := s.publish(ctx, tenantID, id)
	return doc, err
}

func (s *invoiceService) publish(ctx context.Context, tenantID, id uuid.UUID) (*PublishedDocument, *domain.InvoiceView, error) {
	out, view, err := s.RenderPDF(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if view.Status == domain.InvoiceStatusCancelled {
		return nil, nil, domain.ErrInvoiceCancelled
	}

	key := DocumentKey(tenantID, view.InvoiceNumber)
	filename := csvexport.SanitizeFilename(view.InvoiceNumber) + ".pdf"
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:             s.s3.Bucket,
		Key:                key,
		Body:               bytes.NewReader(out),
		ContentType:        "application/pdf",
		ContentDisposition: fmt.Sprintf("inline; filename=%q", filename),
		Size:               int64(len(out)),
		Metadata: map[string]string{
			"invoice-id": view.ID.String(),
			"document":   view.Breakdown.Document.Title(),
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("invoice.Publish: %w: %v", domain.ErrUploadFailed, err)
	}

	if err := s.repo.SetDocumentKey(ctx, tenantID, id, key); err != nil {
		return nil, nil, fmt.Errorf("invoice.Publish set key: %w", err)
	}
	view.DocumentKey = key
	if view.Status == domain.InvoiceStatusDraft {
		if err := s.repo.UpdateStatus(ctx, tenantID, id, domain.InvoiceStatusIssued); err != nil {
			return nil, nil, fmt.Errorf("invoice.Publish status: %w", err)
		}
		view.Status = domain.InvoiceStatusIssued
	}

	url, err := s.storage.GetPresignedURL(ctx, s.s3.Bucket, key, s.s3.PresignExpiry)
	if err != nil {
		return nil, nil, fmt.Errorf("invoice.Publish presign: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("invoice_id", view.ID.String()).
		Str("key", key).
		Bool("proforma", view.Breakdown.Document.IsProforma).
		Msg("invoice published")

	return &PublishedDocument{
		Key:       key,
		URL:       url,
		ExpiresAt: s.now().Add(time.Duration(s.s3.PresignExpiry) * time.Second),
	}, view, nil
}

func (s *invoiceService) EmailInvoice(ctx context.Context, tenantID, id uuid.UUID, role domain.UserRole, to string) (*PublishedDocument, error) {
	if !role.CanIssueInvoices() {
		return nil, domain.ErrInsufficientRole
	}
	inv, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	recipient, ok := lo.Coalesce(strings.TrimSpace(to), strings.TrimSpace(inv.CustomerEmail))
	if !ok {
		return nil, domain.ErrMissingRecipient
	}

	doc, view, err := s.publish(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	err = s.emailer.SendInvoiceEmail(ctx, port.InvoiceEmail{
		ToEmail:       recipient,
		ToName:        view.CustomerName,
		InvoiceNumber: view.InvoiceNumber,
		DocumentTitle: view.Breakdown.Document.Title(),
		Amount:        view.Breakdown.Totals.Total.String(),
		Currency:      view.Currency,
		DownloadURL:   doc.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("invoice.EmailInvoice: %w: %v", domain.ErrEmailDeliveryFailed, err)
	}
	return doc, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"travelbill/internal/billing"
	"travelbill/internal/config"
	"travelbill/internal/domain"
	"travelbill/internal/port"
)

// CreateInvoiceInput is the DTO for creating an invoice.
type CreateInvoiceInput struct {
	TenantID      uuid.UUID
	CreatedBy     uuid.UUID
	Role          domain.UserRole
	InvoiceDate   time.Time
	ServiceType   string
	DocumentKind  domain.DocumentKind
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerGSTIN string
	LineItems     []map[string]any
	Metadata      map[string]any
	Terms         string
}

// ExportInput is the DTO for tabular exports.
type ExportInput struct {
	TenantID uuid.UUID
	Filters  domain.InvoiceFilters
	Format   domain.ExportFormat
}

// PublishedDocument is a rendered invoice stored in object storage.
type PublishedDocument struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InvoiceService defines the invoicing contract.
type InvoiceService interface {
	Create(ctx context.Context, input *CreateInvoiceInput) (*domain.InvoiceView, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.InvoiceView, error)
	List(ctx context.Context, tenantID uuid.UUID, filters domain.InvoiceFilters, offset, limit int) ([]domain.InvoiceView, int, error)
	Cancel(ctx context.Context, tenantID, id uuid.UUID, role domain.UserRole) error
	Export(ctx context.Context, input ExportInput, w io.Writer) error
	RenderPDF(ctx context.Context, tenantID, id uuid.UUID) ([]byte, *domain.InvoiceView, error)
	PublishPDF(ctx context.Context, tenantID, id uuid.UUID, role domain.UserRole) (*PublishedDocument, error)
	EmailInvoice(ctx context.Context, tenantID, id uuid.UUID, role domain.UserRole, to string) (*PublishedDocument, error)
	Reconcile(ctx context.Context, tenantID, id uuid.UUID) (*domain.InvoiceView, bool, error)
	ReconcileAll(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error)
}

type invoiceService struct {
	repo     port.InvoiceRepository
	seq      port.InvoiceSequence
	storage  port.ObjectStorage
	emailer  port.EmailSender
	renderer port.DocumentRenderer
	engine   *billing.Engine
	billing  config.BillingConfig
	export   config.ExportConfig
	s3       *config.S3Config
	now      func() time.Time
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(
	repo port.InvoiceRepository,
	seq port.InvoiceSequence,
	storage port.ObjectStorage,
	emailer port.EmailSender,
	renderer port.DocumentRenderer,
	engine *billing.Engine,
	billingCfg config.BillingConfig,
	exportCfg config.ExportConfig,
	s3Cfg *config.S3Config,
) InvoiceService {
	return &invoiceService{
		repo:     repo,
		seq:      seq,
		storage:  storage,
		emailer:  emailer,
		renderer: renderer,
		engine:   engine,
		billing:  billingCfg,
		export:   exportCfg,
		s3:       s3Cfg,
		now:      time.Now,
	}
}

func (s *invoiceService) Create(ctx context.Context, input *CreateInvoiceInput) (*domain.InvoiceView, error) {
	if !input.Role.CanIssueInvoices() {
		return nil, domain.ErrInsufficientRole
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", domain.ErrInvalidInvoice)
	}
	kind := input.DocumentKind
	if kind == "" {
		kind = domain.DocumentKindTaxInvoice
	}
	if !domain.ValidDocumentKinds[kind] {
		return nil, fmt.Errorf("%w: unknown document kind %q", domain.ErrInvalidInvoice, kind)
	}

	items := billing.ParseItems(input.LineItems)
	if len(items) == 0 {
		return nil, domain.ErrNoLineItems
	}

	date := input.InvoiceDate
	if date.IsZero() {
		date = s.now()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	lines := s.engine.Price(input.ServiceType, items)
	stored := lo.Map(lines, func(l billing.Line, _ int) map[string]any {
		return lo.Assign(map[string]any(l.Fields), map[string]any{
			"category":   string(l.Category),
			"line_total": l.Amounts.Total,
		})
	})
	lineItems, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("invoice.Create marshal line items: %w", err)
	}
	metadata, err := json.Marshal(lo.Ternary(input.Metadata == nil, map[string]any{}, input.Metadata))
	if err != nil {
		return nil, fmt.Errorf("invoice.Create marshal metadata: %w", err)
	}

	n, err := s.seq.Next(ctx, input.TenantID, date)
	if err != nil {
		return nil, fmt.Errorf("invoice.Create sequence: %w", err)
	}

	inv := &domain.Invoice{
		ID:            uuid.New(),
		TenantID:      input.TenantID,
		InvoiceNumber: s.formatNumber(kind, date, n),
		InvoiceDate:   date,
		ServiceType:   strings.TrimSpace(input.ServiceType),
		Currency:      lo.Ternary(input.Currency == "", s.billing.Currency, strings.ToUpper(input.Currency)),
		Status:        domain.InvoiceStatusDraft,
		DocumentKind:  kind,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerEmail: strings.TrimSpace(input.CustomerEmail),
		CustomerGSTIN: strings.ToUpper(strings.TrimSpace(input.CustomerGSTIN)),
		LineItems:     lineItems,
		Metadata:      metadata,
		Terms:         input.Terms,
		CreatedBy:     input.CreatedBy,
	}
	inv.ApplyTotals(billing.Summarize(billing.LineAmountsOf(lines)))

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("invoice.Create: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("invoice_id", inv.ID.String()).
		Str("invoice_number", inv.InvoiceNumber).
		Str("grand_total", inv.GrandTotal.StringFixed(2)).
		Int("lines", len(lines)).
		Msg("invoice created")

	return s.view(ctx, inv), nil
}

// formatNumber renders {prefix}-{YYYYMMDD}-{seq:04d}.
func (s *invoiceService) formatNumber(kind domain.DocumentKind, date time.Time, n int64) string {
	prefix := s.billing.InvoicePrefix
	if kind == domain.DocumentKindProforma {
		prefix = s.billing.ProformaPrefix
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("20060102"), n)
}

func (s *invoiceService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.InvoiceView, error) {
	inv, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, inv), nil
}

func (s *invoiceService) List(ctx context.Context, tenantID uuid.UUID, filters domain.InvoiceFilters, offset, limit int) ([]domain.InvoiceView, int, error) {
	invoices, total, err := s.repo.List(ctx, tenantID, filters, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("invoice.List: %w", err)
	}
	return s.views(ctx, invoices), total, nil
}

func (s *invoiceService) Cancel(ctx context.Context, tenantID, id uuid.UUID, role domain.UserRole) error {
	if !role.CanIssueInvoices() {
		return domain.ErrInsufficientRole
	}
	inv, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if inv.Status == domain.InvoiceStatusCancelled {
		return domain.ErrInvoiceCancelled
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, id, domain.InvoiceStatusCancelled); err != nil {
		return fmt.Errorf("invoice.Cancel: %w", err)
	}
	if inv.DocumentKey == "" || s.storage == nil {
		return nil
	}

	// The cancellation is already committed; a leftover PDF is only logged.
	logger := zerolog.Ctx(ctx).With().Str("invoice_id", id.String()).Str("key", inv.DocumentKey).Logger()
	if err := s.storage.Delete(ctx, s.s3.Bucket, inv.DocumentKey); err != nil {
		logger.Warn().Err(err).Msg("failed to delete published document")
		return nil
	}
	if err := s.repo.SetDocumentKey(ctx, tenantID, id, ""); err != nil {
		logger.Warn().Err(err).Msg("failed to clear document key")
	}
	return nil
}

// view runs the engine over a stored invoice. Header caches that drifted
// past the tolerance are logged; the returned totals are already corrected.
func (s *invoiceService) view(ctx context.Context, inv *domain.Invoice) *domain.InvoiceView {
	bd := s.engine.Breakdown(inv.HeaderRecord(), inv.ItemRecords())
	if bd.Totals.Corrected {
		zerolog.Ctx(ctx).Warn().
			Str("invoice_id", inv.ID.String()).
			Str("invoice_number", inv.InvoiceNumber).
			Str("drift", bd.Totals.Drift.StringFixed(2)).
			Str("subtotal", bd.Totals.Subtotal.String()).
			Msg("invoice header totals drifted from line items")
	}
	return &domain.InvoiceView{Invoice: inv, Breakdown: bd}
}

func (s *invoiceService) views(ctx context.Context, invoices []domain.Invoice) []domain.InvoiceView {
	return lo.Map(invoices, func(_ domain.Invoice, i int) domain.InvoiceView {
		return *s.view(ctx, &invoices[i])
	})
}

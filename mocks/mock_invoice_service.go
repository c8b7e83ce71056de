package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"travelbill/internal/domain"
	"travelbill/internal/service"
)

// MockInvoiceService is a mock implementation of service.InvoiceService.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, input *service.CreateInvoiceInput) (*domain.InvoiceView, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceView), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.InvoiceView, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceView), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, tenantID uuid.UUID, filters domain.InvoiceFilters, offset, limit int) ([]domain.InvoiceView, int, error) {
	args := m.Called(ctx, tenantID, filters, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.InvoiceView), args.Int(1), args.Error(2)
}

func (m *MockInvoiceService) Cancel(ctx context.Context, tenantID, id uuid.UUID, role domain.UserRole) error {
	args := m.Called(ctx, tenantID, id, role)
	return args.Error(0)
}

// Export writes the first return value, when it is a string, to w.
func (m *MockInvoiceService) Export(ctx context.Context, input service.ExportInput, w io.Writer) error {
	args := m.Called(ctx, input, w)
	if s, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, s)
	}
	return args.Error(1)
}

func (m *MockInvoiceService) RenderPDF(ctx context.Context, tenantID, id uuid.UUID) ([]byte, *domain.InvoiceView, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(*domain.InvoiceView), args.Error(2)
}

func (m *MockInvoiceService) PublishPDF(ctx context.Context, tenantID, id uuid.UUID, role domain.UserRole) (*service.PublishedDocument, error) {
	args := m.Called(ctx, tenantID, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublishedDocument), args.Error(1)
}

func (m *MockInvoiceService) EmailInvoice(ctx context.Context, tenantID, id uuid.UUID, role domain.UserRole, to string) (*service.PublishedDocument, error) {
	args := m.Called(ctx, tenantID, id, role, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublishedDocument), args.Error(1)
}

func (m *MockInvoiceService) Reconcile(ctx context.Context, tenantID, id uuid.UUID) (*domain.InvoiceView, bool, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.InvoiceView), args.Bool(1), args.Error(2)
}

func (m *MockInvoiceService) ReconcileAll(ctx context.Context, opts service.ReconcileOptions) (*service.ReconcileReport, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileReport), args.Error(1)
}

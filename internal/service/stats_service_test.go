package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"travelbill/internal/domain"
	"travelbill/internal/service"
	"travelbill/mocks"
)

func TestStatsService_GetStats_FoldsServiceTypes(t *testing.T) {
	repo := new(mocks.MockStatsRepository)
	svc := service.NewStatsService(repo)
	tenantID := uuid.New()
	filters := domain.InvoiceFilters{Status: domain.InvoiceStatusIssued}

	repo.On("GetInvoiceStats", mock.Anything, tenantID, filters).Return(&domain.InvoiceStats{
		TotalInvoices: 6,
		Issued:        6,
		Billed:        decimal.RequireFromString("56240"),
		ByCategory: []domain.CategoryStats{
			{Category: "Air Ticket", Invoices: 2, Billed: decimal.RequireFromString("11940")},
			{Category: "Flight", Invoices: 1, Billed: decimal.RequireFromString("4270")},
			{Category: "gift items", Invoices: 1, Billed: decimal.RequireFromString("500")},
			{Category: "Hotel", Invoices: 1, Billed: decimal.RequireFromString("32240")},
			{Category: "something odd", Invoices: 1, Billed: decimal.RequireFromString("7290")},
		},
	}, nil)

	stats, err := svc.GetStats(context.Background(), tenantID, filters)
	require.NoError(t, err)

	require.Len(t, stats.ByCategory, 4)
	assert.Equal(t, "Flight", stats.ByCategory[0].Category)
	assert.Equal(t, 3, stats.ByCategory[0].Invoices)
	assert.Equal(t, "16210", stats.ByCategory[0].Billed.String())
	assert.Equal(t, "Hotel", stats.ByCategory[1].Category)
	assert.Equal(t, "Gift Items", stats.ByCategory[2].Category)
	assert.Equal(t, "Other", stats.ByCategory[3].Category)
	assert.Equal(t, 6, stats.TotalInvoices)
	repo.AssertExpectations(t)
}

func TestStatsService_GetStats_Empty(t *testing.T) {
	repo := new(mocks.MockStatsRepository)
	svc := service.NewStatsService(repo)
	tenantID := uuid.New()

	repo.On("GetInvoiceStats", mock.Anything, tenantID, domain.InvoiceFilters{}).Return(&domain.InvoiceStats{}, nil)

	stats, err := svc.GetStats(context.Background(), tenantID, domain.InvoiceFilters{})
	require.NoError(t, err)
	assert.NotNil(t, stats.ByCategory)
	assert.Empty(t, stats.ByCategory)
}

func TestStatsService_GetStats_RepoError(t *testing.T) {
	repo := new(mocks.MockStatsRepository)
	svc := service.NewStatsService(repo)

	repo.On("GetInvoiceStats", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := svc.GetStats(context.Background(), uuid.New(), domain.InvoiceFilters{})
	assert.Error(t, err)
}

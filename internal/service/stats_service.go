package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"travelbill/internal/billing"
	"travelbill/internal/domain"
	"travelbill/internal/port"
)

// StatsService provides aggregate statistics.
type StatsService interface {
	GetStats(ctx context.Context, tenantID uuid.UUID, filters domain.InvoiceFilters) (*domain.InvoiceStats, error)
}

type statsService struct {
	statsRepo port.StatsRepository
}

// NewStatsService creates a new StatsService implementation.
func NewStatsService(statsRepo port.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo}
}

// GetStats folds the stored free-text service types into canonical
// categories, listed in category declaration order.
func (s *statsService) GetStats(ctx context.Context, tenantID uuid.UUID, filters domain.InvoiceFilters) (*domain.InvoiceStats, error) {
	stats, err := s.statsRepo.GetInvoiceStats(ctx, tenantID, filters)
	if err != nil {
		return nil, err
	}

	grouped := lo.GroupBy(stats.ByCategory, func(row domain.CategoryStats) billing.ServiceCategory {
		return billing.ClassifyService(row.Category)
	})
	folded := make([]domain.CategoryStats, 0, len(grouped))
	for _, category := range billing.Categories {
		rows, ok := grouped[category]
		if !ok {
			continue
		}
		folded = append(folded, domain.CategoryStats{
			Category: category.Label(),
			Invoices: lo.SumBy(rows, func(r domain.CategoryStats) int { return r.Invoices }),
			Billed: lo.Reduce(rows, func(acc decimal.Decimal, r domain.CategoryStats, _ int) decimal.Decimal {
				return acc.Add(r.Billed)
			}, decimal.Zero),
		})
	}
	stats.ByCategory = folded
	return stats, nil
}

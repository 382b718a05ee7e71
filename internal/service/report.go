package service

import (
	"context"
	"fmt"

	"github.com/vietanh2810/raffle-api/internal/domain"
)

type ReportService struct {
	purchases PurchaseRepository
}

func NewReportService(purchases PurchaseRepository) *ReportService {
	return &ReportService{
		purchases: purchases,
	}
}

// CreatorStats aggregates tickets and revenue per creator code over the whole ledger.
func (s *ReportService) CreatorStats(ctx context.Context) ([]domain.CreatorStat, error) {
	rows, err := s.purchases.CreatorPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.purchases.CreatorPurchases -> %w", err)
	}

	return domain.AggregateCreatorStats(rows), nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/repository/dao"
)

var ErrRoundClosed = dao.ErrRoundClosed

type PurchaseDAO interface {
	Insert(ctx context.Context, purchase dao.Purchase, now time.Time) (dao.Purchase, error)
	FindByRoundID(ctx context.Context, roundID uint) ([]dao.Purchase, error)
	SumQtyByRoundID(ctx context.Context, roundID uint) (int, error)
	SumQtyByRoundIDAndUsername(ctx context.Context, roundID uint, username string) (int, error)
	SumQtyByRoundIDs(ctx context.Context, roundIDs []uint) (map[uint]int, error)
	SumQtyByUsernameAndRoundIDs(ctx context.Context, username string, roundIDs []uint) (map[string]int, error)
	FindWithCreatorCode(ctx context.Context) ([]dao.CreatorPurchase, error)
}

type PurchaseRepository struct {
	dao PurchaseDAO
}

func NewPurchaseRepository(dao PurchaseDAO) *PurchaseRepository {
	return &PurchaseRepository{
		dao: dao,
	}
}

func (r *PurchaseRepository) Record(ctx context.Context, purchase domain.Purchase, now time.Time) (domain.Purchase, error) {
	created, err := r.dao.Insert(ctx, dao.Purchase{
		RaffleID:    purchase.RaffleID,
		RoundID:     purchase.RoundID,
		Username:    purchase.Username,
		Qty:         purchase.Qty,
		CreatorCode: purchase.CreatorCode,
	}, now)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return purchaseDaoToDomain(created), nil
}

func (r *PurchaseRepository) FindByRoundID(ctx context.Context, roundID uint) ([]domain.Purchase, error) {
	found, err := r.dao.FindByRoundID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByRoundID -> %w", err)
	}

	return purchasesDaoToDomain(found), nil
}

func (r *PurchaseRepository) TotalTickets(ctx context.Context, roundID uint) (int, error) {
	total, err := r.dao.SumQtyByRoundID(ctx, roundID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.SumQtyByRoundID -> %w", err)
	}

	return total, nil
}

func (r *PurchaseRepository) TicketsForUser(ctx context.Context, roundID uint, username string) (int, error) {
	total, err := r.dao.SumQtyByRoundIDAndUsername(ctx, roundID, username)
	if err != nil {
		return 0, fmt.Errorf("r.dao.SumQtyByRoundIDAndUsername -> %w", err)
	}

	return total, nil
}

func (r *PurchaseRepository) TotalTicketsByRound(ctx context.Context, roundIDs []uint) (map[uint]int, error) {
	totals, err := r.dao.SumQtyByRoundIDs(ctx, roundIDs)
	if err != nil {
		return nil, fmt.Errorf("r.dao.SumQtyByRoundIDs -> %w", err)
	}

	return totals, nil
}

func (r *PurchaseRepository) TicketsForUserByRaffle(ctx context.Context, username string, roundIDs []uint) (map[string]int, error) {
	totals, err := r.dao.SumQtyByUsernameAndRoundIDs(ctx, username, roundIDs)
	if err != nil {
		return nil, fmt.Errorf("r.dao.SumQtyByUsernameAndRoundIDs -> %w", err)
	}

	return totals, nil
}

func (r *PurchaseRepository) CreatorPurchases(ctx context.Context) ([]domain.CreatorPurchase, error) {
	rows, err := r.dao.FindWithCreatorCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindWithCreatorCode -> %w", err)
	}

	purchases := make([]domain.CreatorPurchase, len(rows))
	for i, row := range rows {
		purchases[i] = domain.CreatorPurchase{
			CreatorCode: row.CreatorCode,
			RaffleID:    row.RaffleID,
			Qty:         row.Qty,
			TicketPrice: row.TicketPrice,
		}
	}

	return purchases, nil
}

func purchaseDaoToDomain(p dao.Purchase) domain.Purchase {
	return domain.Purchase{
		ID:          p.ID,
		RaffleID:    p.RaffleID,
		RoundID:     p.RoundID,
		Username:    p.Username,
		Qty:         p.Qty,
		CreatorCode: p.CreatorCode,
		CreatedAt:   p.CreatedAt,
	}
}

func purchasesDaoToDomain(purchases []dao.Purchase) []domain.Purchase {
	out := make([]domain.Purchase, len(purchases))
	for i, p := range purchases {
		out[i] = purchaseDaoToDomain(p)
	}

	return out
}

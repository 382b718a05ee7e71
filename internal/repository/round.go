package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/repository/dao"
)

var (
	ErrRoundNotFound        = dao.ErrRoundNotFound
	ErrOpenRoundExists      = dao.ErrOpenRoundExists
	ErrRoundAlreadyResolved = dao.ErrRoundAlreadyResolved
	ErrRoundNotDue          = dao.ErrRoundNotDue
)

// DrawFunc resolves a round from its ordered purchases.
type DrawFunc func(purchases []domain.Purchase) (domain.Resolution, error)

type RoundDAO interface {
	Insert(ctx context.Context, round dao.Round) (dao.Round, error)
	FindByID(ctx context.Context, id uint) (dao.Round, error)
	FindOpenByRaffleID(ctx context.Context, raffleID string) (dao.Round, error)
	FindLatestResolved(ctx context.Context, raffleID string) (dao.Round, error)
	FindByRaffleID(ctx context.Context, raffleID string, limit int) ([]dao.Round, error)
	Resolve(ctx context.Context, roundID uint, now time.Time, draw dao.DrawFunc) (dao.Round, error)
}

type RoundRepository struct {
	dao RoundDAO
}

func NewRoundRepository(dao RoundDAO) *RoundRepository {
	return &RoundRepository{
		dao: dao,
	}
}

func (r *RoundRepository) Create(ctx context.Context, round domain.Round) (domain.Round, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(round))
	if err != nil {
		return domain.Round{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RoundRepository) FindByID(ctx context.Context, id uint) (domain.Round, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Round{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RoundRepository) FindOpenByRaffleID(ctx context.Context, raffleID string) (domain.Round, error) {
	found, err := r.dao.FindOpenByRaffleID(ctx, raffleID)
	if err != nil {
		return domain.Round{}, fmt.Errorf("r.dao.FindOpenByRaffleID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RoundRepository) FindLatestResolved(ctx context.Context, raffleID string) (domain.Round, error) {
	found, err := r.dao.FindLatestResolved(ctx, raffleID)
	if err != nil {
		return domain.Round{}, fmt.Errorf("r.dao.FindLatestResolved -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RoundRepository) FindByRaffleID(ctx context.Context, raffleID string, limit int) ([]domain.Round, error) {
	found, err := r.dao.FindByRaffleID(ctx, raffleID, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByRaffleID -> %w", err)
	}

	rounds := make([]domain.Round, len(found))
	for i, round := range found {
		rounds[i] = r.daoToDomain(round)
	}

	return rounds, nil
}

// Resolve hands the round's ordered purchases to draw and stores the result. The
// returned round is the stored state even when err is ErrRoundAlreadyResolved.
func (r *RoundRepository) Resolve(ctx context.Context, roundID uint, now time.Time, draw DrawFunc) (domain.Round, error) {
	resolved, err := r.dao.Resolve(ctx, roundID, now, func(purchases []dao.Purchase) (*int, *int, error) {
		resolution, err := draw(purchasesDaoToDomain(purchases))
		if err != nil {
			return nil, nil, err
		}

		return resolution.WinningTicket, resolution.TotalAtDraw, nil
	})
	if err != nil {
		return r.daoToDomain(resolved), fmt.Errorf("r.dao.Resolve -> %w", err)
	}

	return r.daoToDomain(resolved), nil
}

func (r *RoundRepository) domainToDao(round domain.Round) dao.Round {
	return dao.Round{
		ID:            round.ID,
		RaffleID:      round.RaffleID,
		Deadline:      round.Deadline,
		Status:        string(round.Status),
		WinningTicket: round.WinningTicket,
		TotalAtDraw:   round.TotalAtDraw,
		ResolvedAt:    round.ResolvedAt,
		CreatedAt:     round.CreatedAt,
	}
}

func (r *RoundRepository) daoToDomain(round dao.Round) domain.Round {
	return domain.Round{
		ID:            round.ID,
		RaffleID:      round.RaffleID,
		Deadline:      round.Deadline,
		Status:        domain.RoundStatus(round.Status),
		WinningTicket: round.WinningTicket,
		TotalAtDraw:   round.TotalAtDraw,
		ResolvedAt:    round.ResolvedAt,
		CreatedAt:     round.CreatedAt,
	}
}

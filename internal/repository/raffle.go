package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/repository/dao"
)

var (
	ErrRaffleNotFound = dao.ErrRaffleNotFound
	ErrRaffleExists   = dao.ErrRaffleExists
)

type RaffleDAO interface {
	Insert(ctx context.Context, raffle dao.Raffle) (dao.Raffle, error)
	Update(ctx context.Context, raffle dao.Raffle) (dao.Raffle, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (dao.Raffle, error)
	FindAll(ctx context.Context) ([]dao.Raffle, error)
}

type RaffleRepository struct {
	dao RaffleDAO
}

func NewRaffleRepository(dao RaffleDAO) *RaffleRepository {
	return &RaffleRepository{
		dao: dao,
	}
}

func (r *RaffleRepository) Create(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(raffle))
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RaffleRepository) Update(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(raffle))
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *RaffleRepository) Delete(ctx context.Context, id string) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *RaffleRepository) FindByID(ctx context.Context, id string) (domain.Raffle, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RaffleRepository) FindAll(ctx context.Context) ([]domain.Raffle, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	raffles := make([]domain.Raffle, len(found))
	for i, raffle := range found {
		raffles[i] = r.daoToDomain(raffle)
	}

	return raffles, nil
}

func (r *RaffleRepository) domainToDao(raffle domain.Raffle) dao.Raffle {
	return dao.Raffle{
		ID:          raffle.ID,
		Title:       raffle.Title,
		Prize:       raffle.Prize,
		TicketPrice: raffle.TicketPrice,
		DurationMs:  raffle.Duration.Milliseconds(),
		Image:       raffle.Image,
		Description: raffle.Description,
		CreatedAt:   raffle.CreatedAt,
		UpdatedAt:   raffle.UpdatedAt,
	}
}

func (r *RaffleRepository) daoToDomain(raffle dao.Raffle) domain.Raffle {
	return domain.Raffle{
		ID:          raffle.ID,
		Title:       raffle.Title,
		Prize:       raffle.Prize,
		TicketPrice: raffle.TicketPrice,
		Duration:    time.Duration(raffle.DurationMs) * time.Millisecond,
		Image:       raffle.Image,
		Description: raffle.Description,
		CreatedAt:   raffle.CreatedAt,
		UpdatedAt:   raffle.UpdatedAt,
	}
}

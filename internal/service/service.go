package service

import (
	"context"
	"errors"
	"time"

	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/repository"
)

var (
	ErrRaffleNotFound       = repository.ErrRaffleNotFound
	ErrRaffleExists         = repository.ErrRaffleExists
	ErrRoundNotFound        = repository.ErrRoundNotFound
	ErrRoundClosed          = repository.ErrRoundClosed
	ErrRoundAlreadyResolved = repository.ErrRoundAlreadyResolved
	ErrInvalidInput         = errors.New("invalid input")
	ErrLedgerInconsistent   = errors.New("winning ticket is outside the ledger range")
)

// Clock returns the current time. A nil Clock means time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}

	return c()
}

type RaffleRepository interface {
	Create(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
	Update(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (domain.Raffle, error)
	FindAll(ctx context.Context) ([]domain.Raffle, error)
}

type RoundRepository interface {
	Create(ctx context.Context, round domain.Round) (domain.Round, error)
	FindByID(ctx context.Context, id uint) (domain.Round, error)
	FindOpenByRaffleID(ctx context.Context, raffleID string) (domain.Round, error)
	FindLatestResolved(ctx context.Context, raffleID string) (domain.Round, error)
	FindByRaffleID(ctx context.Context, raffleID string, limit int) ([]domain.Round, error)
	Resolve(ctx context.Context, roundID uint, now time.Time, draw repository.DrawFunc) (domain.Round, error)
}

type PurchaseRepository interface {
	Record(ctx context.Context, purchase domain.Purchase, now time.Time) (domain.Purchase, error)
	FindByRoundID(ctx context.Context, roundID uint) ([]domain.Purchase, error)
	TotalTickets(ctx context.Context, roundID uint) (int, error)
	TicketsForUser(ctx context.Context, roundID uint, username string) (int, error)
	TotalTicketsByRound(ctx context.Context, roundIDs []uint) (map[uint]int, error)
	TicketsForUserByRaffle(ctx context.Context, username string, roundIDs []uint) (map[string]int, error)
	CreatorPurchases(ctx context.Context) ([]domain.CreatorPurchase, error)
}

type Drawer interface {
	DrawWinner(total int) (*int, error)
}

// RoundPublisher receives round events after they are committed.
type RoundPublisher interface {
	Publish(event domain.RoundEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.RoundEvent) {}

package service

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietanh2810/raffle-api/internal/domain"
)

const defaultRoundHistory = 20

type RaffleService struct {
	raffles   RaffleRepository
	rounds    RoundRepository
	purchases PurchaseRepository
	lifecycle *LifecycleService
	clock     Clock

	roundHistory int
}

func NewRaffleService(raffles RaffleRepository, rounds RoundRepository, purchases PurchaseRepository, lifecycle *LifecycleService, clock Clock) *RaffleService {
	return &RaffleService{
		raffles:      raffles,
		rounds:       rounds,
		purchases:    purchases,
		lifecycle:    lifecycle,
		clock:        clock,
		roundHistory: defaultRoundHistory,
	}
}

// SetRoundHistory sets how many rounds ListRounds returns when no limit is given.
func (s *RaffleService) SetRoundHistory(n int) {
	if n > 0 {
		s.roundHistory = n
	}
}

// ListRaffles returns every raffle with its current round. Due rounds are advanced first.
// MyTickets is only filled when username is set.
func (s *RaffleService) ListRaffles(ctx context.Context, username string) ([]domain.RaffleSummary, error) {
	raffles, err := s.raffles.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.raffles.FindAll -> %w", err)
	}

	summaries := make([]domain.RaffleSummary, len(raffles))
	roundIDs := make([]uint, 0, len(raffles))
	for i, raffle := range raffles {
		summaries[i] = domain.RaffleSummary{Raffle: raffle}

		current, err := s.currentRound(ctx, raffle)
		if errors.Is(err, ErrRoundNotFound) {
			// No round to show until an advancement succeeds; the other raffles still list.
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries[i].CurrentRound = current
		summaries[i].RoundOutcome = current.Outcome(s.clock.now(), false)
		roundIDs = append(roundIDs, current.ID)
	}
	if len(roundIDs) == 0 {
		return summaries, nil
	}

	totals, err := s.purchases.TotalTicketsByRound(ctx, roundIDs)
	if err != nil {
		return nil, fmt.Errorf("s.purchases.TotalTicketsByRound -> %w", err)
	}

	var mine map[string]int
	if username != "" {
		mine, err = s.purchases.TicketsForUserByRaffle(ctx, username, roundIDs)
		if err != nil {
			return nil, fmt.Errorf("s.purchases.TicketsForUserByRaffle -> %w", err)
		}
	}

	for i := range summaries {
		if summaries[i].CurrentRound.ID == 0 {
			continue
		}
		summaries[i].TotalTickets = totals[summaries[i].CurrentRound.ID]
		summaries[i].MyTickets = mine[summaries[i].Raffle.ID]
	}

	return summaries, nil
}

// GetRaffleState returns what a participant sees on a raffle page: the current round, their
// holdings and odds, and the last drawn round with its winner.
func (s *RaffleService) GetRaffleState(ctx context.Context, raffleID, username string) (domain.RaffleState, error) {
	raffle, err := s.raffles.FindByID(ctx, raffleID)
	if err != nil {
		return domain.RaffleState{}, fmt.Errorf("s.raffles.FindByID -> %w", err)
	}

	current, err := s.currentRound(ctx, raffle)
	if err != nil {
		return domain.RaffleState{}, err
	}

	total, err := s.purchases.TotalTickets(ctx, current.ID)
	if err != nil {
		return domain.RaffleState{}, fmt.Errorf("s.purchases.TotalTickets -> %w", err)
	}

	mine := 0
	if username != "" {
		mine, err = s.purchases.TicketsForUser(ctx, current.ID, username)
		if err != nil {
			return domain.RaffleState{}, fmt.Errorf("s.purchases.TicketsForUser -> %w", err)
		}
	}

	state := domain.RaffleState{
		RaffleSummary: domain.RaffleSummary{
			Raffle:       raffle,
			CurrentRound: current,
			RoundOutcome: current.Outcome(s.clock.now(), false),
			TotalTickets: total,
			MyTickets:    mine,
		},
		Odds: domain.Odds(mine, total),
	}

	last, err := s.rounds.FindLatestResolved(ctx, raffle.ID)
	if errors.Is(err, ErrRoundNotFound) {
		return state, nil
	}
	if err != nil {
		return domain.RaffleState{}, fmt.Errorf("s.rounds.FindLatestResolved -> %w", err)
	}

	result, err := s.roundResult(ctx, last)
	if err != nil {
		return domain.RaffleState{}, err
	}
	state.LastRound = &result
	if username != "" {
		won := result.Outcome == domain.OutcomeWon && result.Winner == username
		state.LastWon = &won
	}

	return state, nil
}

// GetRound returns one round with its outcome. A round found OPEN past its deadline is
// advanced first; if that fails it is returned as draw_in_progress.
func (s *RaffleService) GetRound(ctx context.Context, roundID uint) (domain.RoundResult, error) {
	round, err := s.rounds.FindByID(ctx, roundID)
	if err != nil {
		return domain.RoundResult{}, fmt.Errorf("s.rounds.FindByID -> %w", err)
	}

	if s.lifecycle.DueForResolution(round) {
		raffle, err := s.raffles.FindByID(ctx, round.RaffleID)
		if err != nil {
			return domain.RoundResult{}, fmt.Errorf("s.raffles.FindByID -> %w", err)
		}
		if _, err := s.lifecycle.AdvanceIfDue(ctx, raffle); err != nil {
			logLazyAdvanceFailure(raffle.ID, err)
		}
		if round, err = s.rounds.FindByID(ctx, roundID); err != nil {
			return domain.RoundResult{}, fmt.Errorf("s.rounds.FindByID -> %w", err)
		}
	}

	return s.roundResult(ctx, round)
}

// ListRounds returns the latest rounds of a raffle, newest first.
func (s *RaffleService) ListRounds(ctx context.Context, raffleID string, limit int) ([]domain.RoundResult, error) {
	raffle, err := s.raffles.FindByID(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("s.raffles.FindByID -> %w", err)
	}
	if _, err := s.lifecycle.AdvanceIfDue(ctx, raffle); err != nil {
		logLazyAdvanceFailure(raffle.ID, err)
	}

	if limit <= 0 {
		limit = s.roundHistory
	}
	rounds, err := s.rounds.FindByRaffleID(ctx, raffle.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("s.rounds.FindByRaffleID -> %w", err)
	}

	results := make([]domain.RoundResult, len(rounds))
	for i, round := range rounds {
		if results[i], err = s.roundResult(ctx, round); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// currentRound advances raffle if its round is due. Reads never fail on a failed draw: the
// due round is served instead and shows as draw_in_progress until a later advance succeeds.
func (s *RaffleService) currentRound(ctx context.Context, raffle domain.Raffle) (domain.Round, error) {
	current, err := s.lifecycle.AdvanceIfDue(ctx, raffle)
	if err == nil {
		return current, nil
	}
	logLazyAdvanceFailure(raffle.ID, err)

	open, err := s.rounds.FindOpenByRaffleID(ctx, raffle.ID)
	if err != nil {
		return domain.Round{}, fmt.Errorf("s.rounds.FindOpenByRaffleID -> %w", err)
	}

	return open, nil
}

func logLazyAdvanceFailure(raffleID string, err error) {
	zap.L().Warn("lazy advance failed, serving the due round",
		zap.String("raffle_id", raffleID),
		zap.Error(err))
}

func (s *RaffleService) roundResult(ctx context.Context, round domain.Round) (domain.RoundResult, error) {
	if round.IsOpen() || round.WinningTicket == nil {
		return domain.RoundResult{Round: round, Outcome: round.Outcome(s.clock.now(), false)}, nil
	}

	purchases, err := s.purchases.FindByRoundID(ctx, round.ID)
	if err != nil {
		return domain.RoundResult{}, fmt.Errorf("s.purchases.FindByRoundID -> %w", err)
	}

	winner, ok := domain.AttributeWinner(purchases, *round.WinningTicket)
	if !ok {
		zap.L().Error("winning ticket cannot be attributed",
			zap.Uint("round_id", round.ID),
			zap.Int("winning_ticket", *round.WinningTicket),
			zap.Int("ledger_total", domain.TotalQty(purchases)))
	}

	return domain.RoundResult{
		Round:   round,
		Outcome: round.Outcome(s.clock.now(), ok),
		Winner:  winner,
	}, nil
}

// CreateRaffle stores a new raffle and opens its first round. An empty ID is generated.
func (s *RaffleService) CreateRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	if raffle.ID == "" {
		raffle.ID = uuid.NewString()
	}
	if err := validation.Validate(raffle.ID, validation.Length(1, 64)); err != nil {
		return domain.Raffle{}, fmt.Errorf("%w: id: %v", ErrInvalidInput, err)
	}
	if err := raffle.Validate(); err != nil {
		return domain.Raffle{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, err := s.raffles.Create(ctx, raffle)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.raffles.Create -> %w", err)
	}

	if _, err := s.lifecycle.EnsureOpenRound(ctx, created); err != nil {
		return domain.Raffle{}, fmt.Errorf("s.lifecycle.EnsureOpenRound -> %w", err)
	}

	zap.L().Info("raffle created", zap.String("raffle_id", created.ID), zap.String("title", created.Title))

	return created, nil
}

// UpdateRaffle edits a raffle. A new duration applies from the next round on.
func (s *RaffleService) UpdateRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	if err := raffle.Validate(); err != nil {
		return domain.Raffle{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.raffles.Update(ctx, raffle)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.raffles.Update -> %w", err)
	}

	return updated, nil
}

// DeleteRaffle removes a raffle together with its rounds and purchases.
func (s *RaffleService) DeleteRaffle(ctx context.Context, raffleID string) error {
	if err := s.raffles.Delete(ctx, raffleID); err != nil {
		return fmt.Errorf("s.raffles.Delete -> %w", err)
	}

	zap.L().Info("raffle deleted", zap.String("raffle_id", raffleID))

	return nil
}

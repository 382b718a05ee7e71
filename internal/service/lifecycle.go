package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/repository"
)

const (
	// ensureAttempts bounds the re-reads after losing an open-round insert race.
	ensureAttempts = 3

	defaultTickParallelism = 4
)

// RaffleTick is the outcome of advancing one raffle.
type RaffleTick struct {
	RaffleID      string        `json:"raffle_id"`
	CurrentRound  *domain.Round `json:"current_round,omitempty"`
	ResolvedRound *domain.Round `json:"resolved_round,omitempty"`
	Error         string        `json:"error,omitempty"`
}

type TickReport struct {
	Processed int          `json:"processed"`
	Resolved  int          `json:"resolved"`
	Failed    int          `json:"failed"`
	Raffles   []RaffleTick `json:"raffles"`
}

// LifecycleService owns round transitions. Every OPEN round is created by EnsureOpenRound
// and every resolution goes through ResolveAndAdvance.
type LifecycleService struct {
	raffles     RaffleRepository
	rounds      RoundRepository
	drawer      Drawer
	events      RoundPublisher
	clock       Clock
	parallelism int
}

func NewLifecycleService(raffles RaffleRepository, rounds RoundRepository, drawer Drawer, events RoundPublisher, clock Clock) *LifecycleService {
	if events == nil {
		events = nopPublisher{}
	}

	return &LifecycleService{
		raffles:     raffles,
		rounds:      rounds,
		drawer:      drawer,
		events:      events,
		clock:       clock,
		parallelism: defaultTickParallelism,
	}
}

// SetTickParallelism bounds how many raffles AdvanceAll advances at once.
func (s *LifecycleService) SetTickParallelism(n int) {
	if n < 1 {
		n = 1
	}
	s.parallelism = n
}

// EnsureOpenRound returns the OPEN round of raffle, opening one if there is none. A lost
// insert race is not an error: the winner's round is read back and returned.
func (s *LifecycleService) EnsureOpenRound(ctx context.Context, raffle domain.Raffle) (domain.Round, error) {
	var lastErr error
	for attempt := 0; attempt < ensureAttempts; attempt++ {
		round, err := s.rounds.FindOpenByRaffleID(ctx, raffle.ID)
		if err == nil {
			return round, nil
		}
		if !errors.Is(err, repository.ErrRoundNotFound) {
			return domain.Round{}, fmt.Errorf("s.rounds.FindOpenByRaffleID -> %w", err)
		}

		created, err := s.rounds.Create(ctx, domain.NewRound(raffle, s.clock.now()))
		if err == nil {
			zap.L().Info("round opened",
				zap.String("raffle_id", raffle.ID),
				zap.Uint("round_id", created.ID),
				zap.Time("deadline", created.Deadline))
			s.events.Publish(domain.RoundEvent{
				Type:      domain.RoundOpened,
				RaffleID:  raffle.ID,
				Round:     created,
				Timestamp: s.clock.now(),
			})

			return created, nil
		}
		if !errors.Is(err, repository.ErrOpenRoundExists) {
			return domain.Round{}, fmt.Errorf("s.rounds.Create -> %w", err)
		}

		lastErr = err
		zap.L().Debug("open round created concurrently, reading it back",
			zap.String("raffle_id", raffle.ID),
			zap.Int("attempt", attempt+1))
	}

	return domain.Round{}, fmt.Errorf("ensure open round for raffle %s -> %w", raffle.ID, lastErr)
}

func (s *LifecycleService) DueForResolution(round domain.Round) bool {
	return round.DueAt(s.clock.now())
}

// ResolveAndAdvance draws round and makes sure its successor is open. It is safe to call
// again after a partial failure and safe to race: a round resolved by another caller is
// left untouched and only the successor is ensured. It returns the current OPEN round.
func (s *LifecycleService) ResolveAndAdvance(ctx context.Context, raffle domain.Raffle, round domain.Round) (domain.Round, error) {
	current, _, err := s.resolveAndAdvance(ctx, raffle, round)
	return current, err
}

// AdvanceIfDue is the single entry point for both the periodic trigger and lazy ticks on
// read paths. It returns the raffle's current OPEN round.
func (s *LifecycleService) AdvanceIfDue(ctx context.Context, raffle domain.Raffle) (domain.Round, error) {
	current, _, err := s.advance(ctx, raffle)
	return current, err
}

// AdvanceAll advances every raffle independently. A failing raffle is reported and does not
// stop the others; the returned error combines all per-raffle failures.
func (s *LifecycleService) AdvanceAll(ctx context.Context) (TickReport, error) {
	raffles, err := s.raffles.FindAll(ctx)
	if err != nil {
		return TickReport{}, fmt.Errorf("s.raffles.FindAll -> %w", err)
	}

	ticks := make([]RaffleTick, len(raffles))
	errs := make([]error, len(raffles))

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i, raffle := range raffles {
		i, raffle := i, raffle
		g.Go(func() error {
			ticks[i].RaffleID = raffle.ID

			current, resolved, err := s.advance(ctx, raffle)
			ticks[i].ResolvedRound = resolved
			if err != nil {
				errs[i] = fmt.Errorf("raffle %s -> %w", raffle.ID, err)
				ticks[i].Error = err.Error()
				return nil
			}

			ticks[i].CurrentRound = &current
			return nil
		})
	}
	_ = g.Wait()

	report := TickReport{Processed: len(raffles), Raffles: ticks}
	var combined error
	for i := range ticks {
		if errs[i] != nil {
			report.Failed++
			combined = multierr.Append(combined, errs[i])
		}
		if ticks[i].ResolvedRound != nil {
			report.Resolved++
		}
	}
	if combined != nil {
		zap.L().Warn("tick finished with failures",
			zap.Int("failed", report.Failed),
			zap.Error(combined))
	}

	return report, combined
}

func (s *LifecycleService) advance(ctx context.Context, raffle domain.Raffle) (domain.Round, *domain.Round, error) {
	round, err := s.EnsureOpenRound(ctx, raffle)
	if err != nil {
		return domain.Round{}, nil, err
	}
	if !s.DueForResolution(round) {
		return round, nil, nil
	}

	return s.resolveAndAdvance(ctx, raffle, round)
}

func (s *LifecycleService) resolveAndAdvance(ctx context.Context, raffle domain.Raffle, round domain.Round) (domain.Round, *domain.Round, error) {
	if round.RaffleID != raffle.ID {
		return domain.Round{}, nil, fmt.Errorf("round %d does not belong to raffle %s -> %w", round.ID, raffle.ID, ErrRoundNotFound)
	}

	// drawn stays nil when another caller resolved the round, so the draw is reported once.
	var drawn *domain.Round
	var winner string
	resolved, err := s.rounds.Resolve(ctx, round.ID, s.clock.now(), s.drawRound(&winner))
	switch {
	case err == nil:
		drawn = &resolved
		zap.L().Info("round resolved",
			zap.String("raffle_id", raffle.ID),
			zap.Uint("round_id", resolved.ID),
			zap.Intp("winning_ticket", resolved.WinningTicket),
			zap.Intp("total_at_draw", resolved.TotalAtDraw),
			zap.String("winner", winner))
		s.events.Publish(domain.RoundEvent{
			Type:      domain.RoundDrawn,
			RaffleID:  raffle.ID,
			Round:     resolved,
			Winner:    winner,
			Timestamp: s.clock.now(),
		})
	case errors.Is(err, repository.ErrRoundAlreadyResolved):
		zap.L().Debug("round already resolved by another caller",
			zap.String("raffle_id", raffle.ID),
			zap.Uint("round_id", round.ID))
	case errors.Is(err, repository.ErrRoundNotDue):
		return resolved, nil, nil
	default:
		return domain.Round{}, nil, fmt.Errorf("s.rounds.Resolve -> %w", err)
	}

	next, err := s.EnsureOpenRound(ctx, raffle)
	if err != nil {
		return domain.Round{}, drawn, err
	}

	return next, drawn, nil
}

// drawRound freezes the total from the ledger snapshot, draws a ticket and checks that it
// maps back to a buyer before anything is written.
func (s *LifecycleService) drawRound(winner *string) repository.DrawFunc {
	return func(purchases []domain.Purchase) (domain.Resolution, error) {
		total := domain.TotalQty(purchases)
		ticket, err := s.drawer.DrawWinner(total)
		if err != nil {
			return domain.Resolution{}, fmt.Errorf("s.drawer.DrawWinner -> %w", err)
		}
		if ticket == nil {
			return domain.Resolution{}, nil
		}

		username, ok := domain.AttributeWinner(purchases, *ticket)
		if !ok {
			zap.L().Error("drawn ticket does not map to a purchase",
				zap.Int("ticket", *ticket),
				zap.Int("total", total),
				zap.Int("purchases", len(purchases)))
			return domain.Resolution{}, ErrLedgerInconsistent
		}
		*winner = username

		return domain.Resolution{WinningTicket: ticket, TotalAtDraw: &total}, nil
	}
}

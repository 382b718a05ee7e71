package service

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/vietanh2810/raffle-api/internal/domain"
)

// maxTicketsPerPurchase caps a single purchase so running ticket numbers stay far from int overflow.
const maxTicketsPerPurchase = 10000

type BuyTicketsInput struct {
	RaffleID    string
	RoundID     *uint
	Username    string
	Qty         int
	CreatorCode string
}

func (in BuyTicketsInput) Validate() error {
	return validation.ValidateStruct(
		&in,
		validation.Field(&in.RaffleID, validation.Required),
		validation.Field(&in.Username, validation.Required, validation.Length(1, 64)),
		validation.Field(&in.Qty, validation.Required, validation.Min(1), validation.Max(maxTicketsPerPurchase)),
		validation.Field(&in.CreatorCode, validation.By(normalizedCreatorCodeLength)),
	)
}

// normalizedCreatorCodeLength checks the code as it will be stored, so surrounding
// whitespace never counts against the limit.
func normalizedCreatorCodeLength(value any) error {
	raw, _ := value.(string)
	code := domain.NormalizeCreatorCode(raw)
	if code == nil {
		return nil
	}

	return validation.Validate(*code, validation.Length(0, 32))
}

type LedgerService struct {
	raffles   RaffleRepository
	purchases PurchaseRepository
	lifecycle *LifecycleService
	clock     Clock
}

func NewLedgerService(raffles RaffleRepository, purchases PurchaseRepository, lifecycle *LifecycleService, clock Clock) *LedgerService {
	return &LedgerService{
		raffles:   raffles,
		purchases: purchases,
		lifecycle: lifecycle,
		clock:     clock,
	}
}

// BuyTickets appends a purchase to the raffle's current OPEN round, or to in.RoundID when set.
// Due rounds are advanced first so a purchase never lands in a round past its deadline.
func (s *LedgerService) BuyTickets(ctx context.Context, in BuyTicketsInput) (domain.Purchase, error) {
	if err := in.Validate(); err != nil {
		return domain.Purchase{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	raffle, err := s.raffles.FindByID(ctx, in.RaffleID)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("s.raffles.FindByID -> %w", err)
	}

	purchase, err := s.record(ctx, raffle, in)
	if errors.Is(err, ErrRoundClosed) && in.RoundID == nil {
		// The round closed between advancing and recording; the next one is open now.
		zap.L().Debug("round closed during purchase, retrying",
			zap.String("raffle_id", raffle.ID),
			zap.String("username", in.Username))
		purchase, err = s.record(ctx, raffle, in)
	}
	if err != nil {
		return domain.Purchase{}, err
	}

	zap.L().Info("tickets bought",
		zap.String("raffle_id", purchase.RaffleID),
		zap.Uint("round_id", purchase.RoundID),
		zap.String("username", purchase.Username),
		zap.Int("qty", purchase.Qty))

	return purchase, nil
}

func (s *LedgerService) record(ctx context.Context, raffle domain.Raffle, in BuyTicketsInput) (domain.Purchase, error) {
	current, err := s.lifecycle.AdvanceIfDue(ctx, raffle)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("s.lifecycle.AdvanceIfDue -> %w", err)
	}

	roundID := current.ID
	if in.RoundID != nil {
		roundID = *in.RoundID
	}

	purchase, err := s.purchases.Record(ctx, domain.Purchase{
		RaffleID:    raffle.ID,
		RoundID:     roundID,
		Username:    in.Username,
		Qty:         in.Qty,
		CreatorCode: domain.NormalizeCreatorCode(in.CreatorCode),
	}, s.clock.now())
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("s.purchases.Record -> %w", err)
	}

	return purchase, nil
}

func (s *LedgerService) TotalTickets(ctx context.Context, roundID uint) (int, error) {
	total, err := s.purchases.TotalTickets(ctx, roundID)
	if err != nil {
		return 0, fmt.Errorf("s.purchases.TotalTickets -> %w", err)
	}

	return total, nil
}

func (s *LedgerService) TicketsForUser(ctx context.Context, roundID uint, username string) (int, error) {
	if username == "" {
		return 0, nil
	}

	total, err := s.purchases.TicketsForUser(ctx, roundID, username)
	if err != nil {
		return 0, fmt.Errorf("s.purchases.TicketsForUser -> %w", err)
	}

	return total, nil
}

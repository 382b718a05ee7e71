package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	RoundStatusOpen     = "OPEN"
	RoundStatusResolved = "RESOLVED"

	// openRoundIndex allows one row per raffle with open_slot set. Resolved rounds carry a
	// NULL open_slot, and NULLs never collide in a unique index.
	openRoundIndex = "idx_rounds_one_open_per_raffle"
)

type Round struct {
	ID            uint       `gorm:"primaryKey"`
	RaffleID      string     `gorm:"size:64;not null;index;uniqueIndex:idx_rounds_one_open_per_raffle,priority:1"`
	OpenSlot      *bool      `gorm:"uniqueIndex:idx_rounds_one_open_per_raffle,priority:2"`
	Deadline      time.Time  `gorm:"not null;index"`
	Status        string     `gorm:"size:16;not null;index;check:chk_rounds_status,status IN ('OPEN','RESOLVED')"`
	WinningTicket *int       `gorm:"check:chk_rounds_winning_ticket,winning_ticket >= 1"`
	TotalAtDraw   *int       `gorm:"check:chk_rounds_total_at_draw,total_at_draw >= 0"`
	ResolvedAt    *time.Time
	Purchases     []Purchase `gorm:"foreignKey:RoundID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt     time.Time
}

// DrawFunc computes the winning ticket and the frozen total from the ordered purchases of
// a round. It runs inside the resolving transaction.
type DrawFunc func(purchases []Purchase) (winningTicket *int, totalAtDraw *int, err error)

type RoundDAO struct {
	db *gorm.DB
}

func NewRoundDAO(db *gorm.DB) *RoundDAO {
	return &RoundDAO{
		db: db,
	}
}

func (d *RoundDAO) Insert(ctx context.Context, round Round) (Round, error) {
	if round.Status == RoundStatusOpen {
		open := true
		round.OpenSlot = &open
	}

	result := d.db.WithContext(ctx).Create(&round)
	if result.Error != nil {
		if isUniqueViolation(result.Error, openRoundIndex) {
			return Round{}, ErrOpenRoundExists
		}

		return Round{}, result.Error
	}

	return round, nil
}

func (d *RoundDAO) FindByID(ctx context.Context, id uint) (Round, error) {
	var round Round

	result := d.db.WithContext(ctx).First(&round, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Round{}, ErrRoundNotFound
		}

		return Round{}, result.Error
	}

	return round, nil
}

func (d *RoundDAO) FindOpenByRaffleID(ctx context.Context, raffleID string) (Round, error) {
	var round Round

	result := d.db.WithContext(ctx).
		Where("raffle_id = ? AND status = ?", raffleID, RoundStatusOpen).
		First(&round)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Round{}, ErrRoundNotFound
		}

		return Round{}, result.Error
	}

	return round, nil
}

func (d *RoundDAO) FindLatestResolved(ctx context.Context, raffleID string) (Round, error) {
	var round Round

	result := d.db.WithContext(ctx).
		Where("raffle_id = ? AND status = ?", raffleID, RoundStatusResolved).
		Order("id DESC").
		Limit(1).
		Find(&round)
	if result.Error != nil {
		return Round{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Round{}, ErrRoundNotFound
	}

	return round, nil
}

func (d *RoundDAO) FindByRaffleID(ctx context.Context, raffleID string, limit int) ([]Round, error) {
	var rounds []Round

	result := d.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("id DESC").
		Limit(limit).
		Find(&rounds)
	if result.Error != nil {
		return nil, result.Error
	}

	return rounds, nil
}

// Resolve moves an OPEN, due round to RESOLVED exactly once. The round row stays locked
// while the ledger snapshot is read, so no purchase can land between the snapshot and the
// update. A round resolved by someone else yields ErrRoundAlreadyResolved together with
// its stored state.
func (d *RoundDAO) Resolve(ctx context.Context, roundID uint, now time.Time, draw DrawFunc) (Round, error) {
	var resolved Round

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var round Round
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&round, roundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoundNotFound
			}
			return err
		}

		resolved = round
		if round.Status != RoundStatusOpen {
			return ErrRoundAlreadyResolved
		}
		if now.Before(round.Deadline) {
			return ErrRoundNotDue
		}

		var purchases []Purchase
		if err := tx.Where("round_id = ?", roundID).Order("id ASC").Find(&purchases).Error; err != nil {
			return err
		}

		winningTicket, totalAtDraw, err := draw(purchases)
		if err != nil {
			return err
		}

		result := tx.Model(&Round{}).
			Where("id = ? AND status = ?", roundID, RoundStatusOpen).
			Updates(map[string]any{
				"status":         RoundStatusResolved,
				"open_slot":      nil,
				"winning_ticket": winningTicket,
				"total_at_draw":  totalAtDraw,
				"resolved_at":    now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRoundAlreadyResolved
		}

		resolved.Status = RoundStatusResolved
		resolved.OpenSlot = nil
		resolved.WinningTicket = winningTicket
		resolved.TotalAtDraw = totalAtDraw
		resolved.ResolvedAt = &now

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRoundAlreadyResolved) || errors.Is(err, ErrRoundNotDue) {
			return resolved, err
		}

		return Round{}, err
	}

	return resolved, nil
}

package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Purchase struct {
	ID          uint    `gorm:"primaryKey"`
	RaffleID    string  `gorm:"size:64;not null;index"`
	RoundID     uint    `gorm:"not null;index:idx_purchases_round_user,priority:1"`
	Username    string  `gorm:"size:64;not null;index:idx_purchases_round_user,priority:2"`
	Qty         int     `gorm:"not null;check:chk_purchases_qty,qty >= 1"`
	CreatorCode *string `gorm:"size:32;index"`
	CreatedAt   time.Time
}

// CreatorPurchase is a purchase carrying a creator code, joined with its raffle's price.
type CreatorPurchase struct {
	CreatorCode *string
	RaffleID    string
	Qty         int
	TicketPrice float64
}

type PurchaseDAO struct {
	db *gorm.DB
}

func NewPurchaseDAO(db *gorm.DB) *PurchaseDAO {
	return &PurchaseDAO{
		db: db,
	}
}

// Insert appends purchase to its round. The round row is locked for the duration of the
// insert, which keeps purchase IDs of a round in commit order and keeps inserts from
// racing a resolution.
func (d *PurchaseDAO) Insert(ctx context.Context, purchase Purchase, now time.Time) (Purchase, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var round Round
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&round, purchase.RoundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoundNotFound
			}
			return err
		}

		if purchase.RaffleID != "" && purchase.RaffleID != round.RaffleID {
			return ErrRoundNotFound
		}
		if round.Status != RoundStatusOpen || !now.Before(round.Deadline) {
			return ErrRoundClosed
		}

		purchase.RaffleID = round.RaffleID
		purchase.CreatedAt = now

		return tx.Create(&purchase).Error
	})
	if err != nil {
		return Purchase{}, err
	}

	return purchase, nil
}

func (d *PurchaseDAO) FindByRoundID(ctx context.Context, roundID uint) ([]Purchase, error) {
	var purchases []Purchase

	result := d.db.WithContext(ctx).
		Where("round_id = ?", roundID).
		Order("id ASC").
		Find(&purchases)
	if result.Error != nil {
		return nil, result.Error
	}

	return purchases, nil
}

func (d *PurchaseDAO) SumQtyByRoundID(ctx context.Context, roundID uint) (int, error) {
	var total int64

	result := d.db.WithContext(ctx).
		Model(&Purchase{}).
		Select("COALESCE(SUM(qty), 0)").
		Where("round_id = ?", roundID).
		Scan(&total)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(total), nil
}

func (d *PurchaseDAO) SumQtyByRoundIDAndUsername(ctx context.Context, roundID uint, username string) (int, error) {
	var total int64

	result := d.db.WithContext(ctx).
		Model(&Purchase{}).
		Select("COALESCE(SUM(qty), 0)").
		Where("round_id = ? AND username = ?", roundID, username).
		Scan(&total)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(total), nil
}

// SumQtyByRoundIDs returns the total quantity per round for roundIDs. Rounds without
// purchases are absent from the map.
func (d *PurchaseDAO) SumQtyByRoundIDs(ctx context.Context, roundIDs []uint) (map[uint]int, error) {
	totals := make(map[uint]int, len(roundIDs))
	if len(roundIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		RoundID uint
		Total   int64
	}
	result := d.db.WithContext(ctx).
		Model(&Purchase{}).
		Select("round_id, SUM(qty) AS total").
		Where("round_id IN ?", roundIDs).
		Group("round_id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	for _, row := range rows {
		totals[row.RoundID] = int(row.Total)
	}

	return totals, nil
}

// SumQtyByUsernameAndRoundIDs returns username's quantity per raffle across roundIDs.
func (d *PurchaseDAO) SumQtyByUsernameAndRoundIDs(ctx context.Context, username string, roundIDs []uint) (map[string]int, error) {
	totals := make(map[string]int)
	if username == "" || len(roundIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		RaffleID string
		Total    int64
	}
	result := d.db.WithContext(ctx).
		Model(&Purchase{}).
		Select("raffle_id, SUM(qty) AS total").
		Where("username = ? AND round_id IN ?", username, roundIDs).
		Group("raffle_id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	for _, row := range rows {
		totals[row.RaffleID] = int(row.Total)
	}

	return totals, nil
}

func (d *PurchaseDAO) FindWithCreatorCode(ctx context.Context) ([]CreatorPurchase, error) {
	var rows []CreatorPurchase

	result := d.db.WithContext(ctx).
		Table("purchases").
		Select("purchases.creator_code, purchases.raffle_id, purchases.qty, raffles.ticket_price").
		Joins("JOIN raffles ON raffles.id = purchases.raffle_id").
		Where("purchases.creator_code IS NOT NULL").
		Order("purchases.id ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Raffle struct {
	ID          string  `gorm:"primaryKey;size:64"`
	Title       string  `gorm:"not null"`
	Prize       string  `gorm:"not null"`
	TicketPrice float64 `gorm:"type:decimal(12,2);not null;default:0;check:chk_raffles_ticket_price,ticket_price >= 0"`
	DurationMs  int64   `gorm:"not null;check:chk_raffles_duration_ms,duration_ms > 0"`
	Image       string
	Description string
	Rounds      []Round `gorm:"foreignKey:RaffleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RaffleDAO struct {
	db *gorm.DB
}

func NewRaffleDAO(db *gorm.DB) *RaffleDAO {
	return &RaffleDAO{
		db: db,
	}
}

func (d *RaffleDAO) Insert(ctx context.Context, raffle Raffle) (Raffle, error) {
	result := d.db.WithContext(ctx).Create(&raffle)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "") {
			return Raffle{}, ErrRaffleExists
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

func (d *RaffleDAO) Update(ctx context.Context, raffle Raffle) (Raffle, error) {
	result := d.db.WithContext(ctx).
		Model(&Raffle{}).
		Where("id = ?", raffle.ID).
		Updates(map[string]any{
			"title":        raffle.Title,
			"prize":        raffle.Prize,
			"ticket_price": raffle.TicketPrice,
			"duration_ms":  raffle.DurationMs,
			"image":        raffle.Image,
			"description":  raffle.Description,
		})
	if result.Error != nil {
		return Raffle{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Raffle{}, ErrRaffleNotFound
	}

	return d.FindByID(ctx, raffle.ID)
}

func (d *RaffleDAO) Delete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Delete(&Raffle{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRaffleNotFound
	}

	return nil
}

func (d *RaffleDAO) FindByID(ctx context.Context, id string) (Raffle, error) {
	var raffle Raffle

	result := d.db.WithContext(ctx).First(&raffle, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Raffle{}, ErrRaffleNotFound
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

func (d *RaffleDAO) FindAll(ctx context.Context) ([]Raffle, error) {
	var raffles []Raffle

	result := d.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&raffles)
	if result.Error != nil {
		return nil, result.Error
	}

	return raffles, nil
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/repository/dao"
)

type fakeRoundDAO struct {
	RoundDAO

	stored    dao.Round
	purchases []dao.Purchase
	err       error
}

func (f *fakeRoundDAO) Resolve(_ context.Context, _ uint, now time.Time, draw dao.DrawFunc) (dao.Round, error) {
	if f.err != nil {
		return f.stored, f.err
	}

	ticket, total, err := draw(f.purchases)
	if err != nil {
		return dao.Round{}, err
	}
	f.stored.Status = dao.RoundStatusResolved
	f.stored.WinningTicket = ticket
	f.stored.TotalAtDraw = total
	f.stored.ResolvedAt = &now

	return f.stored, nil
}

func TestRoundRepository_Resolve(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeRoundDAO{
		stored: dao.Round{ID: 7, RaffleID: "r1", Status: dao.RoundStatusOpen},
		purchases: []dao.Purchase{
			{ID: 1, RoundID: 7, Username: "A", Qty: 3},
			{ID: 2, RoundID: 7, Username: "B", Qty: 2},
		},
	}
	repo := NewRoundRepository(fake)

	var seen []domain.Purchase
	got, err := repo.Resolve(context.Background(), 7, now, func(purchases []domain.Purchase) (domain.Resolution, error) {
		seen = purchases
		ticket, total := 4, domain.TotalQty(purchases)
		return domain.Resolution{WinningTicket: &ticket, TotalAtDraw: &total}, nil
	})
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, "B", seen[1].Username)
	assert.Equal(t, domain.RoundResolved, got.Status)
	assert.Equal(t, 4, *got.WinningTicket)
	assert.Equal(t, 5, *got.TotalAtDraw)
	assert.Equal(t, now, *got.ResolvedAt)
}

func TestRoundRepository_ResolveErrors(t *testing.T) {
	ticket := 2
	fake := &fakeRoundDAO{
		stored: dao.Round{ID: 7, RaffleID: "r1", Status: dao.RoundStatusResolved, WinningTicket: &ticket},
		err:    dao.ErrRoundAlreadyResolved,
	}
	repo := NewRoundRepository(fake)

	got, err := repo.Resolve(context.Background(), 7, time.Now(), nil)
	require.ErrorIs(t, err, ErrRoundAlreadyResolved)
	assert.Equal(t, 2, *got.WinningTicket)

	boom := errors.New("boom")
	fake = &fakeRoundDAO{stored: dao.Round{ID: 8, Status: dao.RoundStatusOpen}}
	_, err = NewRoundRepository(fake).Resolve(context.Background(), 8, time.Now(), func([]domain.Purchase) (domain.Resolution, error) {
		return domain.Resolution{}, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRaffleRepository_DurationMapping(t *testing.T) {
	repo := &RaffleRepository{}

	row := repo.domainToDao(domain.Raffle{ID: "r1", Duration: 90 * time.Second})
	assert.Equal(t, int64(90_000), row.DurationMs)

	raffle := repo.daoToDomain(dao.Raffle{ID: "r1", DurationMs: 1500})
	assert.Equal(t, 1500*time.Millisecond, raffle.Duration)
}

func TestPurchaseDaoToDomain(t *testing.T) {
	code := "X"
	got := purchasesDaoToDomain([]dao.Purchase{{ID: 3, RaffleID: "r1", RoundID: 7, Username: "A", Qty: 2, CreatorCode: &code}})

	require.Len(t, got, 1)
	assert.Equal(t, domain.Purchase{ID: 3, RaffleID: "r1", RoundID: 7, Username: "A", Qty: 2, CreatorCode: &code}, got[0])
}

package dao

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB is nil when Docker is not reachable; the tests below skip in that case.
var testDB *gorm.DB

func TestMain(m *testing.M) {
	os.Exit(runWithPostgres(m))
}

func runWithPostgres(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		fmt.Printf("docker unavailable, skipping dao integration tests: %v\n", err)
		return m.Run()
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=raffle",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=raffle",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		fmt.Printf("could not start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = pool.Purge(resource) }()
	_ = resource.Expire(300)

	dsn := (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword("raffle", "secret"),
		Host:     resource.GetHostPort("5432/tcp"),
		Path:     "raffle",
		RawQuery: "sslmode=disable",
	}).String()

	pool.MaxWait = 2 * time.Minute
	err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.Ping(); err != nil {
			return err
		}
		testDB = db
		return nil
	})
	if err != nil {
		fmt.Printf("could not connect to postgres: %v\n", err)
		return 1
	}

	return m.Run()
}

func freshDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() || testDB == nil {
		t.Skip("postgres not available")
	}
	require.NoError(t, dropAllTables(testDB))
	require.NoError(t, InitTables(testDB))

	return testDB
}

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func seedRaffle(t *testing.T, db *gorm.DB, id string, price float64) Raffle {
	t.Helper()

	raffle, err := NewRaffleDAO(db).Insert(context.Background(), Raffle{
		ID:          id,
		Title:       "Raffle " + id,
		Prize:       "Bike",
		TicketPrice: price,
		DurationMs:  60_000,
	})
	require.NoError(t, err)

	return raffle
}

func seedOpenRound(t *testing.T, db *gorm.DB, raffleID string) Round {
	t.Helper()

	round, err := NewRoundDAO(db).Insert(context.Background(), Round{
		RaffleID: raffleID,
		Deadline: t0.Add(time.Minute),
		Status:   RoundStatusOpen,
	})
	require.NoError(t, err)

	return round
}

func firstTicketDraw(purchases []Purchase) (*int, *int, error) {
	total := 0
	for _, p := range purchases {
		total += p.Qty
	}
	if total == 0 {
		return nil, &total, nil
	}
	ticket := 1
	return &ticket, &total, nil
}

func TestRaffleDAO_InsertDuplicate(t *testing.T) {
	db := freshDB(t)
	seedRaffle(t, db, "r1", 10)

	_, err := NewRaffleDAO(db).Insert(context.Background(), Raffle{ID: "r1", Title: "again", Prize: "x", DurationMs: 1})
	assert.ErrorIs(t, err, ErrRaffleExists)
}

func TestRoundDAO_OneOpenRoundPerRaffle(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	rounds := NewRoundDAO(db)
	seedRaffle(t, db, "r1", 10)
	seedRaffle(t, db, "r2", 10)

	first := seedOpenRound(t, db, "r1")
	seedOpenRound(t, db, "r2")

	_, err := rounds.Insert(ctx, Round{RaffleID: "r1", Deadline: t0.Add(time.Hour), Status: RoundStatusOpen})
	require.ErrorIs(t, err, ErrOpenRoundExists)

	_, err = rounds.Resolve(ctx, first.ID, t0.Add(2*time.Minute), firstTicketDraw)
	require.NoError(t, err)

	next, err := rounds.Insert(ctx, Round{RaffleID: "r1", Deadline: t0.Add(3 * time.Minute), Status: RoundStatusOpen})
	require.NoError(t, err)

	open, err := rounds.FindOpenByRaffleID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, next.ID, open.ID)

	latest, err := rounds.FindLatestResolved(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)

	_, err = rounds.FindLatestResolved(ctx, "r2")
	assert.ErrorIs(t, err, ErrRoundNotFound)

	history, err := rounds.FindByRaffleID(ctx, "r1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, next.ID, history[0].ID)
}

func TestRoundDAO_ConcurrentOpenInsert(t *testing.T) {
	db := freshDB(t)
	seedRaffle(t, db, "r1", 10)
	rounds := NewRoundDAO(db)

	var created atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rounds.Insert(context.Background(), Round{RaffleID: "r1", Deadline: t0.Add(time.Minute), Status: RoundStatusOpen})
			if err == nil {
				created.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrOpenRoundExists)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
}

func TestRoundDAO_ResolveOnce(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	seedRaffle(t, db, "r1", 10)
	round := seedOpenRound(t, db, "r1")

	_, err := NewPurchaseDAO(db).Insert(ctx, Purchase{RoundID: round.ID, Username: "A", Qty: 3}, t0)
	require.NoError(t, err)

	rounds := NewRoundDAO(db)

	notDue, err := rounds.Resolve(ctx, round.ID, t0, firstTicketDraw)
	require.ErrorIs(t, err, ErrRoundNotDue)
	assert.Equal(t, RoundStatusOpen, notDue.Status)

	var draws atomic.Int32
	draw := func(purchases []Purchase) (*int, *int, error) {
		draws.Add(1)
		return firstTicketDraw(purchases)
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := rounds.Resolve(context.Background(), round.ID, t0.Add(2*time.Minute), draw)
			if err == nil {
				wins.Add(1)
			} else if !assert.ErrorIs(t, err, ErrRoundAlreadyResolved) {
				return
			}
			assert.Equal(t, RoundStatusResolved, got.Status)
			if assert.NotNil(t, got.WinningTicket) {
				assert.Equal(t, 1, *got.WinningTicket)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(1), draws.Load())

	stored, err := rounds.FindByID(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, RoundStatusResolved, stored.Status)
	assert.Nil(t, stored.OpenSlot)
	require.NotNil(t, stored.TotalAtDraw)
	assert.Equal(t, 3, *stored.TotalAtDraw)
	require.NotNil(t, stored.ResolvedAt)
}

func TestRoundDAO_ResolveUnknown(t *testing.T) {
	db := freshDB(t)

	_, err := NewRoundDAO(db).Resolve(context.Background(), 404, t0, firstTicketDraw)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestPurchaseDAO_Insert(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	seedRaffle(t, db, "r1", 10)
	seedRaffle(t, db, "r2", 10)
	round := seedOpenRound(t, db, "r1")
	purchases := NewPurchaseDAO(db)

	p, err := purchases.Insert(ctx, Purchase{RoundID: round.ID, Username: "A", Qty: 2}, t0)
	require.NoError(t, err)
	assert.Equal(t, "r1", p.RaffleID)
	assert.NotZero(t, p.ID)

	_, err = purchases.Insert(ctx, Purchase{RaffleID: "r2", RoundID: round.ID, Username: "A", Qty: 1}, t0)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	_, err = purchases.Insert(ctx, Purchase{RoundID: 404, Username: "A", Qty: 1}, t0)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	_, err = purchases.Insert(ctx, Purchase{RoundID: round.ID, Username: "A", Qty: 1}, round.Deadline)
	assert.ErrorIs(t, err, ErrRoundClosed)

	all, err := purchases.FindByRoundID(ctx, round.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPurchaseDAO_Sums(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	seedRaffle(t, db, "r1", 10)
	seedRaffle(t, db, "r2", 10)
	r1 := seedOpenRound(t, db, "r1")
	r2 := seedOpenRound(t, db, "r2")
	purchases := NewPurchaseDAO(db)

	for _, p := range []Purchase{
		{RoundID: r1.ID, Username: "A", Qty: 3},
		{RoundID: r1.ID, Username: "B", Qty: 2},
		{RoundID: r1.ID, Username: "A", Qty: 1},
		{RoundID: r2.ID, Username: "A", Qty: 5},
	} {
		_, err := purchases.Insert(ctx, p, t0)
		require.NoError(t, err)
	}

	total, err := purchases.SumQtyByRoundID(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, total)

	mine, err := purchases.SumQtyByRoundIDAndUsername(ctx, r1.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, 4, mine)

	empty, err := purchases.SumQtyByRoundIDAndUsername(ctx, r1.ID, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty)

	totals, err := purchases.SumQtyByRoundIDs(ctx, []uint{r1.ID, r2.ID, 404})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{r1.ID: 6, r2.ID: 5}, totals)

	perRaffle, err := purchases.SumQtyByUsernameAndRoundIDs(ctx, "A", []uint{r1.ID, r2.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"r1": 4, "r2": 5}, perRaffle)
}

func TestPurchaseDAO_FindWithCreatorCode(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	seedRaffle(t, db, "r1", 10)
	seedRaffle(t, db, "r2", 2.5)
	r1 := seedOpenRound(t, db, "r1")
	r2 := seedOpenRound(t, db, "r2")
	purchases := NewPurchaseDAO(db)

	code := "X"
	for _, p := range []Purchase{
		{RoundID: r1.ID, Username: "A", Qty: 3, CreatorCode: &code},
		{RoundID: r1.ID, Username: "B", Qty: 2},
		{RoundID: r2.ID, Username: "A", Qty: 4, CreatorCode: &code},
	} {
		_, err := purchases.Insert(ctx, p, t0)
		require.NoError(t, err)
	}

	rows, err := purchases.FindWithCreatorCode(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "r1", rows[0].RaffleID)
	assert.InDelta(t, 10, rows[0].TicketPrice, 0.001)
	assert.Equal(t, 4, rows[1].Qty)
	assert.InDelta(t, 2.5, rows[1].TicketPrice, 0.001)
}

func TestRaffleDAO_UpdateDeleteCascade(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	raffles := NewRaffleDAO(db)
	seedRaffle(t, db, "r1", 10)
	round := seedOpenRound(t, db, "r1")
	_, err := NewPurchaseDAO(db).Insert(ctx, Purchase{RoundID: round.ID, Username: "A", Qty: 1}, t0)
	require.NoError(t, err)

	updated, err := raffles.Update(ctx, Raffle{ID: "r1", Title: "New", Prize: "Car", TicketPrice: 5, DurationMs: 120_000})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, int64(120_000), updated.DurationMs)

	_, err = raffles.Update(ctx, Raffle{ID: "nope", Title: "x", Prize: "y", DurationMs: 1})
	assert.ErrorIs(t, err, ErrRaffleNotFound)

	require.NoError(t, raffles.Delete(ctx, "r1"))
	assert.ErrorIs(t, raffles.Delete(ctx, "r1"), ErrRaffleNotFound)

	_, err = NewRoundDAO(db).FindByID(ctx, round.ID)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	left, err := NewPurchaseDAO(db).FindByRoundID(ctx, round.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

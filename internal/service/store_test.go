package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietanh2810/raffle-api/internal/domain"
	"github.com/vietanh2810/raffle-api/internal/repository"
)

// memStore mirrors the storage guarantees the services rely on: one OPEN round per raffle,
// atomic resolution and ordered purchase IDs.
type memStore struct {
	mu        sync.Mutex
	raffles   map[string]domain.Raffle
	rounds    map[uint]domain.Round
	purchases []domain.Purchase
	nextRound uint
	nextBuy   uint

	createRoundErr map[string]error
	recordErrs     []error
}

func newMemStore() *memStore {
	return &memStore{
		raffles:        make(map[string]domain.Raffle),
		rounds:         make(map[uint]domain.Round),
		createRoundErr: make(map[string]error),
	}
}

func (m *memStore) failNextRoundCreate(raffleID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createRoundErr[raffleID] = err
}

func (m *memStore) failNextRecords(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrs = append(m.recordErrs, errs...)
}

func (m *memStore) roundsOf(raffleID string) []domain.Round {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Round
	for _, r := range m.rounds {
		if r.RaffleID == raffleID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func (m *memStore) openRoundsOf(raffleID string) []domain.Round {
	var open []domain.Round
	for _, r := range m.roundsOf(raffleID) {
		if r.IsOpen() {
			open = append(open, r)
		}
	}

	return open
}

func (m *memStore) raffleRepo() *memRaffles     { return &memRaffles{m} }
func (m *memStore) roundRepo() *memRounds       { return &memRounds{m} }
func (m *memStore) purchaseRepo() *memPurchases { return &memPurchases{m} }

type memRaffles struct{ *memStore }

func (m *memRaffles) Create(_ context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.raffles[raffle.ID]; ok {
		return domain.Raffle{}, repository.ErrRaffleExists
	}
	m.raffles[raffle.ID] = raffle

	return raffle, nil
}

func (m *memRaffles) Update(_ context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.raffles[raffle.ID]; !ok {
		return domain.Raffle{}, repository.ErrRaffleNotFound
	}
	m.raffles[raffle.ID] = raffle

	return raffle, nil
}

func (m *memRaffles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.raffles[id]; !ok {
		return repository.ErrRaffleNotFound
	}
	delete(m.raffles, id)
	for roundID, r := range m.rounds {
		if r.RaffleID == id {
			delete(m.rounds, roundID)
		}
	}
	kept := m.purchases[:0]
	for _, p := range m.purchases {
		if p.RaffleID != id {
			kept = append(kept, p)
		}
	}
	m.purchases = kept

	return nil
}

func (m *memRaffles) FindByID(_ context.Context, id string) (domain.Raffle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raffle, ok := m.raffles[id]
	if !ok {
		return domain.Raffle{}, repository.ErrRaffleNotFound
	}

	return raffle, nil
}

func (m *memRaffles) FindAll(_ context.Context) ([]domain.Raffle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Raffle, 0, len(m.raffles))
	for _, raffle := range m.raffles {
		out = append(out, raffle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

type memRounds struct{ *memStore }

func (m *memRounds) Create(_ context.Context, round domain.Round) (domain.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.createRoundErr[round.RaffleID]; ok {
		delete(m.createRoundErr, round.RaffleID)
		return domain.Round{}, err
	}
	for _, r := range m.rounds {
		if r.RaffleID == round.RaffleID && r.IsOpen() {
			return domain.Round{}, repository.ErrOpenRoundExists
		}
	}

	m.nextRound++
	round.ID = m.nextRound
	m.rounds[round.ID] = round

	return round, nil
}

func (m *memRounds) FindByID(_ context.Context, id uint) (domain.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	round, ok := m.rounds[id]
	if !ok {
		return domain.Round{}, repository.ErrRoundNotFound
	}

	return round, nil
}

func (m *memRounds) FindOpenByRaffleID(_ context.Context, raffleID string) (domain.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rounds {
		if r.RaffleID == raffleID && r.IsOpen() {
			return r, nil
		}
	}

	return domain.Round{}, repository.ErrRoundNotFound
}

func (m *memRounds) FindLatestResolved(_ context.Context, raffleID string) (domain.Round, error) {
	var latest *domain.Round
	for _, r := range m.roundsOf(raffleID) {
		if !r.IsOpen() {
			r := r
			latest = &r
		}
	}
	if latest == nil {
		return domain.Round{}, repository.ErrRoundNotFound
	}

	return *latest, nil
}

func (m *memRounds) FindByRaffleID(_ context.Context, raffleID string, limit int) ([]domain.Round, error) {
	rounds := m.roundsOf(raffleID)
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].ID > rounds[j].ID })
	if limit > 0 && len(rounds) > limit {
		rounds = rounds[:limit]
	}

	return rounds, nil
}

func (m *memRounds) Resolve(_ context.Context, roundID uint, now time.Time, draw repository.DrawFunc) (domain.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	round, ok := m.rounds[roundID]
	if !ok {
		return domain.Round{}, repository.ErrRoundNotFound
	}
	if !round.IsOpen() {
		return round, repository.ErrRoundAlreadyResolved
	}
	if !round.DueAt(now) {
		return round, repository.ErrRoundNotDue
	}

	var snapshot []domain.Purchase
	for _, p := range m.purchases {
		if p.RoundID == roundID {
			snapshot = append(snapshot, p)
		}
	}

	resolution, err := draw(snapshot)
	if err != nil {
		return domain.Round{}, err
	}

	round.Status = domain.RoundResolved
	round.WinningTicket = resolution.WinningTicket
	round.TotalAtDraw = resolution.TotalAtDraw
	round.ResolvedAt = &now
	m.rounds[roundID] = round

	return round, nil
}

type memPurchases struct{ *memStore }

func (m *memPurchases) Record(_ context.Context, purchase domain.Purchase, now time.Time) (domain.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.recordErrs) > 0 {
		err := m.recordErrs[0]
		m.recordErrs = m.recordErrs[1:]
		return domain.Purchase{}, err
	}

	round, ok := m.rounds[purchase.RoundID]
	if !ok || round.RaffleID != purchase.RaffleID {
		return domain.Purchase{}, repository.ErrRoundNotFound
	}
	if !round.AcceptsPurchasesAt(now) {
		return domain.Purchase{}, repository.ErrRoundClosed
	}

	m.nextBuy++
	purchase.ID = m.nextBuy
	purchase.CreatedAt = now
	m.purchases = append(m.purchases, purchase)

	return purchase, nil
}

func (m *memPurchases) FindByRoundID(_ context.Context, roundID uint) ([]domain.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Purchase
	for _, p := range m.purchases {
		if p.RoundID == roundID {
			out = append(out, p)
		}
	}

	return out, nil
}

func (m *memPurchases) TotalTickets(ctx context.Context, roundID uint) (int, error) {
	purchases, _ := m.FindByRoundID(ctx, roundID)
	return domain.TotalQty(purchases), nil
}

func (m *memPurchases) TicketsForUser(ctx context.Context, roundID uint, username string) (int, error) {
	purchases, _ := m.FindByRoundID(ctx, roundID)

	total := 0
	for _, p := range purchases {
		if p.Username == username {
			total += p.Qty
		}
	}

	return total, nil
}

func (m *memPurchases) TotalTicketsByRound(ctx context.Context, roundIDs []uint) (map[uint]int, error) {
	totals := make(map[uint]int, len(roundIDs))
	for _, id := range roundIDs {
		totals[id], _ = m.TotalTickets(ctx, id)
	}

	return totals, nil
}

func (m *memPurchases) TicketsForUserByRaffle(_ context.Context, username string, roundIDs []uint) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[uint]bool, len(roundIDs))
	for _, id := range roundIDs {
		wanted[id] = true
	}

	totals := make(map[string]int)
	for _, p := range m.purchases {
		if wanted[p.RoundID] && p.Username == username {
			totals[p.RaffleID] += p.Qty
		}
	}

	return totals, nil
}

func (m *memPurchases) CreatorPurchases(_ context.Context) ([]domain.CreatorPurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []domain.CreatorPurchase
	for _, p := range m.purchases {
		if p.CreatorCode == nil {
			continue
		}
		rows = append(rows, domain.CreatorPurchase{
			CreatorCode: p.CreatorCode,
			RaffleID:    p.RaffleID,
			Qty:         p.Qty,
			TicketPrice: m.raffles[p.RaffleID].TicketPrice,
		})
	}

	return rows, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedDrawer returns the queued tickets in order and counts draws. An empty queue
// draws ticket 1, or always when it is set.
type scriptedDrawer struct {
	mu      sync.Mutex
	tickets []int
	always  int
	totals  []int
}

func (d *scriptedDrawer) DrawWinner(total int) (*int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.totals = append(d.totals, total)
	if total == 0 {
		return nil, nil
	}

	ticket := 1
	if d.always > 0 {
		ticket = d.always
	}
	if len(d.tickets) > 0 {
		ticket = d.tickets[0]
		d.tickets = d.tickets[1:]
	}

	return &ticket, nil
}

func (d *scriptedDrawer) drawAlways(ticket int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.always = ticket
}

func (d *scriptedDrawer) draws() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.totals...)
}

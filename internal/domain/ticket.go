package domain

import (
	"strings"
	"time"
)

// Purchase is one immutable ledger entry. Purchases of a round are ordered by ID.
type Purchase struct {
	ID          uint      `json:"id"`
	RaffleID    string    `json:"raffle_id"`
	RoundID     uint      `json:"round_id"`
	Username    string    `json:"username"`
	Qty         int       `json:"qty"`
	CreatorCode *string   `json:"creator_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// TicketRange is the contiguous block of ticket numbers a purchase occupies, First..Last inclusive.
type TicketRange struct {
	PurchaseID uint   `json:"purchase_id"`
	Username   string `json:"username"`
	First      int    `json:"first"`
	Last       int    `json:"last"`
}

func (r TicketRange) Contains(ticket int) bool {
	return ticket >= r.First && ticket <= r.Last
}

// TicketRanges numbers the tickets of ordered purchases starting at 1.
func TicketRanges(purchases []Purchase) []TicketRange {
	ranges := make([]TicketRange, 0, len(purchases))
	running := 0
	for _, p := range purchases {
		ranges = append(ranges, TicketRange{
			PurchaseID: p.ID,
			Username:   p.Username,
			First:      running + 1,
			Last:       running + p.Qty,
		})
		running += p.Qty
	}

	return ranges
}

func TotalQty(purchases []Purchase) int {
	total := 0
	for _, p := range purchases {
		total += p.Qty
	}

	return total
}

// AttributeWinner returns the buyer owning ticket. ok is false when ticket lies outside
// the accumulated range of purchases.
func AttributeWinner(purchases []Purchase, ticket int) (username string, ok bool) {
	if ticket < 1 {
		return "", false
	}

	running := 0
	for _, p := range purchases {
		if ticket <= running+p.Qty {
			return p.Username, true
		}
		running += p.Qty
	}

	return "", false
}

// Odds is the share of the round held by mine, 0 when nothing was sold.
func Odds(mine, total int) float64 {
	if total <= 0 {
		return 0
	}

	return float64(mine) / float64(total)
}

// NormalizeCreatorCode trims and upper-cases code. Blank codes become nil.
func NormalizeCreatorCode(code string) *string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return nil
	}

	return &c
}

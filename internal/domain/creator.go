package domain

import "sort"

// CreatorPurchase is a ledger row joined with the ticket price of its raffle.
type CreatorPurchase struct {
	CreatorCode *string
	RaffleID    string
	Qty         int
	TicketPrice float64
}

type CreatorStat struct {
	Code    string  `json:"code"`
	Tickets int     `json:"tickets"`
	Revenue float64 `json:"revenue"`
}

// AggregateCreatorStats sums tickets and revenue per normalized creator code, highest
// revenue first. Rows without a code are skipped.
func AggregateCreatorStats(rows []CreatorPurchase) []CreatorStat {
	byCode := make(map[string]*CreatorStat)
	for _, row := range rows {
		if row.CreatorCode == nil {
			continue
		}
		code := NormalizeCreatorCode(*row.CreatorCode)
		if code == nil {
			continue
		}

		stat, ok := byCode[*code]
		if !ok {
			stat = &CreatorStat{Code: *code}
			byCode[*code] = stat
		}
		stat.Tickets += row.Qty
		stat.Revenue += float64(row.Qty) * row.TicketPrice
	}

	stats := make([]CreatorStat, 0, len(byCode))
	for _, stat := range byCode {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Revenue != stats[j].Revenue {
			return stats[i].Revenue > stats[j].Revenue
		}
		return stats[i].Code < stats[j].Code
	})

	return stats
}

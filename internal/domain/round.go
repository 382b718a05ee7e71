package domain

import "time"

type RoundStatus string

const (
	RoundOpen     RoundStatus = "OPEN"
	RoundResolved RoundStatus = "RESOLVED"
)

type Round struct {
	ID            uint        `json:"id"`
	RaffleID      string      `json:"raffle_id"`
	Deadline      time.Time   `json:"deadline"`
	Status        RoundStatus `json:"status"`
	WinningTicket *int        `json:"winning_ticket"`
	TotalAtDraw   *int        `json:"total_at_draw"`
	ResolvedAt    *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// NewRound returns the OPEN round that starts for raffle at now.
func NewRound(raffle Raffle, now time.Time) Round {
	return Round{
		RaffleID: raffle.ID,
		Deadline: now.Add(raffle.Duration),
		Status:   RoundOpen,
	}
}

func (r Round) IsOpen() bool {
	return r.Status == RoundOpen
}

// DueAt reports whether the round is still OPEN and its deadline has been reached.
func (r Round) DueAt(now time.Time) bool {
	return r.IsOpen() && !now.Before(r.Deadline)
}

// AcceptsPurchasesAt reports whether tickets may still be appended to the round.
func (r Round) AcceptsPurchasesAt(now time.Time) bool {
	return r.IsOpen() && now.Before(r.Deadline)
}

// Resolution is the frozen outcome of a draw. Both fields are nil when no ticket was sold.
type Resolution struct {
	WinningTicket *int
	TotalAtDraw   *int
}

type RoundOutcome string

const (
	OutcomeOpen             RoundOutcome = "open"
	OutcomeDrawInProgress   RoundOutcome = "draw_in_progress"
	OutcomeWon              RoundOutcome = "won"
	OutcomeNoWinner         RoundOutcome = "no_winner"
	OutcomeUnresolvedWinner RoundOutcome = "unresolved_winner"
)

// RoundResult is a round as shown to callers, with its winner attributed from the ledger.
type RoundResult struct {
	Round   Round        `json:"round"`
	Outcome RoundOutcome `json:"outcome"`
	Winner  string       `json:"winner,omitempty"`
}

// Outcome classifies the round at now. winnerFound is only consulted for resolved rounds
// that have a winning ticket.
func (r Round) Outcome(now time.Time, winnerFound bool) RoundOutcome {
	switch {
	case r.IsOpen() && r.DueAt(now):
		return OutcomeDrawInProgress
	case r.IsOpen():
		return OutcomeOpen
	case r.WinningTicket == nil:
		return OutcomeNoWinner
	case !winnerFound:
		return OutcomeUnresolvedWinner
	default:
		return OutcomeWon
	}
}

package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type Raffle struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Prize       string        `json:"prize"`
	TicketPrice float64       `json:"ticket_price"`
	Duration    time.Duration `json:"duration" swaggertype:"integer"`
	Image       string        `json:"image"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Validate rejects a raffle that cannot run rounds. It is checked before any write.
func (r Raffle) Validate() error {
	return validation.ValidateStruct(
		&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Prize, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.TicketPrice, validation.Min(0.0)),
		validation.Field(&r.Duration, validation.Required, validation.Min(time.Second)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

// RaffleSummary is a raffle with its current round as seen by one caller. RoundOutcome is
// draw_in_progress while a due round is still waiting for a successful draw.
type RaffleSummary struct {
	Raffle       Raffle       `json:"raffle"`
	CurrentRound Round        `json:"current_round"`
	RoundOutcome RoundOutcome `json:"round_outcome"`
	TotalTickets int          `json:"total_tickets"`
	MyTickets    int          `json:"my_tickets"`
}

// RaffleState extends RaffleSummary with the caller's odds and the last drawn round.
type RaffleState struct {
	RaffleSummary
	Odds      float64      `json:"odds"`
	LastRound *RoundResult `json:"last_round,omitempty"`
	LastWon   *bool        `json:"last_won,omitempty"`
}

package domain

import "time"

type RoundEventType string

const (
	RoundOpened RoundEventType = "round_opened"
	RoundDrawn  RoundEventType = "round_resolved"
)

// RoundEvent is pushed to feed subscribers of a raffle when its rounds change.
type RoundEvent struct {
	Type      RoundEventType `json:"type"`
	RaffleID  string         `json:"raffle_id"`
	Round     Round          `json:"round"`
	Winner    string         `json:"winner,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

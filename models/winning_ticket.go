package models

import "time"

// WinningTicketStatus — единственный допустимый переход: available → claimed.
type WinningTicketStatus string

const (
	WinningTicketAvailable WinningTicketStatus = "available"
	WinningTicketClaimed   WinningTicketStatus = "claimed"
)

// WinningTicket is one precomputed winning number of an instant-win
// competition. ticket_number is unique within the competition and always
// falls inside the phase range of its prize.
type WinningTicket struct {
	ID                 int                 `json:"id" db:"id"`
	CompetitionID      int                 `json:"competition_id" db:"competition_id"`
	PrizeID            int                 `json:"prize_id" db:"prize_id"`
	TicketNumber       int                 `json:"ticket_number" db:"ticket_number"`
	Status             WinningTicketStatus `json:"status" db:"status"`
	ClaimedByUserID    *int                `json:"claimed_by_user_id,omitempty" db:"claimed_by_user_id"`
	ClaimedAt          *time.Time          `json:"claimed_at,omitempty" db:"claimed_at"`
	CompetitionEntryID *int                `json:"competition_entry_id,omitempty" db:"competition_entry_id"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at"`

	Prize *CompetitionPrize `json:"prize,omitempty" db:"-"`
}

package models

import "time"

// CompetitionPrize связывает продукт с конкурсом в рамках одной фазы.
//
// WinningTicketNumbers and ClaimedTicketNumbers are derived caches mirrored
// from the winning_tickets table for fast display. The winning_tickets rows
// are the source of truth; Clear resets both caches to NULL.
type CompetitionPrize struct {
	ID                   int       `json:"id" db:"id"`
	CompetitionID        int       `json:"competition_id" db:"competition_id"`
	ProductID            int       `json:"product_id" db:"product_id"`
	Phase                int       `json:"phase" db:"phase"`
	TotalQuantity        int       `json:"total_quantity" db:"total_quantity"`
	PrizeGroup           *string   `json:"prize_group,omitempty" db:"prize_group"`
	IsInstantWin         bool      `json:"is_instant_win" db:"is_instant_win"`
	WinningTicketNumbers []int64   `json:"winning_ticket_numbers,omitempty" db:"winning_ticket_numbers"`
	ClaimedTicketNumbers []int64   `json:"claimed_ticket_numbers,omitempty" db:"claimed_ticket_numbers"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`

	Product *Product `json:"product,omitempty" db:"-"`
}

// ProductPrizeGroup groups the prizes of one competition that reference the
// same product across phases (the admin view shows one card per product).
type ProductPrizeGroup struct {
	Product *Product           `json:"product"`
	Prizes  []CompetitionPrize `json:"prizes"`
}

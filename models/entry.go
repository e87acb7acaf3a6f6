package models

import "time"

// TicketRange is a contiguous block of ticket numbers reserved by one
// allocation, inclusive on both ends.
type TicketRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r TicketRange) Count() int {
	return r.End - r.Start + 1
}

// Numbers expands the range into the ordered list of ticket numbers.
func (r TicketRange) Numbers() []int64 {
	numbers := make([]int64, 0, r.Count())
	for n := r.Start; n <= r.End; n++ {
		numbers = append(numbers, int64(n))
	}
	return numbers
}

// CompetitionEntry записывается один раз на покупку и далее неизменяема.
type CompetitionEntry struct {
	ID                   int       `json:"id" db:"id"`
	CompetitionID        int       `json:"competition_id" db:"competition_id"`
	UserID               int       `json:"user_id" db:"user_id"`
	OrderID              string    `json:"order_id" db:"order_id"`
	WalletTransactionID  *int      `json:"wallet_transaction_id,omitempty" db:"wallet_transaction_id"`
	PaymentTransactionID *string   `json:"payment_transaction_id,omitempty" db:"payment_transaction_id"`
	Tickets              []int64   `json:"tickets" db:"tickets"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

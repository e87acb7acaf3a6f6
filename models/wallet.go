package models

import "time"

type WalletTransactionType string

const (
	WalletTxCredit         WalletTransactionType = "credit"
	WalletTxTicketPurchase WalletTransactionType = "ticket_purchase"
	WalletTxRefund         WalletTransactionType = "refund"
)

// Wallet держит баланс пользователя в пенсах.
type Wallet struct {
	UserID    int       `json:"user_id" db:"user_id"`
	Balance   int       `json:"balance" db:"balance"` // pence
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type WalletTransaction struct {
	ID            int                   `json:"id" db:"id"`
	UserID        int                   `json:"user_id" db:"user_id"`
	Type          WalletTransactionType `json:"type" db:"type"`
	Amount        int                   `json:"amount" db:"amount"` // pence, always positive
	CompetitionID *int                  `json:"competition_id,omitempty" db:"competition_id"`
	Reference     *string               `json:"reference,omitempty" db:"reference"`
	CreatedAt     time.Time             `json:"created_at" db:"created_at"`
}

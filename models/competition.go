package models

import "time"

// CompetitionStatus представляет статусы конкурса, соответствующие ENUM в БД.
type CompetitionStatus string

const (
	CompetitionStatusDraft     CompetitionStatus = "draft"
	CompetitionStatusActive    CompetitionStatus = "active"
	CompetitionStatusEnded     CompetitionStatus = "ended"
	CompetitionStatusCancelled CompetitionStatus = "cancelled"
)

// CompetitionType определяет механику розыгрыша.
type CompetitionType string

const (
	CompetitionTypeRaffle     CompetitionType = "raffle"
	CompetitionTypeInstantWin CompetitionType = "instant_win"
)

// Competition представляет конкурс с фиксированным пулом билетов.
type Competition struct {
	ID           int               `json:"id" db:"id"`
	Title        string            `json:"title" db:"title"`
	Description  *string           `json:"description,omitempty" db:"description"`
	Type         CompetitionType   `json:"type" db:"type"`
	Status       CompetitionStatus `json:"status" db:"status"`
	TicketPrice  int               `json:"ticket_price" db:"ticket_price"` // pence
	TotalTickets int               `json:"total_tickets" db:"total_tickets"`
	TicketsSold  int               `json:"tickets_sold" db:"tickets_sold"`
	StartsAt     time.Time         `json:"starts_at" db:"starts_at"`
	EndsAt       time.Time         `json:"ends_at" db:"ends_at"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	ImageKey     *string           `json:"-" db:"image_key"`
	ImageURL     *string           `json:"image_url,omitempty" db:"-"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Prizes []CompetitionPrize `json:"prizes,omitempty" db:"-"`
}

func (c *Competition) TicketsRemaining() int {
	remaining := c.TotalTickets - c.TicketsSold
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *Competition) IsSoldOut() bool {
	return c.TicketsSold >= c.TotalTickets
}

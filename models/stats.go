package models

// PhaseSummaryEntry — итог генерации по одной фазе, для админки.
type PhaseSummaryEntry struct {
	Phase       int    `json:"phase"`
	Range       string `json:"range"`
	PrizeCount  int    `json:"prize_count"`
	TicketCount int    `json:"ticket_count"`
}

// PhaseSummary is returned by winning-ticket computation purely as operator
// feedback; it is not persisted.
type PhaseSummary struct {
	CompetitionID int                 `json:"competition_id"`
	TotalTickets  int                 `json:"total_tickets"`
	Phases        []PhaseSummaryEntry `json:"phases"`
}

// PrizeTicketStats — счётчики выигрышных билетов по одному призу.
type PrizeTicketStats struct {
	PrizeID   int    `json:"prize_id"`
	ProductID int    `json:"product_id"`
	Phase     int    `json:"phase"`
	Total     int    `json:"total"`
	Claimed   int    `json:"claimed"`
	Available int    `json:"available"`
	Product   string `json:"product,omitempty"`
}

// CompetitionTicketStats aggregates winning-ticket counters for a whole
// competition, broken down by prize.
type CompetitionTicketStats struct {
	CompetitionID int                `json:"competition_id"`
	Total         int                `json:"total"`
	Claimed       int                `json:"claimed"`
	Available     int                `json:"available"`
	ByPrize       []PrizeTicketStats `json:"by_prize"`
}

package models

import "time"

// Product — приз-товар; один продукт может разыгрываться в нескольких фазах.
type Product struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	MarketValue int       `json:"market_value" db:"market_value"` // pence
	ImageKey    *string   `json:"-" db:"image_key"`
	ImageURL    *string   `json:"image_url,omitempty" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

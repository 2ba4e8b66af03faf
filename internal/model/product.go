package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is an artwork listed in the catalog. Sold only moves from false to true.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Technique *string   `json:"technique,omitempty"`
	Img       *string   `json:"img,omitempty"`
	Price     float64   `json:"price"`
	Sold      bool      `json:"sold"`
	Measures  *string   `json:"measures,omitempty"`
	Weight    *float64  `json:"weight,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

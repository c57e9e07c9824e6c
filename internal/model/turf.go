package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Turf is a bookable venue listed by an administrator.  PricePerHour is
// kept as a decimal so discount arithmetic never drifts.
type Turf struct {
	ID           uint64          `json:"id"`
	Name         string          `json:"name"`
	Location     string          `json:"location"`
	Description  string          `json:"description"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	ImageURL     string          `json:"image_url"`
	CreatedAt    time.Time       `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type Operator struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  *string   `json:"email,omitempty"`
	Phone  *string   `json:"phone,omitempty"`
	Active bool      `json:"active"`
	// PayoutRate is always a fraction in [0,1].
	PayoutRate float64 `json:"payout_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Versioned
}

func (o *Operator) GetID() uuid.UUID { return o.ID }

// NormalizePayoutRate converts a legacy percentage (30) into a fraction (0.30)
// and clamps into [0,1].
func NormalizePayoutRate(v float64) float64 {
	if v > 1 {
		v = v / 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

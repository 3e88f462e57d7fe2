package dtos

import "github.com/google/uuid"

// PayoutRate accepts a fraction (0.3) or a percentage (30); it is stored as
// a fraction. Omitted on create means the default split.
type CreateOperatorRequest struct {
	Name       string   `json:"name" validate:"required"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string  `json:"phone,omitempty"`
	PayoutRate *float64 `json:"payout_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Active     *bool    `json:"active,omitempty"`
}

// UpdateOperatorRequest changes only the fields that are present.
type UpdateOperatorRequest struct {
	Name       *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string  `json:"phone,omitempty"`
	PayoutRate *float64 `json:"payout_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Active     *bool    `json:"active,omitempty"`
}

type DeleteOperatorResponse struct {
	OperatorID      uuid.UUID `json:"operator_id"`
	RoutesUnstaffed int64     `json:"routes_unstaffed"`
}

package dtos

import (
	"time"

	"github.com/google/uuid"
)

type OrderDTO struct {
	ID           uuid.UUID  `json:"id"`
	BusinessName string     `json:"business_name"`
	Address      string     `json:"address"`
	PostalZone   string     `json:"postal_zone"`
	Lat          *float64   `json:"lat,omitempty"`
	Lng          *float64   `json:"lng,omitempty"`
	Units        int        `json:"units"`
	Cadence      string     `json:"cadence"`
	Status       string     `json:"status"`
	Stage        string     `json:"stage"`
	RouteID      *uuid.UUID `json:"route_id"`
	Amount       float64    `json:"amount"`
	IsDeleted    bool       `json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type InboxOrderDTO struct {
	OrderDTO
	AgeDays *int `json:"age_days"`
}

type InboxGroupDTO struct {
	Label      string          `json:"label"`
	Cadence    string          `json:"cadence"`
	PostalZone string          `json:"postal_zone"`
	AgeBucket  string          `json:"age_bucket"`
	Orders     []InboxOrderDTO `json:"orders"`
}

// AssignOrderRouteRequest links (route_id set) or unlinks (null) an order.
// Moving an order that is already on another route requires force.
type AssignOrderRouteRequest struct {
	RouteID *uuid.UUID `json:"route_id"`
	Force   bool       `json:"force,omitempty"`
}

type SetOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new paid scheduled completed cancelled"`
}

type GeocodeOrdersRequest struct {
	Limit int `json:"limit,omitempty" validate:"omitempty,gte=1,lte=100"`
}

type GeocodeFailureDTO struct {
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

type GeocodeOrdersResponse struct {
	Attempted int                 `json:"attempted"`
	Updated   int                 `json:"updated"`
	Failed    []GeocodeFailureDTO `json:"failed,omitempty"`
}

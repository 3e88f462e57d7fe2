package dtos

import (
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
)

type CreateRouteRequest struct {
	Name             string        `json:"name" validate:"required,min=1,max=120"`
	ServiceDay       int           `json:"service_day" validate:"gte=0,lte=6"` // 0=Sunday, ..., 6=Saturday
	Cadence          string        `json:"cadence" validate:"required"`
	ServiceStartDate utils.ISODate `json:"service_start_date"`
	TargetUnits      *int          `json:"target_units,omitempty" validate:"omitempty,gte=0"`
	OperatorID       *uuid.UUID    `json:"operator_id,omitempty"`
}

// UpdateRouteRequest is a partial patch. Omitted fields are left alone; an
// empty string on a date clears it.
type UpdateRouteRequest struct {
	Name             *string        `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	ServiceDay       *int           `json:"service_day,omitempty" validate:"omitempty,gte=0,lte=6"`
	Cadence          *string        `json:"cadence,omitempty" validate:"omitempty,min=1"`
	ServiceStartDate *utils.ISODate `json:"service_start_date,omitempty"`
	LastServiceDate  *utils.ISODate `json:"last_service_date,omitempty"`
	TargetUnits      *int           `json:"target_units,omitempty" validate:"omitempty,gte=0"`
	OperatorID       *uuid.UUID     `json:"operator_id,omitempty"`
	ClearOperator    bool           `json:"clear_operator,omitempty"`
}

type SetRouteStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft ready active completed"`
}

type ReadinessDTO struct {
	Percent       int    `json:"percent"`
	AssignedUnits int    `json:"assigned_units"`
	TargetUnits   int    `json:"target_units"`
	Reason        string `json:"reason,omitempty"`
}

type RouteDTO struct {
	ID               uuid.UUID     `json:"id"`
	Name             string        `json:"name"`
	ServiceDay       int           `json:"service_day"`
	Cadence          string        `json:"cadence"`
	ServiceStartDate utils.ISODate `json:"service_start_date"`
	LastServiceDate  utils.ISODate `json:"last_service_date"`
	TargetUnits      *int          `json:"target_units"`
	Status           string        `json:"status"`
	OperatorID       *uuid.UUID    `json:"operator_id"`
	RowVersion       int64         `json:"row_version"`

	OrderCount      int           `json:"order_count"`
	Readiness       ReadinessDTO  `json:"readiness"`
	NextServiceDate utils.ISODate `json:"next_service_date"`
}

type RouteScheduleDTO struct {
	RouteID    uuid.UUID `json:"route_id"`
	Computable bool      `json:"computable"`

	NextServiceDate      utils.ISODate `json:"next_service_date"`
	FollowingServiceDate utils.ISODate `json:"following_service_date"`
	NextIsHoliday        bool          `json:"next_is_holiday"`
}

type StopDTO struct {
	Number       int       `json:"number"`
	OrderID      uuid.UUID `json:"order_id"`
	BusinessName string    `json:"business_name"`
	Address      string    `json:"address"`
	PostalCode   string    `json:"postal_code"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
}

type RouteStopsResponse struct {
	RouteID uuid.UUID `json:"route_id"`
	Stops   []StopDTO `json:"stops"`
}

type DeleteRouteResponse struct {
	RouteID        uuid.UUID `json:"route_id"`
	OrdersUnlinked int64     `json:"orders_unlinked"`
}

package dtos

import (
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
)

type OperatorDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      *string   `json:"email,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Active     bool      `json:"active"`
	PayoutRate float64   `json:"payout_rate"`
	RowVersion int64     `json:"row_version"`
}

type RunStopDTO struct {
	StopDTO
	Amount     float64  `json:"amount"`
	LegMiles   *float64 `json:"leg_miles,omitempty"`
	LegMinutes *int     `json:"leg_minutes,omitempty"`
}

type RouteRunDTO struct {
	RouteID      uuid.UUID    `json:"route_id"`
	RouteName    string       `json:"route_name"`
	Cadence      string       `json:"cadence"`
	Operator     *OperatorDTO `json:"operator,omitempty"`
	Stops        []RunStopDTO `json:"stops"`
	TotalMiles   float64      `json:"total_miles"`
	TotalMinutes int          `json:"total_minutes"`
}

type RunSheetDTO struct {
	Date        utils.ISODate `json:"date"`
	Holiday     bool          `json:"holiday"`
	HolidayName string        `json:"holiday_name,omitempty"`
	TotalStops  int           `json:"total_stops"`
	Routes      []RouteRunDTO `json:"routes"`
}

type DayKPIDTO struct {
	Date  utils.ISODate `json:"date"`
	Jobs  int           `json:"jobs"`
	Gross float64       `json:"gross"`
}

type WeekKPIDTO struct {
	WeekStart     utils.ISODate `json:"week_start"`
	WeekEnd       utils.ISODate `json:"week_end"`
	Gross         float64       `json:"gross"`
	Payouts       float64       `json:"payouts"`
	Profit        float64       `json:"profit"`
	Jobs          int           `json:"jobs"`
	UniqueClients int           `json:"unique_clients"`
	Days          []DayKPIDTO   `json:"days"`
}

type NextOpeningDTO struct {
	Available     bool          `json:"available"`
	Date          utils.ISODate `json:"date"`
	Booked        int           `json:"booked"`
	Capacity      int           `json:"capacity"`
	LookaheadDays int           `json:"lookahead_days"`
}

type NotifyResultDTO struct {
	RouteID    uuid.UUID  `json:"route_id"`
	OperatorID *uuid.UUID `json:"operator_id,omitempty"`
	Email      bool       `json:"email"`
	SMS        bool       `json:"sms"`
	Error      string     `json:"error,omitempty"`
}

type NotifyRunSheetsResponse struct {
	Date    utils.ISODate     `json:"date"`
	Results []NotifyResultDTO `json:"results"`
}

type AutoAssignmentDTO struct {
	RouteID      uuid.UUID `json:"route_id"`
	RouteName    string    `json:"route_name"`
	OperatorID   uuid.UUID `json:"operator_id"`
	OperatorName string    `json:"operator_name"`
	Stops        int       `json:"stops"`
}

type AutoAssignResponse struct {
	WeekStart   utils.ISODate       `json:"week_start"`
	Assignments []AutoAssignmentDTO `json:"assignments"`
}

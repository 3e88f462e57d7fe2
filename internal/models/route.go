package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type RouteStatus string

const (
	RouteStatusDraft     RouteStatus = "draft"
	RouteStatusReady     RouteStatus = "ready"
	RouteStatusActive    RouteStatus = "active"
	RouteStatusCompleted RouteStatus = "completed"
)

// ParseRouteStatus is case-insensitive and rejects unknown values.
func ParseRouteStatus(s string) (RouteStatus, bool) {
	st := RouteStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case RouteStatusDraft, RouteStatusReady, RouteStatusActive, RouteStatusCompleted:
		return st, true
	}
	return "", false
}

type Route struct {
	Versioned

	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	ServiceDay       time.Weekday `json:"service_day"` // 0=Sunday .. 6=Saturday
	Cadence          Cadence      `json:"cadence"`
	ServiceStartDate *time.Time   `json:"service_start_date,omitempty"`
	LastServiceDate  *time.Time   `json:"last_service_date,omitempty"`

	TargetUnits *int        `json:"target_units,omitempty"`
	Status      RouteStatus `json:"status"`
	OperatorID  *uuid.UUID  `json:"operator_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Route) GetID() uuid.UUID { return r.ID }

func (r *Route) IsActive() bool {
	return strings.EqualFold(string(r.Status), string(RouteStatusActive))
}

func (r *Route) IsCompleted() bool {
	return strings.EqualFold(string(r.Status), string(RouteStatusCompleted))
}

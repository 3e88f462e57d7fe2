package models

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

/*──────────────────────────────────────────────────────────────────────────────
  Derived lifecycle stage (never persisted)
──────────────────────────────────────────────────────────────────────────────*/
type OrderStage string

const (
	StageArchived     OrderStage = "archived"
	StageCancelled    OrderStage = "cancelled"
	StageRouteActive  OrderStage = "route active"
	StageOnRoute      OrderStage = "on route"
	StageDeposited    OrderStage = "deposited"
	StageNeedsDeposit OrderStage = "needs deposit"
)

const BillingStatusActive = "active"

// OrderStatuses are the values an operator may set from the dashboard.
var OrderStatuses = []string{"new", "paid", "scheduled", "completed", "cancelled"}

func IsOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

/*──────────────────────────────────────────────────────────────────────────────
  MAIN MODEL – Order
──────────────────────────────────────────────────────────────────────────────*/
type Order struct {
	Versioned

	ID           uuid.UUID `json:"id"`
	BusinessName string    `json:"business_name"`
	Address      string    `json:"address"`
	PostalCode   *string   `json:"postal_code,omitempty"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`

	// Cans is the raw unit count text; see UnitCount.
	Cans          string   `json:"cans"`
	MonthlyTotal  *float64 `json:"monthly_total,omitempty"`
	DueToday      *float64 `json:"due_today,omitempty"`
	BillingStatus *string  `json:"billing_status,omitempty"`
	Cadence       string   `json:"cadence"`

	// Status is the free-text lifecycle column ("new", "paid", "cancelled - refund", ...).
	Status string `json:"status"`
	// PaymentStatus and IsDeposit are resolved once from the legacy alias
	// columns at the storage boundary.
	PaymentStatus *string `json:"payment_status,omitempty"`
	IsDeposit     bool    `json:"is_deposit"`

	PreferredServiceDay *string    `json:"preferred_service_day,omitempty"`
	RouteID             *uuid.UUID `json:"route_id,omitempty"`

	// Legacy per-order scheduling fields, read only as anchor fallbacks.
	RouteStartDate   *time.Time `json:"route_start_date,omitempty"`
	ServiceStartDate *time.Time `json:"service_start_date,omitempty"`
	LastServiceDate  *time.Time `json:"last_service_date,omitempty"`

	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) GetID() uuid.UUID { return o.ID }

// UnitCount parses Cans leniently: the leading number wins ("3 cans" = 3,
// "2.0" = 2) and anything unparseable counts as 0.
func (o *Order) UnitCount() int {
	return ParseUnits(o.Cans)
}

func ParseUnits(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// IsCancelled matches "cancelled", "Cancelled - refunded", ...
func (o *Order) IsCancelled() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(o.Status)), "cancelled")
}

// BillingActive treats an unset billing status as active.
func (o *Order) BillingActive() bool {
	if o.BillingStatus == nil {
		return true
	}
	s := strings.ToLower(strings.TrimSpace(*o.BillingStatus))
	return s == "" || s == BillingStatusActive
}

// HasCoordinates reports whether both lat and lng are present.
func (o *Order) HasCoordinates() bool {
	return o.Lat != nil && o.Lng != nil
}

// Amount is the recurring revenue of one visit: monthly total, else due today.
func (o *Order) Amount() float64 {
	if o.MonthlyTotal != nil && *o.MonthlyTotal != 0 {
		return *o.MonthlyTotal
	}
	if o.DueToday != nil {
		return *o.DueToday
	}
	return 0
}

var paidStatuses = map[string]bool{"paid": true, "succeeded": true, "success": true}

// IsPaidStatus reports whether a payment status text means money was captured.
func IsPaidStatus(s string) bool {
	return paidStatuses[strings.ToLower(strings.TrimSpace(s))]
}

// NormalizeDepositFlag folds the boolean-ish deposit aliases ("true", "t", "1",
// "yes") and billing-type text containing "deposit" into a single flag.
func NormalizeDepositFlag(values ...string) bool {
	for _, v := range values {
		s := strings.ToLower(strings.TrimSpace(v))
		switch {
		case s == "true", s == "t", s == "1", s == "yes":
			return true
		case strings.Contains(s, "deposit"):
			return true
		}
	}
	return false
}

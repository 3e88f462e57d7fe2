package constants

import (
	"time"
)

// Cadence intervals
const (
	BiweeklyIntervalDays   = 14
	MonthlyMinElapsedDays  = 28 // monthly orders are due again once this many days have passed
	MaxNextServiceAdvances = 80 // safety bound when rolling a stale start date forward
)

// Auto-grouping
const (
	AutoRouteNamePrefix = "AUTO"
	AutoRouteNameSep    = " • "
	DefaultServiceDay   = time.Monday
)

// Stop sequencing: geo ordering is used only when coordinates are reliable enough.
const (
	MinGeoStops         = 3
	MinGeoCoverageRatio = 0.60
)

// Readiness
const (
	ReasonNoTarget = "no target set"
)

// Dispatch / dashboard heuristics
const (
	DailyStopCapacity       = 10
	NextOpeningLookaheadDay = 30
	DefaultPayoutFraction   = 0.30
	GeocodeBatchLimit       = 15
	GeocodeRequestSpacing   = 450 * time.Millisecond
)

// Travel estimates
const (
	CrowFliesDriveTimeMultiplier = 2.0 // minutes per crow-flies mile when the Routes API is unavailable
	RoutesAPITimeout             = 3 * time.Second
)

// Scheduled work (robfig/cron specs, server local time)
const (
	AutoGroupCronSpec    = "15 2 * * *"
	RunSheetNotifySpec   = "30 5 * * *"
	NotifyRequestTimeout = 10 * time.Second
)

// Operator notifications
const (
	EmailFromName          = "ProCan Dispatch"
	EmailSubjectRunSheet   = "Your ProCan run sheet for %s"
	SMSMaxListedStops      = 5
	NotifyResultNoOperator = "route has no active operator"
)

// HTTP
const (
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
)

// Common concurrency conflict messages
const (
	ErrMsgRowVersionConflictRefresh = "Record changed, please refresh"
)

package models

import "strings"

type Cadence string

const (
	CadenceBiweekly Cadence = "biweekly"
	CadenceMonthly  Cadence = "monthly"
	CadenceWeekly   Cadence = "weekly"
	CadenceOneTime  Cadence = "one-time"
)

// NormalizeCadence folds free-text cadence values onto the known set by
// substring match. Unknown non-empty values pass through lower-cased.
func NormalizeCadence(raw string) Cadence {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "bi"):
		return CadenceBiweekly
	case strings.Contains(s, "month"):
		return CadenceMonthly
	case strings.Contains(s, "week"):
		return CadenceWeekly
	case strings.Contains(s, "one"):
		return CadenceOneTime
	default:
		return Cadence(s)
	}
}

package utils

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ISODateLayout is the storable text form of a calendar date.
const ISODateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04:05.999999Z07",
}

// DateOnly truncates t to midnight UTC of the calendar day t carries.
// All schedule math runs on these values so time-of-day and DST never shift a day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseISODate accepts a YYYY-MM-DD date or a timestamp and returns the calendar
// day as written. The boolean is false for empty or unparseable input.
func ParseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(ISODateLayout, s); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), true
		}
	}
	return time.Time{}, false
}

// FormatISODate is the inverse of ParseISODate for date-only values.
func FormatISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)) / (24 * time.Hour))
}

// WeeksBetween returns whole weeks from a to b, floored (so -1 day is week -1).
func WeeksBetween(a, b time.Time) int {
	return floorDiv(DaysBetween(a, b), 7)
}

// DaysBetweenISO is DaysBetween over ISO text; false when either side does not parse.
func DaysBetweenISO(a, b string) (int, bool) {
	da, ok := ParseISODate(a)
	if !ok {
		return 0, false
	}
	db, ok := ParseISODate(b)
	if !ok {
		return 0, false
	}
	return DaysBetween(da, db), true
}

// WeeksBetweenISO is WeeksBetween over ISO text.
func WeeksBetweenISO(a, b string) (int, bool) {
	d, ok := DaysBetweenISO(a, b)
	if !ok {
		return 0, false
	}
	return floorDiv(d, 7), true
}

// DayOfWeek returns the weekday (Sunday=0) of an ISO date.
func DayOfWeek(iso string) (time.Weekday, bool) {
	d, ok := ParseISODate(iso)
	if !ok {
		return 0, false
	}
	return d.Weekday(), true
}

// NextDateForWeekday returns the next date strictly after from that falls on w.
// If from already is w the result is one week later.
func NextDateForWeekday(w time.Weekday, from time.Time) time.Time {
	d := DateOnly(from)
	diff := (int(w) - int(d.Weekday()) + 7) % 7
	if diff == 0 {
		diff = 7
	}
	return d.AddDate(0, 0, diff)
}

// AddMonthsClamped adds n calendar months, clamping to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29, never Mar 3).
func AddMonthsClamped(t time.Time, n int) time.Time {
	d := DateOnly(t)
	firstOfTarget := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := LastDayOfMonth(firstOfTarget).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

func LastDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	d := DateOnly(t)
	back := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -back)
}

// NormalizeWeekday maps "mon", "Monday", "TUE", "3" and friends onto a weekday.
func NormalizeWeekday(v string) (time.Weekday, bool) {
	s := strings.ToLower(strings.TrimSpace(v))
	if s == "" {
		return 0, false
	}
	for _, wd := range []struct {
		prefix string
		day    time.Weekday
	}{
		{"mon", time.Monday},
		{"tue", time.Tuesday},
		{"wed", time.Wednesday},
		{"thu", time.Thursday},
		{"fri", time.Friday},
		{"sat", time.Saturday},
		{"sun", time.Sunday},
	} {
		if strings.Contains(s, wd.prefix) {
			return wd.day, true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 6 {
		return 0, false
	}
	return time.Weekday(n), true
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ISODate is a date-only JSON value written as "YYYY-MM-DD" (or null when zero).
type ISODate struct {
	time.Time
}

func (d ISODate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(FormatISODate(d.Time))
}

func (d *ISODate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, ok := ParseISODate(s)
	if !ok {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

// Ptr returns nil for the zero date so optional DTO fields map onto nullable columns.
func (d ISODate) Ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

package repositories

import (
	"time"

	"github.com/jackc/pgtype"
)

func dateOrNil(d pgtype.Date) *time.Time {
	if d.Status != pgtype.Present {
		return nil
	}
	t := time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}

func timestampOrNil(ts pgtype.Timestamptz) *time.Time {
	if ts.Status != pgtype.Present {
		return nil
	}
	t := ts.Time
	return &t
}

// dateArg binds a nullable calendar date so pgx writes DATE, not timestamptz.
func dateArg(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{Status: pgtype.Null}
	}
	return pgtype.Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), Status: pgtype.Present}
}

// normalizeServiceDay accepts the 0..6 (Sunday-first) column and folds 7 onto Sunday.
func normalizeServiceDay(v int16) time.Weekday {
	if v < 0 {
		return 0
	}
	return time.Weekday(v % 7)
}

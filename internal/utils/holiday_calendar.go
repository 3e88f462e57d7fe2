package utils

import (
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// Routes still run on these days; dispatch surfaces them so the office can
// warn customers.
var usFederalHolidays = []*cal.Holiday{
	us.NewYear,
	us.MlkDay,
	us.PresidentsDay,
	us.MemorialDay,
	us.Juneteenth,
	us.IndependenceDay,
	us.LaborDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

var usFederalCalendar = func() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(usFederalHolidays...)
	return c
}()

// USFedHoliday names the federal holiday falling on t's calendar day,
// observed dates included.
func USFedHoliday(t time.Time) (string, bool) {
	actual, observed, h := usFederalCalendar.IsHoliday(DateOnly(t))
	if !actual && !observed {
		return "", false
	}
	if h == nil {
		return "", true
	}
	return h.Name, true
}

func IsUSFedHoliday(t time.Time) bool {
	_, ok := USFedHoliday(t)
	return ok
}

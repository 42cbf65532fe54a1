package calendar

import (
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/fi"
	"go.uber.org/zap"

	"github.com/username/flextime-bot/pkg/dateutil"
)

// DefaultHoursPerDay is the contractual length of one working day.
const DefaultHoursPerDay = 7.5

// Calendar provides working-day calculus for the active jurisdiction.
// Every answer is derived from (day, month, year) alone; implementations
// make no external calls and hold no mutable state.
type Calendar interface {
	// IsWorkingDay reports whether the date is a weekday that is not a
	// public holiday
	IsWorkingDay(date time.Time) bool

	// TotalWorkHoursSince sums working hours for each working day in
	// [from, to] inclusive
	TotalWorkHoursSince(from, to time.Time) float64

	// LatestFullWorkingDay returns the most recent working day strictly
	// before the reference date
	LatestFullWorkingDay(reference time.Time) time.Time

	// WorkingDaysInMonth counts working days in the given month
	WorkingDaysInMonth(year int, month time.Month) int

	// WorkingDaysOfMonth returns the working days of the month in
	// ascending order
	WorkingDaysOfMonth(year int, month time.Month) []time.Time

	// HoursPerDay returns the working hours expected per working day
	HoursPerDay() float64
}

// DatesEqual reports calendar-day equality, ignoring time of day
func DatesEqual(a, b time.Time) bool {
	return dateutil.IsSameDay(a, b)
}

// WorkCalendar implements Calendar with the Finnish public-holiday table
// plus optional company-specific extra days off from configuration.
type WorkCalendar struct {
	business      *cal.BusinessCalendar
	extraHolidays map[string]struct{}
	hoursPerDay   float64
	logger        *zap.Logger
}

// NewWorkCalendar creates a WorkCalendar. hoursPerDay <= 0 selects the
// default. extraHolidays lists additional whole days off, e.g. company
// closure days not in the public table.
func NewWorkCalendar(hoursPerDay float64, extraHolidays []time.Time, logger *zap.Logger) *WorkCalendar {
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}

	business := cal.NewBusinessCalendar()
	business.AddHoliday(fi.Holidays...)

	extra := make(map[string]struct{}, len(extraHolidays))
	for _, d := range extraHolidays {
		extra[dateutil.FormatDate(d)] = struct{}{}
	}

	if len(extra) > 0 {
		logger.Info("Extra holidays configured",
			zap.Int("count", len(extra)))
	}

	return &WorkCalendar{
		business:      business,
		extraHolidays: extra,
		hoursPerDay:   hoursPerDay,
		logger:        logger,
	}
}

// IsWorkingDay reports whether the date is a weekday that is not a public
// holiday for the date's (day, month, year)
func (c *WorkCalendar) IsWorkingDay(date time.Time) bool {
	if dateutil.IsWeekend(date) {
		return false
	}
	if _, ok := c.extraHolidays[dateutil.FormatDate(date)]; ok {
		return false
	}
	actual, observed, _ := c.business.IsHoliday(date)
	return !actual && !observed
}

// TotalWorkHoursSince walks backward day-by-day from to down to from
// inclusive, summing hoursPerDay for each working day encountered.
func (c *WorkCalendar) TotalWorkHoursSince(from, to time.Time) float64 {
	day := dateutil.StartOfDay(to)
	first := dateutil.StartOfDay(from)

	hours := 0.0
	for !day.Before(first) {
		if c.IsWorkingDay(day) {
			hours += c.hoursPerDay
		}
		day = day.AddDate(0, 0, -1)
	}
	return hours
}

// LatestFullWorkingDay returns the most recent working day strictly before
// the reference date
func (c *WorkCalendar) LatestFullWorkingDay(reference time.Time) time.Time {
	day := dateutil.StartOfDay(reference)
	for {
		day = day.AddDate(0, 0, -1)
		if c.IsWorkingDay(day) {
			return day
		}
	}
}

// WorkingDaysInMonth counts working days in the month. Derived from
// TotalWorkHoursSince so day counting and hour counting cannot diverge.
func (c *WorkCalendar) WorkingDaysInMonth(year int, month time.Month) int {
	first := dateutil.FirstOfMonth(year, month)
	last := dateutil.LastOfMonth(year, month)
	hours := c.TotalWorkHoursSince(first, last)
	return int(hours/c.hoursPerDay + 0.5)
}

// WorkingDaysOfMonth returns the working days of the month in ascending
// order, the canonical expected-attendance set for missing-day reports
func (c *WorkCalendar) WorkingDaysOfMonth(year int, month time.Month) []time.Time {
	day := dateutil.FirstOfMonth(year, month)

	var days []time.Time
	for day.Month() == month {
		if c.IsWorkingDay(day) {
			days = append(days, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// HoursPerDay returns the working hours expected per working day
func (c *WorkCalendar) HoursPerDay() float64 {
	return c.hoursPerDay
}

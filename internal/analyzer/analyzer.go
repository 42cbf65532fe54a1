// Package analyzer classifies time entries against a task taxonomy and
// computes per-user hour statistics, flextime balances and billing rollups.
// All computations are pure: inputs arrive in full, results are returned in
// full, and no state is shared between invocations.
package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/username/flextime-bot/internal/calendar"
	"github.com/username/flextime-bot/internal/taxonomy"
)

// Analyzer computes statistics over normalized time entries.
type Analyzer struct {
	calendar calendar.Calendar
	taxonomy *taxonomy.Taxonomy
	logger   *zap.Logger
}

func New(cal calendar.Calendar, tax *taxonomy.Taxonomy, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		calendar: cal,
		taxonomy: tax,
		logger:   logger,
	}
}

// PeriodRange is a sorted slice of entries bounded by the period start and end.
type PeriodRange struct {
	Entries []TimeEntry
	Start   time.Time
	End     time.Time
}

// PeriodRange sorts entries by date and bounds them by an end date. The end
// is today when the user has already logged hours for today, otherwise the
// latest full working day, so an in-progress day never skews the balance.
func (a *Analyzer) PeriodRange(entries []TimeEntry, latestFullDay, today time.Time) (PeriodRange, error) {
	if len(entries) == 0 {
		return PeriodRange{}, fmt.Errorf("no time entries to analyze")
	}

	sorted := make([]TimeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	latestRecord := sorted[len(sorted)-1].Date
	end := latestFullDay
	if calendar.DatesEqual(latestRecord, today) {
		end = latestRecord
	}

	inRange := make([]TimeEntry, 0, len(sorted))
	for _, entry := range sorted {
		if !entry.Date.After(end) {
			inRange = append(inRange, entry)
		}
	}

	return PeriodRange{
		Entries: inRange,
		Start:   sorted[0].Date,
		End:     end,
	}, nil
}

// WorkedHours summarizes hours over a period with a month-to-date
// billable percentage.
type WorkedHours struct {
	Total                          float64
	BillablePercentageCurrentMonth int
	Warnings                       []string
}

// CalculateWorkedHours accumulates total hours over the period, excluding
// public-holiday and flex-leave entries from the total. Billable and
// non-billable hours are split for the calendar month of now only, yielding
// a month-to-date billable percentage floored to a whole number.
func (a *Analyzer) CalculateWorkedHours(entries []TimeEntry, now time.Time) WorkedHours {
	var total, billable, nonBillable float64

	for _, entry := range entries {
		category := a.taxonomy.Category(entry.TaskID)
		ignored := category == taxonomy.PublicHoliday || category == taxonomy.FlexLeave
		if ignored {
			continue
		}
		total += entry.Hours

		if entry.Date.Year() == now.Year() && entry.Date.Month() == now.Month() {
			if entry.Billable {
				billable += entry.Hours
			} else {
				nonBillable += entry.Hours
			}
		}
	}

	percentage := 0
	if allHours := billable + nonBillable; allHours > 0 {
		percentage = int(math.Floor(billable / allHours * 100))
	}

	return WorkedHours{
		Total:                          total,
		BillablePercentageCurrentMonth: percentage,
		Warnings:                       nil,
	}
}

// dayInfo classifies a single entry for the per-user statistics folds.
type dayInfo struct {
	isCalendarWorkingDay bool
	isWorkingOrSickDay   bool
	isBillable           bool
}

func (a *Analyzer) dayInfo(entry TimeEntry) dayInfo {
	workingOrSick := !a.taxonomy.IsDayOff(entry.TaskID)
	return dayInfo{
		isCalendarWorkingDay: a.calendar.IsWorkingDay(entry.Date),
		isWorkingOrSickDay:   workingOrSick,
		isBillable:           workingOrSick && entry.Billable,
	}
}

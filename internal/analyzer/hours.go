package analyzer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/username/flextime-bot/internal/taxonomy"
	"github.com/username/flextime-bot/pkg/dateutil"
)

// HoursStats is one user's aggregated statistics for a reporting month.
type HoursStats struct {
	Name             string
	Days             int
	HoursPerCalendar float64
	Hours            float64
	BillableHours    float64
	ProjectNames     string

	BillablePercentage float64
	FlexSaldo          float64

	SickDays          int
	SickHours         float64
	ChildSickHours    float64
	InternalHours     float64
	VacationDays      int
	VacationDates     string
	UnpaidLeaveDays   int
	ParentalLeaveDays int
	ExtraPaidDays     int
	FlexLeaveDays     int

	MarkedDays  int
	MissingDays int
}

// hoursAccumulator folds entries into day counts and hour sums. Day counts
// are keyed by distinct date so several entries on one date count once,
// while hour sums take every entry.
type hoursAccumulator struct {
	seenDates map[string]struct{}

	workingDays       int
	sickDays          int
	vacationDays      int
	vacationDates     []int
	unpaidLeaveDays   int
	parentalLeaveDays int
	extraPaidDays     int
	flexLeaveDays     int

	hours          float64
	billableHours  float64
	sickHours      float64
	childSickHours float64
	internalHours  float64

	projectNames []string
}

func (acc *hoursAccumulator) addDayCounts(entry TimeEntry, category taxonomy.Category, isHoliday bool) {
	key := dateutil.FormatDate(entry.Date)
	if _, seen := acc.seenDates[key]; seen {
		return
	}
	acc.seenDates[key] = struct{}{}

	if !isHoliday {
		acc.workingDays++
	}
	switch category {
	case taxonomy.SickLeave:
		acc.sickDays++
	case taxonomy.Vacation:
		acc.vacationDays++
		acc.vacationDates = append(acc.vacationDates, entry.Date.Day())
	case taxonomy.UnpaidLeave:
		acc.unpaidLeaveDays++
	case taxonomy.ParentalLeave:
		acc.parentalLeaveDays++
	case taxonomy.ExtraPaidLeave:
		acc.extraPaidDays++
	case taxonomy.FlexLeave:
		acc.flexLeaveDays++
	}
}

func (acc *hoursAccumulator) addProject(name string) {
	for _, existing := range acc.projectNames {
		if existing == name {
			return
		}
	}
	acc.projectNames = append(acc.projectNames, name)
}

// HoursStats folds one user's monthly entries into a statistics row.
// fullCalendarDays is the expected number of working days in the period as
// reported by the calendar; a user marking more distinct working days than
// the calendar holds signals inconsistent data and is returned as an error.
func (a *Analyzer) HoursStats(ue UserEntries, fullCalendarDays int) (HoursStats, error) {
	acc := hoursAccumulator{seenDates: make(map[string]struct{})}

	for _, entry := range ue.Entries {
		info := a.dayInfo(entry)
		category := a.taxonomy.Category(entry.TaskID)

		if info.isCalendarWorkingDay {
			acc.addDayCounts(entry, category, a.taxonomy.IsHoliday(entry.TaskID))
		}
		if info.isWorkingOrSickDay {
			acc.hours += entry.Hours
		}
		if info.isBillable {
			acc.billableHours += entry.Hours
			acc.addProject(entry.ProjectName)
		}
		switch category {
		case taxonomy.SickLeave:
			acc.sickHours += entry.Hours
		case taxonomy.ChildSickness:
			acc.childSickHours += entry.Hours
		case taxonomy.InternallyInvoicable:
			acc.internalHours += entry.Hours
		}
	}

	hoursPerCalendar := float64(acc.workingDays) * a.calendar.HoursPerDay()
	billablePercentage := 0.0
	if acc.hours > 0 {
		billablePercentage = acc.billableHours / acc.hours * 100
	}

	markedDays := len(acc.seenDates)
	missingDays := markedDays - fullCalendarDays
	if missingDays > 0 {
		return HoursStats{}, fmt.Errorf(
			"user %s marked %d distinct working days but the calendar only has %d",
			ue.User.FullName(), markedDays, fullCalendarDays)
	}

	return HoursStats{
		Name:               ue.User.FullName(),
		Days:               acc.workingDays,
		HoursPerCalendar:   hoursPerCalendar,
		Hours:              acc.hours,
		BillableHours:      acc.billableHours,
		ProjectNames:       strings.Join(acc.projectNames, ","),
		BillablePercentage: billablePercentage,
		FlexSaldo:          acc.hours - hoursPerCalendar,
		SickDays:           acc.sickDays,
		SickHours:          acc.sickHours,
		ChildSickHours:     acc.childSickHours,
		InternalHours:      acc.internalHours,
		VacationDays:       acc.vacationDays,
		VacationDates:      CompressDays(acc.vacationDates),
		UnpaidLeaveDays:    acc.unpaidLeaveDays,
		ParentalLeaveDays:  acc.parentalLeaveDays,
		ExtraPaidDays:      acc.extraPaidDays,
		FlexLeaveDays:      acc.flexLeaveDays,
		MarkedDays:         markedDays,
		MissingDays:        missingDays,
	}, nil
}

// CompressDays renders day-of-month numbers as compact ranges, so
// [3 4 5 9 10] becomes "3-5,9-10" and [7] becomes "7".
func CompressDays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	sorted := make([]int, len(days))
	copy(sorted, days)
	sort.Ints(sorted)

	var parts []string
	start, prev := sorted[0], sorted[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, day := range sorted[1:] {
		if day == prev || day == prev+1 {
			prev = day
			continue
		}
		flush()
		start, prev = day, day
	}
	flush()
	return strings.Join(parts, ",")
}

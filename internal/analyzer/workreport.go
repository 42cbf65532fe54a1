package analyzer

import (
	"github.com/username/flextime-bot/internal/taxonomy"
	"github.com/username/flextime-bot/pkg/dateutil"
)

// maxWeeklyHours caps a working week for the sanity ceiling in the
// working-hours report. It is a reporting reference, not an enforced limit.
const maxWeeklyHours = 48

// WorkingHoursReport is one user's row in the multi-month working-hours
// report used for working-time compliance reviews.
type WorkingHoursReport struct {
	Name            string
	NonVacationDays int
	VacationDays    int
	WorkWeeks       float64
	MaxWorkHours    float64
	TotalWorkHours  float64

	BillableHours  float64
	InternalHours  float64
	ProductHours   float64
	SickHours      float64
	ChildSickHours float64
}

// WorkingHoursReportData folds one user's entries over a multi-month range.
// expectedWeekdays is the number of weekdays in the range; vacation days are
// subtracted from it to derive the working-week count and the hour ceiling.
// Total hours count every entry that counts toward work hours, billable or
// tagged as a working leave category.
func (a *Analyzer) WorkingHoursReportData(ue UserEntries, expectedWeekdays int) WorkingHoursReport {
	report := WorkingHoursReport{Name: ue.User.FullName()}

	vacationDates := make(map[string]struct{})
	for _, entry := range ue.Entries {
		category := a.taxonomy.Category(entry.TaskID)

		if category == taxonomy.Vacation {
			vacationDates[dateutil.FormatDate(entry.Date)] = struct{}{}
		}
		if a.taxonomy.CountsTowardWorkHours(entry.TaskID, entry.Billable) {
			report.TotalWorkHours += entry.Hours
		}
		if entry.Billable {
			report.BillableHours += entry.Hours
		}
		switch category {
		case taxonomy.InternallyInvoicable:
			report.InternalHours += entry.Hours
		case taxonomy.ProductServiceDevelopment:
			report.ProductHours += entry.Hours
		case taxonomy.SickLeave:
			report.SickHours += entry.Hours
		case taxonomy.ChildSickness:
			report.ChildSickHours += entry.Hours
		}
	}

	report.VacationDays = len(vacationDates)
	report.NonVacationDays = expectedWeekdays - report.VacationDays
	report.WorkWeeks = float64(report.NonVacationDays) / 5
	report.MaxWorkHours = report.WorkWeeks * maxWeeklyHours
	return report
}

package report

import (
	"strconv"

	"github.com/username/flextime-bot/internal/analyzer"
	"github.com/username/flextime-bot/internal/render"
	"github.com/username/flextime-bot/pkg/dateutil"
)

var hoursStatsHeaders = []string{
	"Name",
	"Working days",
	"Full hours",
	"Done hours",
	"Billable",
	"Project",
	"Billable%",
	"Plus / minus",
	"Internally invoicable, hours",
	"Sick leave, hours",
	"Sick leave - child's sickness, hours",
	"Paid vacation, days",
	"Unpaid vacation, days",
	"Parental leave, days",
	"Extra paid leave, days",
	"Paid vacation dates",
	"Marked days",
	"Missing days",
}

var billableStatsHeaders = []string{
	"Project",
	"Task",
	"Hour rate",
	"Consultant",
	"Hours",
	"EUR",
	"Avg hour rate",
}

var workingHoursHeaders = []string{
	"Name",
	"Non-vacation days",
	"Vacation days",
	"Working weeks",
	"Max working hours",
	"Total working hours",
	"Billable hours",
	"Internally invoicable, hours",
	"Product development, hours",
	"Sick leave, hours",
	"Child sickness, hours",
}

var billingEntryHeaders = []string{
	"Date",
	"Task",
	"Notes",
	"Hours",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

// statsSection is one labeled block of user rows in the hours sheet.
type statsSection struct {
	name string
	rows []analyzer.HoursStats
}

func hoursStatsTable(title string, calendarDays int, sections []statsSection) render.Table {
	records := [][]string{
		{"CALENDAR DAYS", formatInt(calendarDays)},
		{""},
	}
	for i, section := range sections {
		if i > 0 {
			records = append(records, []string{""})
		}
		records = append(records, []string{section.name})
		for _, stats := range section.rows {
			records = append(records, []string{
				stats.Name,
				formatInt(stats.Days),
				formatFloat(stats.HoursPerCalendar),
				formatFloat(stats.Hours),
				formatFloat(stats.BillableHours),
				stats.ProjectNames,
				formatFloat(stats.BillablePercentage),
				formatFloat(stats.FlexSaldo),
				formatFloat(stats.InternalHours),
				formatFloat(stats.SickHours),
				formatFloat(stats.ChildSickHours),
				formatInt(stats.VacationDays),
				formatInt(stats.UnpaidLeaveDays),
				formatInt(stats.ParentalLeaveDays),
				formatInt(stats.ExtraPaidDays),
				stats.VacationDates,
				formatInt(stats.MarkedDays),
				formatInt(stats.MissingDays),
			})
		}
	}
	return render.Table{Title: title, Headers: hoursStatsHeaders, Records: records}
}

func billableStatsTable(title string, rows []analyzer.BillingRow) render.Table {
	var records [][]string
	for _, row := range rows {
		switch r := row.(type) {
		case analyzer.ProjectHeaderRow:
			records = append(records, []string{
				r.ProjectName, "", "", "", formatFloat(r.Hours), formatFloat(r.Total), "",
			})
		case analyzer.TaskRow:
			records = append(records, []string{
				"", r.TaskName, formatFloat(r.Rate), "", formatFloat(r.Hours), formatFloat(r.Total), "",
			})
		case analyzer.UserRow:
			records = append(records, []string{
				"", "", "", r.Name, formatFloat(r.Hours), formatFloat(r.Total), "",
			})
		case analyzer.SeparatorRow:
			records = append(records, []string{""})
		case analyzer.TotalRow:
			records = append(records, []string{
				"", "", "", "", formatFloat(r.Hours), formatFloat(r.Total), formatFloat(r.Avg),
			})
		}
	}
	return render.Table{Title: title, Headers: billableStatsHeaders, Records: records}
}

func workingHoursTable(title string, reports []analyzer.WorkingHoursReport) render.Table {
	var records [][]string
	for _, r := range reports {
		records = append(records, []string{
			r.Name,
			formatInt(r.NonVacationDays),
			formatInt(r.VacationDays),
			formatFloat(r.WorkWeeks),
			formatFloat(r.MaxWorkHours),
			formatFloat(r.TotalWorkHours),
			formatFloat(r.BillableHours),
			formatFloat(r.InternalHours),
			formatFloat(r.ProductHours),
			formatFloat(r.SickHours),
			formatFloat(r.ChildSickHours),
		})
	}
	return render.Table{Title: title, Headers: workingHoursHeaders, Records: records}
}

func billingEntriesTable(title string, entries []analyzer.TimeEntry) render.Table {
	var records [][]string
	var total float64
	for _, e := range entries {
		records = append(records, []string{
			dateutil.FormatDate(e.Date),
			e.TaskName,
			e.Notes,
			formatFloat(e.Hours),
		})
		total += e.Hours
	}
	records = append(records, []string{"", "", "Total", formatFloat(total)})
	return render.Table{Title: title, Headers: billingEntryHeaders, Records: records}
}

package analyzer

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/username/flextime-bot/internal/taxonomy"
	"github.com/username/flextime-bot/pkg/dateutil"
)

// weekdayCalendar treats every Monday to Friday as a working day with a
// 7.5 hour day, which keeps the tests independent of any holiday table.
type weekdayCalendar struct{}

func (weekdayCalendar) IsWorkingDay(date time.Time) bool { return dateutil.IsWeekday(date) }

func (c weekdayCalendar) TotalWorkHoursSince(from, to time.Time) float64 {
	total := 0.0
	for day := dateutil.StartOfDay(to); !day.Before(dateutil.StartOfDay(from)); day = day.AddDate(0, 0, -1) {
		if c.IsWorkingDay(day) {
			total += c.HoursPerDay()
		}
	}
	return total
}

func (c weekdayCalendar) LatestFullWorkingDay(reference time.Time) time.Time {
	day := dateutil.StartOfDay(reference)
	for {
		day = day.AddDate(0, 0, -1)
		if c.IsWorkingDay(day) {
			return day
		}
	}
}

func (c weekdayCalendar) WorkingDaysInMonth(year int, month time.Month) int {
	return len(c.WorkingDaysOfMonth(year, month))
}

func (c weekdayCalendar) WorkingDaysOfMonth(year int, month time.Month) []time.Time {
	var days []time.Time
	last := dateutil.LastOfMonth(year, month)
	for day := dateutil.FirstOfMonth(year, month); !day.After(last); day = day.AddDate(0, 0, 1) {
		if c.IsWorkingDay(day) {
			days = append(days, day)
		}
	}
	return days
}

func (weekdayCalendar) HoursPerDay() float64 { return 7.5 }

func testTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.NewIDTaxonomy(taxonomy.Mapping{
		PublicHoliday:             "100",
		Vacation:                  "101",
		UnpaidLeave:               "102",
		ParentalLeave:             "103",
		ExtraPaidLeave:            "104",
		FlexLeave:                 "105",
		SickLeave:                 "106",
		ChildSickness:             "107",
		InternallyInvoicable:      "108",
		ProductServiceDevelopment: "109",
	})
	if err != nil {
		t.Fatalf("building taxonomy: %v", err)
	}
	return tax
}

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	return New(weekdayCalendar{}, testTaxonomy(t), zap.NewNop())
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestPeriodRangeEmptyEntries(t *testing.T) {
	a := testAnalyzer(t)
	if _, err := a.PeriodRange(nil, date(2024, time.March, 1), date(2024, time.March, 4)); err == nil {
		t.Fatal("expected an error for an empty entry list")
	}
}

func TestPeriodRangeEndsOnLatestFullDay(t *testing.T) {
	a := testAnalyzer(t)
	today := date(2024, time.March, 6)
	latestFull := date(2024, time.March, 5)

	entries := []TimeEntry{
		{Date: date(2024, time.March, 6), Hours: 2},
		{Date: date(2024, time.March, 1), Hours: 7.5},
		{Date: date(2024, time.March, 4), Hours: 7.5},
	}

	r, err := a.PeriodRange(entries, latestFull, today)
	if err != nil {
		t.Fatalf("PeriodRange: %v", err)
	}
	// Last record is today, so the in-progress day is included.
	if !r.End.Equal(date(2024, time.March, 6)) {
		t.Errorf("end = %v, want today", r.End)
	}
	if !r.Start.Equal(date(2024, time.March, 1)) {
		t.Errorf("start = %v, want first entry date", r.Start)
	}
	if len(r.Entries) != 3 {
		t.Errorf("entries in range = %d, want 3", len(r.Entries))
	}

	// Without an entry for today the range stops at the latest full day.
	r, err = a.PeriodRange(entries[1:], latestFull, today)
	if err != nil {
		t.Fatalf("PeriodRange: %v", err)
	}
	if !r.End.Equal(latestFull) {
		t.Errorf("end = %v, want latest full working day %v", r.End, latestFull)
	}
	if len(r.Entries) != 2 {
		t.Errorf("entries in range = %d, want 2", len(r.Entries))
	}
}

func TestPeriodRangeSortsEntries(t *testing.T) {
	a := testAnalyzer(t)
	entries := []TimeEntry{
		{Date: date(2024, time.March, 4), Notes: "later"},
		{Date: date(2024, time.March, 1), Notes: "earlier"},
	}
	r, err := a.PeriodRange(entries, date(2024, time.March, 5), date(2024, time.March, 6))
	if err != nil {
		t.Fatalf("PeriodRange: %v", err)
	}
	if r.Entries[0].Notes != "earlier" || r.Entries[1].Notes != "later" {
		t.Errorf("entries not sorted by date: %+v", r.Entries)
	}
}

func TestCalculateWorkedHours(t *testing.T) {
	a := testAnalyzer(t)
	now := date(2024, time.March, 15)

	entries := []TimeEntry{
		// Previous month, counts toward total only.
		{Date: date(2024, time.February, 15), TaskID: "200", Hours: 7.5, Billable: true},
		// Current month billable and non-billable.
		{Date: date(2024, time.March, 4), TaskID: "200", Hours: 6, Billable: true},
		{Date: date(2024, time.March, 5), TaskID: "108", Hours: 4, Billable: false},
		// Excluded from the total entirely.
		{Date: date(2024, time.March, 6), TaskID: "100", Hours: 7.5, Billable: false},
		{Date: date(2024, time.March, 7), TaskID: "105", Hours: 7.5, Billable: false},
	}

	result := a.CalculateWorkedHours(entries, now)
	if want := 17.5; result.Total != want {
		t.Errorf("total = %v, want %v", result.Total, want)
	}
	// 6 / 10 hours billable this month, floored.
	if result.BillablePercentageCurrentMonth != 60 {
		t.Errorf("billable%% = %d, want 60", result.BillablePercentageCurrentMonth)
	}
}

func TestCalculateWorkedHoursFloorsPercentage(t *testing.T) {
	a := testAnalyzer(t)
	now := date(2024, time.March, 15)
	entries := []TimeEntry{
		{Date: date(2024, time.March, 4), TaskID: "200", Hours: 2, Billable: true},
		{Date: date(2024, time.March, 4), TaskID: "200", Hours: 1, Billable: false},
	}
	// 2/3 is 66.67%, floor gives 66.
	if got := a.CalculateWorkedHours(entries, now).BillablePercentageCurrentMonth; got != 66 {
		t.Errorf("billable%% = %d, want 66", got)
	}
}

func TestCalculateWorkedHoursZeroDenominator(t *testing.T) {
	a := testAnalyzer(t)
	result := a.CalculateWorkedHours(nil, date(2024, time.March, 15))
	if result.Total != 0 || result.BillablePercentageCurrentMonth != 0 {
		t.Errorf("empty input should zero everything, got %+v", result)
	}
}

package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/username/flextime-bot/internal/analyzer"
	"github.com/username/flextime-bot/internal/render"
	"github.com/username/flextime-bot/internal/taxonomy"
	"github.com/username/flextime-bot/pkg/dateutil"
)

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

type fakeProvider struct {
	users    []analyzer.User
	monthly  map[string][]analyzer.TimeEntry
	personal []analyzer.TimeEntry
	rates    analyzer.RateTable
}

func (p *fakeProvider) GetUsers() ([]analyzer.User, error) { return p.users, nil }

func (p *fakeProvider) GetMonthlyTimeEntries(year int, month time.Month) ([]analyzer.TimeEntry, error) {
	return p.monthly[fmt.Sprintf("%d-%d", year, int(month))], nil
}

func (p *fakeProvider) GetTimeEntriesForEmail(userName string, localPart func(string) string) ([]analyzer.TimeEntry, error) {
	for _, u := range p.users {
		if localPart(u.Email) == userName {
			return p.personal, nil
		}
	}
	return nil, fmt.Errorf("no user found for %s", userName)
}

func (p *fakeProvider) GetRateTable() (analyzer.RateTable, error) {
	if p.rates == nil {
		return analyzer.NoRates, nil
	}
	return p.rates, nil
}

type fixedRates map[string]float64

func (r fixedRates) Rate(projectID, taskID string) (float64, bool) {
	rate, ok := r[projectID+"/"+taskID]
	return rate, ok
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, provider Provider) *Service {
	t.Helper()
	tax, err := taxonomy.NewIDTaxonomy(taxonomy.Mapping{
		Vacation:  "101",
		SickLeave: "106",
		FlexLeave: "105",
	})
	if err != nil {
		t.Fatalf("building taxonomy: %v", err)
	}

	cal := weekdayCalendar{}
	anlz := analyzer.New(cal, tax, zap.NewNop())
	writer := render.NewWriter(t.TempDir(), zap.NewNop())
	return NewService(provider, anlz, cal, writer, []string{"example.com"}, zap.NewNop())
}

func TestCalcFlextime(t *testing.T) {
	provider := &fakeProvider{
		users: []analyzer.User{
			{ID: "u1", FirstName: "Maija", Email: "maija@example.com", IsActive: true},
		},
		personal: []analyzer.TimeEntry{
			{UserID: "u1", Date: date(2024, time.March, 4), TaskID: "200", Hours: 7.5, Billable: true},
			{UserID: "u1", Date: date(2024, time.March, 5), TaskID: "200", Hours: 9.25, Billable: true},
		},
	}

	s := newTestService(t, provider)
	s.now = func() time.Time { return date(2024, time.March, 6) } // Wednesday

	result := s.CalcFlextime("maija@example.com")
	// 16.75 hours done against 15 expected, floored to the nearest half.
	if result.Header != "*Your flex hours count: 1.5*" {
		t.Errorf("header = %q", result.Header)
	}

	joined := strings.Join(result.Messages, "\n")
	if !strings.Contains(joined, "Current month 100% billable") {
		t.Errorf("messages = %q", joined)
	}
	if !strings.Contains(joined, "Latest calendar working day: Tuesday, March 5, 2024") {
		t.Errorf("messages = %q", joined)
	}
}

func TestCalcFlextimeOnlyFutureEntries(t *testing.T) {
	provider := &fakeProvider{
		users: []analyzer.User{
			{ID: "u1", FirstName: "Maija", Email: "maija@example.com", IsActive: true},
		},
		personal: []analyzer.TimeEntry{
			// Vacation logged ahead of time, past the period end.
			{UserID: "u1", Date: date(2024, time.March, 8), TaskID: "101", Hours: 7.5},
		},
	}

	s := newTestService(t, provider)
	s.now = func() time.Time { return date(2024, time.March, 6) }

	result := s.CalcFlextime("maija@example.com")
	if result.Header != "Unable to find time entries for maija@example.com" {
		t.Errorf("header = %q", result.Header)
	}
}

func TestCalcFlextimeNegativeBalanceFloors(t *testing.T) {
	provider := &fakeProvider{
		users: []analyzer.User{
			{ID: "u1", FirstName: "Maija", Email: "maija@example.com", IsActive: true},
		},
		personal: []analyzer.TimeEntry{
			{UserID: "u1", Date: date(2024, time.March, 4), TaskID: "200", Hours: 7.5, Billable: true},
			{UserID: "u1", Date: date(2024, time.March, 5), TaskID: "200", Hours: 5.9, Billable: true},
		},
	}

	s := newTestService(t, provider)
	s.now = func() time.Time { return date(2024, time.March, 6) }

	// 13.4 done against 15 expected is -1.6, floored down to -2.
	result := s.CalcFlextime("maija@example.com")
	if result.Header != "*Your flex hours count: -2*" {
		t.Errorf("header = %q", result.Header)
	}
}

func TestCalcFlextimeInvalidDomain(t *testing.T) {
	s := newTestService(t, &fakeProvider{})
	result := s.CalcFlextime("someone@evil.test")
	if !strings.Contains(result.Header, "Invalid email domain") {
		t.Errorf("header = %q", result.Header)
	}
}

func TestCalcFlextimeUnknownUser(t *testing.T) {
	s := newTestService(t, &fakeProvider{})
	result := s.CalcFlextime("ghost@example.com")
	if !strings.Contains(result.Header, "Unable to find time entries") {
		t.Errorf("header = %q", result.Header)
	}
}

func TestMonthlyStatsRequiresAdmin(t *testing.T) {
	provider := &fakeProvider{
		users: []analyzer.User{
			{ID: "u1", FirstName: "Maija", Email: "maija@example.com", IsActive: true},
		},
	}
	s := newTestService(t, provider)
	if _, err := s.MonthlyStats(2024, time.March, "maija@example.com"); err == nil {
		t.Fatal("expected authorization error for non-admin requester")
	}
}

func TestMonthlyStats(t *testing.T) {
	provider := &fakeProvider{
		users: []analyzer.User{
			{ID: "u1", FirstName: "Maija", LastName: "Mallikas", Email: "maija@example.com", IsActive: true, IsAdmin: true},
			{ID: "u2", FirstName: "Teppo", LastName: "Testaaja", Email: "teppo@example.com", IsActive: true, IsContractor: true},
			{ID: "u3", FirstName: "Niilo", LastName: "Nonbill", Email: "niilo@example.com", IsActive: true, Roles: []string{"Non-billable"}},
		},
		monthly: map[string][]analyzer.TimeEntry{
			"2024-3": {
				{UserID: "u1", Date: date(2024, time.March, 4), ProjectID: "p1", ProjectName: "Acme", TaskID: "1000", TaskName: "Dev", Hours: 7.5, Billable: true},
				{UserID: "u2", Date: date(2024, time.March, 4), ProjectID: "p1", ProjectName: "Acme", TaskID: "1000", TaskName: "Dev", Hours: 6, Billable: true},
				{UserID: "u3", Date: date(2024, time.March, 4), ProjectID: "p2", ProjectName: "Internal", TaskID: "2000", TaskName: "Ops", Hours: 7.5, Billable: false},
			},
		},
		rates: fixedRates{"p1/1000": 50},
	}

	s := newTestService(t, provider)
	message, err := s.MonthlyStats(2024, time.March, "maija@example.com")
	if err != nil {
		t.Fatalf("MonthlyStats: %v", err)
	}
	if !strings.Contains(message, "Stats written to") {
		t.Errorf("message = %q", message)
	}

	paths := strings.Split(strings.TrimPrefix(message, "Stats written to "), ", ")
	if len(paths) != 2 {
		t.Fatalf("output files = %d, want 2 (hours + billable)", len(paths))
	}

	file, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("opening hours sheet: %v", err)
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // section labels are shorter than data rows
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("reading hours sheet: %v", err)
	}

	var labels []string
	for _, record := range records {
		labels = append(labels, record[0])
	}
	joined := strings.Join(labels, "|")
	for _, section := range []string{"CALENDAR DAYS", "INVOICABLE", "NON-INVOICABLE", "CONTRACTORS", "Maija Mallikas", "Teppo Testaaja", "Niilo Nonbill"} {
		if !strings.Contains(joined, section) {
			t.Errorf("hours sheet missing %q, have %q", section, joined)
		}
	}
}

func TestBillingReports(t *testing.T) {
	provider := &fakeProvider{
		users: []analyzer.User{
			{ID: "u1", FirstName: "Maija", LastName: "Mallikas", Email: "maija@example.com", IsActive: true, IsAdmin: true},
			{ID: "u2", FirstName: "Teppo", LastName: "Testaaja", Email: "teppo@example.com", IsActive: true},
		},
		monthly: map[string][]analyzer.TimeEntry{
			"2024-3": {
				{UserID: "u2", Date: date(2024, time.March, 5), ProjectID: "p1", ProjectName: "Acme Oy", TaskID: "1000", TaskName: "Dev", Hours: 6, Billable: true, Notes: "tuesday work"},
				{UserID: "u2", Date: date(2024, time.March, 4), ProjectID: "p1", ProjectName: "Acme Oy", TaskID: "1000", TaskName: "Dev", Hours: 7.5, Billable: true, Notes: "monday work"},
				{UserID: "u2", Date: date(2024, time.March, 6), ProjectID: "p1", ProjectName: "Acme Oy", TaskID: "1000", TaskName: "Dev", Hours: 1, Billable: false, Notes: "internal"},
			},
		},
	}

	s := newTestService(t, provider)
	message, err := s.BillingReports(2024, time.March, []string{"testaaja"}, "maija@example.com")
	if err != nil {
		t.Fatalf("BillingReports: %v", err)
	}

	paths := strings.Split(strings.TrimPrefix(message, "Reports written to "), ", ")
	if len(paths) != 1 {
		t.Fatalf("output files = %d, want 1", len(paths))
	}
	if !strings.Contains(paths[0], "Testaaja_Acme_Oy_2024_3") {
		t.Errorf("file name = %s", paths[0])
	}

	file, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("opening report: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	// Header, two billable entries sorted by date, total row. The
	// non-billable entry is excluded.
	if len(records) != 4 {
		t.Fatalf("record count = %d, want 4", len(records))
	}
	if records[1][0] != "2024-03-04" || records[2][0] != "2024-03-05" {
		t.Errorf("entries not sorted by date: %v %v", records[1], records[2])
	}
	if records[3][3] != "13.5" {
		t.Errorf("total = %q, want 13.5", records[3][3])
	}
}

func TestBillingReportsNoMatches(t *testing.T) {
	provider := &fakeProvider{
		users: []analyzer.User{
			{ID: "u1", FirstName: "Maija", LastName: "Mallikas", Email: "maija@example.com", IsActive: true, IsAdmin: true},
		},
	}
	s := newTestService(t, provider)
	if _, err := s.BillingReports(2024, time.March, []string{"nobody"}, "maija@example.com"); err == nil {
		t.Fatal("expected error when no users match")
	}
}

func TestWorkingHoursReport(t *testing.T) {
	provider := &fakeProvider{
		users: []analyzer.User{
			{ID: "u1", FirstName: "Maija", LastName: "Mallikas", Email: "maija@example.com", IsActive: true, IsAdmin: true},
		},
		monthly: map[string][]analyzer.TimeEntry{
			"2024-2": {
				{UserID: "u1", Date: date(2024, time.February, 5), TaskID: "200", Hours: 7.5, Billable: true},
			},
			"2024-3": {
				{UserID: "u1", Date: date(2024, time.March, 4), TaskID: "101", Hours: 7.5, Billable: false},
				{UserID: "u1", Date: date(2024, time.March, 5), TaskID: "200", Hours: 8, Billable: true},
			},
		},
	}

	s := newTestService(t, provider)
	message, err := s.WorkingHoursReport(2024, time.March, 2, "maija@example.com")
	if err != nil {
		t.Fatalf("WorkingHoursReport: %v", err)
	}

	paths := strings.Split(strings.TrimPrefix(message, "Working hours report written to "), ", ")
	file, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("opening report: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count = %d, want header + 1 user", len(records))
	}

	row := records[1]
	// Feb 1 to Mar 31 2024 has 42 weekdays, one spent on vacation.
	if row[0] != "Maija Mallikas" || row[1] != "41" || row[2] != "1" {
		t.Errorf("row = %v", row)
	}
	if row[5] != "15.5" {
		t.Errorf("total work hours = %q, want 15.5", row[5])
	}
}

func TestWorkingHoursReportRejectsBadRange(t *testing.T) {
	s := newTestService(t, &fakeProvider{})
	if _, err := s.WorkingHoursReport(2024, time.March, 0, "maija@example.com"); err == nil {
		t.Fatal("expected error for zero month range")
	}
}

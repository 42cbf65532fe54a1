// Package report orchestrates the reporting flows: fetching data from a
// tracking provider, running the analysis and writing or delivering results.
// Requests arrive with the requester's email; flows that expose other
// people's hours require an admin account on the provider side.
package report

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/flextime-bot/internal/analyzer"
	"github.com/username/flextime-bot/internal/calendar"
	"github.com/username/flextime-bot/internal/render"
	"github.com/username/flextime-bot/pkg/dateutil"
)

// Provider supplies normalized users, entries and rates from a tracking
// service.
type Provider interface {
	GetUsers() ([]analyzer.User, error)
	GetMonthlyTimeEntries(year int, month time.Month) ([]analyzer.TimeEntry, error)
	GetTimeEntriesForEmail(userName string, localPart func(string) string) ([]analyzer.TimeEntry, error)
	GetRateTable() (analyzer.RateTable, error)
}

// Delivery posts a result header and its message lines to the requester.
type Delivery interface {
	Post(header string, messages []string) error
}

// Result is a flextime response: one header line plus detail lines.
type Result struct {
	Header   string
	Messages []string
}

// Service runs the reporting flows.
type Service struct {
	provider     Provider
	analyzer     *analyzer.Analyzer
	calendar     calendar.Calendar
	writer       *render.Writer
	emailDomains []string
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(
	provider Provider,
	anlz *analyzer.Analyzer,
	cal calendar.Calendar,
	writer *render.Writer,
	emailDomains []string,
	logger *zap.Logger,
) *Service {
	return &Service{
		provider:     provider,
		analyzer:     anlz,
		calendar:     cal,
		writer:       writer,
		emailDomains: emailDomains,
		logger:       logger,
		now:          time.Now,
	}
}

// localPart returns the local part of an email within the allowed domains,
// or an empty string for any other address.
func (s *Service) localPart(email string) string {
	name, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	for _, allowed := range s.emailDomains {
		if strings.EqualFold(domain, allowed) {
			return name
		}
	}
	return ""
}

// authorize resolves the requester to an admin account on the provider.
func (s *Service) authorize(email string) (analyzer.User, []analyzer.User, error) {
	userName := s.localPart(email)
	if userName == "" {
		return analyzer.User{}, nil, fmt.Errorf("invalid email domain for %s", email)
	}

	users, err := s.provider.GetUsers()
	if err != nil {
		return analyzer.User{}, nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	for _, u := range users {
		if u.IsAdmin && s.localPart(u.Email) == userName {
			return u, users, nil
		}
	}
	return analyzer.User{}, nil, fmt.Errorf("unable to authorize user %s", email)
}

// roundToHalf rounds down to the nearest half hour.
func roundToHalf(v float64) float64 {
	return math.Floor(v*2) / 2
}

func formatDay(date time.Time) string {
	return date.Format("Monday, January 2, 2006")
}

// CalcFlextime computes the requester's flex hour balance. Failures are
// reported through the result header so the requester always gets a reply.
func (s *Service) CalcFlextime(email string) Result {
	userName := s.localPart(email)
	if userName == "" {
		return Result{Header: fmt.Sprintf("Invalid email domain for %s", email)}
	}

	s.logger.Info("Fetching data", zap.String("email", email))

	entries, err := s.provider.GetTimeEntriesForEmail(userName, s.localPart)
	if err != nil || len(entries) == 0 {
		s.logger.Warn("No entries found", zap.String("email", email), zap.Error(err))
		return Result{Header: fmt.Sprintf("Unable to find time entries for %s", email)}
	}

	now := s.now()
	latestFullDay := s.calendar.LatestFullWorkingDay(now)

	r, err := s.analyzer.PeriodRange(entries, latestFullDay, now)
	if err != nil || len(r.Entries) == 0 {
		// All entries may sit past the period end, e.g. vacation logged ahead.
		return Result{Header: fmt.Sprintf("Unable to find time entries for %s", email)}
	}
	s.logger.Info("Period resolved",
		zap.Time("start", r.Start),
		zap.Time("end", r.End))

	totalHours := s.calendar.TotalWorkHoursSince(r.Start, r.End)
	worked := s.analyzer.CalculateWorkedHours(r.Entries, now)

	header := fmt.Sprintf("*Your flex hours count: %v*", roundToHalf(worked.Total-totalHours))
	messages := []string{
		fmt.Sprintf("Latest calendar working day: %s", formatDay(r.End)),
		fmt.Sprintf("Last time you have recorded hours: %s", formatDay(r.Entries[len(r.Entries)-1].Date)),
	}
	messages = append(messages, worked.Warnings...)
	messages = append(messages, fmt.Sprintf("Current month %d%% billable", worked.BillablePercentageCurrentMonth))

	return Result{Header: header, Messages: messages}
}

// MonthlyStats writes the monthly hours and billing sheets and returns a
// message naming the output files.
func (s *Service) MonthlyStats(year int, month time.Month, email string) (string, error) {
	_, users, err := s.authorize(email)
	if err != nil {
		return "", err
	}

	entries, err := s.provider.GetMonthlyTimeEntries(year, month)
	if err != nil {
		return "", fmt.Errorf("failed to fetch monthly entries: %w", err)
	}
	groups := analyzer.GroupEntriesByUser(users, entries, true)

	var invoicable, nonInvoicable, contractors []analyzer.UserEntries
	for _, g := range groups {
		switch {
		case g.User.IsContractor:
			contractors = append(contractors, g)
		case g.User.HasRole("Non-billable"):
			nonInvoicable = append(nonInvoicable, g)
		default:
			invoicable = append(invoicable, g)
		}
	}

	workDays := s.calendar.WorkingDaysInMonth(year, month)
	sections := []statsSection{
		{name: "INVOICABLE"},
		{name: "NON-INVOICABLE"},
		{name: "CONTRACTORS"},
	}
	for i, split := range [][]analyzer.UserEntries{invoicable, nonInvoicable, contractors} {
		for _, g := range split {
			stats, err := s.analyzer.HoursStats(g, workDays)
			if err != nil {
				return "", fmt.Errorf("stats for %s-%d: %w", month, year, err)
			}
			sections[i].rows = append(sections[i].rows, stats)
		}
	}

	rates, err := s.provider.GetRateTable()
	if err != nil {
		return "", fmt.Errorf("failed to fetch rate table: %w", err)
	}
	billingRows := s.analyzer.BillableStats(groups, rates)

	prefix := fmt.Sprintf("%d-%d", year, int(month))
	paths, err := s.writer.WriteTables([]render.Table{
		hoursStatsTable(prefix+"-hours", workDays, sections),
		billableStatsTable(prefix+"-billable", billingRows),
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Stats written to %s", strings.Join(paths, ", ")), nil
}

var nonWordChars = regexp.MustCompile(`\W+`)

// BillingReports writes one per-project entry listing for each selected
// user, matched by lower-cased last name.
func (s *Service) BillingReports(year int, month time.Month, lastNames []string, email string) (string, error) {
	_, users, err := s.authorize(email)
	if err != nil {
		return "", err
	}

	wanted := make(map[string]struct{}, len(lastNames))
	for _, name := range lastNames {
		wanted[strings.ToLower(name)] = struct{}{}
	}
	var selected []analyzer.User
	for _, u := range users {
		if _, ok := wanted[strings.ToLower(u.LastName)]; ok {
			selected = append(selected, u)
		}
	}
	if len(selected) == 0 {
		return "", fmt.Errorf("no users matched %s", strings.Join(lastNames, ", "))
	}

	entries, err := s.provider.GetMonthlyTimeEntries(year, month)
	if err != nil {
		return "", fmt.Errorf("failed to fetch monthly entries: %w", err)
	}

	var tables []render.Table
	for _, g := range analyzer.GroupEntriesByUser(selected, entries, false) {
		byProject := make(map[string][]analyzer.TimeEntry)
		var projectOrder []string
		for _, e := range g.Entries {
			if _, ok := byProject[e.ProjectID]; !ok {
				projectOrder = append(projectOrder, e.ProjectID)
			}
			byProject[e.ProjectID] = append(byProject[e.ProjectID], e)
		}

		for _, projectID := range projectOrder {
			projectEntries := byProject[projectID]
			sort.SliceStable(projectEntries, func(i, j int) bool {
				return projectEntries[i].Date.Before(projectEntries[j].Date)
			})
			projectName := nonWordChars.ReplaceAllString(projectEntries[0].ProjectName, "_")
			title := fmt.Sprintf("%s_%s_%d_%d", g.User.LastName, projectName, year, int(month))
			tables = append(tables, billingEntriesTable(title, projectEntries))
		}
	}
	if len(tables) == 0 {
		return "", fmt.Errorf("no billable entries for %s in %d-%d", strings.Join(lastNames, ", "), year, int(month))
	}

	paths, err := s.writer.WriteTables(tables)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Reports written to %s", strings.Join(paths, ", ")), nil
}

// WorkingHoursReport writes the multi-month working time report ending at
// the given month and spanning rangeMonths months.
func (s *Service) WorkingHoursReport(year int, month time.Month, rangeMonths int, email string) (string, error) {
	if rangeMonths < 1 {
		return "", fmt.Errorf("report range must cover at least one month, got %d", rangeMonths)
	}

	_, users, err := s.authorize(email)
	if err != nil {
		return "", err
	}

	end := dateutil.LastOfMonth(year, month)
	start := dateutil.FirstOfMonth(year, month).AddDate(0, -(rangeMonths - 1), 0)

	var entries []analyzer.TimeEntry
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		monthly, err := s.provider.GetMonthlyTimeEntries(cursor.Year(), cursor.Month())
		if err != nil {
			return "", fmt.Errorf("failed to fetch entries for %d-%d: %w", cursor.Year(), int(cursor.Month()), err)
		}
		entries = append(entries, monthly...)
	}

	expectedWeekdays := dateutil.WeekdaysBetween(start, end)
	var reports []analyzer.WorkingHoursReport
	for _, g := range analyzer.GroupEntriesByUser(users, entries, true) {
		reports = append(reports, s.analyzer.WorkingHoursReportData(g, expectedWeekdays))
	}

	title := fmt.Sprintf("%d-%d-working-hours-%dm", year, int(month), rangeMonths)
	paths, err := s.writer.WriteTables([]render.Table{workingHoursTable(title, reports)})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Working hours report written to %s", strings.Join(paths, ", ")), nil
}

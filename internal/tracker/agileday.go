package tracker

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/flextime-bot/internal/analyzer"
	"github.com/username/flextime-bot/pkg/dateutil"
)

const DefaultAgileDayBaseURL = "https://app.agileday.io/api/v1"

// AgileDay is a client for the AgileDay v1 API. AgileDay has no stable task
// IDs, so entries are classified by their lower-cased task name, and hourly
// prices ride on the entries themselves instead of a separate rate table.
type AgileDay struct {
	api    *httpClient
	logger *zap.Logger
}

func NewAgileDay(baseURL, accessToken string, logger *zap.Logger) *AgileDay {
	return &AgileDay{
		api: newHTTPClient(baseURL, map[string]string{
			"Authorization": "Bearer " + accessToken,
		}, logger),
		logger: logger,
	}
}

// GetUsers fetches every employee. The endpoint is unpaginated.
func (a *AgileDay) GetUsers() ([]analyzer.User, error) {
	var employees []agiledayEmployee
	if err := a.api.getJSON("/employee", nil, &employees); err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}

	users := make([]analyzer.User, 0, len(employees))
	for _, e := range employees {
		users = append(users, analyzer.User{
			ID:           e.ID.String(),
			FirstName:    e.FirstName,
			LastName:     e.LastName,
			Email:        e.Email,
			IsActive:     e.Active,
			IsAdmin:      e.Admin,
			IsContractor: e.Contractor,
			Roles:        e.Roles,
		})
	}

	a.logger.Info("Employees fetched", zap.Int("count", len(users)))
	return users, nil
}

// GetMonthlyTimeEntries fetches all submitted time reports for one month.
func (a *AgileDay) GetMonthlyTimeEntries(year int, month time.Month) ([]analyzer.TimeEntry, error) {
	query := url.Values{
		"startDate": {dateutil.FormatDate(dateutil.FirstOfMonth(year, month))},
		"endDate":   {dateutil.FormatDate(dateutil.LastOfMonth(year, month))},
		"status":    {"submitted"},
	}

	var raw []agiledayTimeEntry
	if err := a.api.getJSON("/time_reporting", query, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch time reports: %w", err)
	}

	entries := make([]analyzer.TimeEntry, 0, len(raw))
	for _, e := range raw {
		entry, err := normalizeAgileDayEntry(e)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	a.logger.Info("Time reports fetched", zap.Int("count", len(entries)))
	return entries, nil
}

// GetTimeEntriesForEmail is not available on AgileDay; flextime balances
// are served from providers with full per-user entry history.
func (a *AgileDay) GetTimeEntriesForEmail(string, func(string) string) ([]analyzer.TimeEntry, error) {
	return nil, fmt.Errorf("agileday does not support per-user entry history")
}

// GetRateTable returns an empty table; AgileDay prices ride on entries.
func (a *AgileDay) GetRateTable() (analyzer.RateTable, error) {
	return analyzer.NoRates, nil
}

func normalizeAgileDayEntry(e agiledayTimeEntry) (analyzer.TimeEntry, error) {
	date, err := dateutil.ParseDate(e.Date)
	if err != nil {
		return analyzer.TimeEntry{}, fmt.Errorf(
			"time report for employee %s on %q: %w", e.EmployeeID, e.Date, err)
	}
	return analyzer.TimeEntry{
		UserID:      e.EmployeeID.String(),
		Date:        date,
		Hours:       e.ActualHours,
		Billable:    e.Billable,
		ProjectID:   e.ProjectID.String(),
		ProjectName: e.ProjectName,
		TaskID:      strings.ToLower(e.ProjectTask),
		TaskName:    e.ProjectTask,
		Notes:       e.Note,
		Company:     e.CustomerName,
		HourlyPrice: e.HourlyPrice,
	}, nil
}

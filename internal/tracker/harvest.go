package tracker

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/username/flextime-bot/internal/analyzer"
	"github.com/username/flextime-bot/pkg/dateutil"
)

const DefaultHarvestBaseURL = "https://api.harvestapp.com/v2"

// Harvest is a client for the Harvest v2 API. Harvest identifies tasks by
// stable numeric IDs and supplies hourly rates out-of-band through task
// assignments, so a rate table fetch is part of the billing flow.
type Harvest struct {
	api    *httpClient
	logger *zap.Logger
}

func NewHarvest(baseURL, accessToken, accountID string, logger *zap.Logger) *Harvest {
	return &Harvest{
		api: newHTTPClient(baseURL, map[string]string{
			"Authorization":      "Bearer " + accessToken,
			"Harvest-Account-Id": accountID,
		}, logger),
		logger: logger,
	}
}

// GetUsers fetches every user account, walking all pages.
func (h *Harvest) GetUsers() ([]analyzer.User, error) {
	var users []analyzer.User

	page := 1
	for {
		var resp harvestUsersPage
		query := url.Values{"page": {strconv.Itoa(page)}}
		if err := h.api.getJSON("/users", query, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch users page %d: %w", page, err)
		}
		for _, u := range resp.Users {
			users = append(users, analyzer.User{
				ID:           u.ID.String(),
				FirstName:    u.FirstName,
				LastName:     u.LastName,
				Email:        u.Email,
				IsActive:     u.IsActive,
				IsAdmin:      u.IsAdmin,
				IsContractor: u.IsContractor,
				Roles:        u.Roles,
			})
		}
		if resp.NextPage == nil {
			break
		}
		page = *resp.NextPage
	}

	h.logger.Info("Users fetched", zap.Int("count", len(users)))
	return users, nil
}

// GetMonthlyTimeEntries fetches all time entries spent within one month.
func (h *Harvest) GetMonthlyTimeEntries(year int, month time.Month) ([]analyzer.TimeEntry, error) {
	from := dateutil.FirstOfMonth(year, month)
	to := dateutil.LastOfMonth(year, month)
	return h.fetchTimeEntries(url.Values{
		"from": {dateutil.FormatDate(from)},
		"to":   {dateutil.FormatDate(to)},
	})
}

// GetTimeEntriesForUser fetches one user's entries. A zero year means the
// whole history, which the flextime balance needs.
func (h *Harvest) GetTimeEntriesForUser(userID string, year int) ([]analyzer.TimeEntry, error) {
	query := url.Values{"user_id": {userID}}
	if year > 0 {
		query.Set("from", fmt.Sprintf("%d-01-01", year))
		query.Set("to", fmt.Sprintf("%d-12-31", year))
	}
	return h.fetchTimeEntries(query)
}

// GetTimeEntriesForEmail resolves a user by comparing the normalized local
// part of their provider email against userName, then fetches their full
// entry history. localPart maps an email to its comparable form, returning
// an empty string for addresses outside the allowed domains.
func (h *Harvest) GetTimeEntriesForEmail(userName string, localPart func(string) string) ([]analyzer.TimeEntry, error) {
	users, err := h.GetUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if localPart(u.Email) == userName {
			return h.GetTimeEntriesForUser(u.ID, 0)
		}
	}
	return nil, fmt.Errorf("no user found for %s", userName)
}

// GetRateTable fetches all task assignments into a rate lookup table.
func (h *Harvest) GetRateTable() (analyzer.RateTable, error) {
	rates := make(rateTable)

	page := 1
	for {
		var resp harvestTaskAssignmentsPage
		query := url.Values{"page": {strconv.Itoa(page)}}
		if err := h.api.getJSON("/task_assignments", query, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch task assignments page %d: %w", page, err)
		}
		for _, ta := range resp.TaskAssignments {
			rates[rateKey(ta.Project.ID.String(), ta.Task.ID.String())] = ta.HourlyRate
		}
		if resp.NextPage == nil {
			break
		}
		page = *resp.NextPage
	}

	h.logger.Info("Task assignments fetched", zap.Int("count", len(rates)))
	return rates, nil
}

func (h *Harvest) fetchTimeEntries(query url.Values) ([]analyzer.TimeEntry, error) {
	var entries []analyzer.TimeEntry

	page := 1
	for {
		query.Set("page", strconv.Itoa(page))
		var resp harvestTimeEntriesPage
		if err := h.api.getJSON("/time_entries", query, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch time entries page %d: %w", page, err)
		}
		for _, e := range resp.TimeEntries {
			entry, err := normalizeHarvestEntry(e)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		if resp.NextPage == nil {
			break
		}
		page = *resp.NextPage
	}

	h.logger.Info("Time entries fetched", zap.Int("count", len(entries)))
	return entries, nil
}

func normalizeHarvestEntry(e harvestTimeEntry) (analyzer.TimeEntry, error) {
	date, err := dateutil.ParseDate(e.SpentDate)
	if err != nil {
		return analyzer.TimeEntry{}, fmt.Errorf(
			"time entry for user %s on %q: %w", e.User.ID, e.SpentDate, err)
	}
	return analyzer.TimeEntry{
		UserID:      e.User.ID.String(),
		Date:        date,
		Hours:       e.Hours,
		Billable:    e.Billable,
		ProjectID:   e.Project.ID.String(),
		ProjectName: e.Project.Name,
		TaskID:      e.Task.ID.String(),
		TaskName:    e.Task.Name,
		Notes:       e.Notes,
		Company:     e.Client.Name,
	}, nil
}

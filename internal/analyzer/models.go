package analyzer

import (
	"sort"
	"time"
)

// TimeEntry is one logged unit of time against a project task on a date.
// Entries are normalized by the ingestion boundary and immutable afterwards.
type TimeEntry struct {
	UserID      string
	Date        time.Time
	Hours       float64
	Billable    bool
	ProjectID   string
	ProjectName string
	TaskID      string
	TaskName    string
	Notes       string

	// Provider-specific optional fields
	Company     string
	HourlyPrice float64 // per-entry rate for providers without a rate table
}

// User is an employee as reported by the tracking provider.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	IsActive     bool
	IsAdmin      bool
	IsContractor bool
	Roles        []string
}

// FullName returns "First Last"
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HasRole reports whether the user carries the given role tag
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserEntries pairs a user with their entries for one reporting period.
type UserEntries struct {
	User    User
	Entries []TimeEntry
}

// SortUsers returns a copy of users ordered by (FirstName, LastName),
// case-sensitive ordinal comparison.
func SortUsers(users []User) []User {
	sorted := make([]User, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FirstName != sorted[j].FirstName {
			return sorted[i].FirstName < sorted[j].FirstName
		}
		return sorted[i].LastName < sorted[j].LastName
	})
	return sorted
}

// GroupEntriesByUser groups raw entries by their owning user, in user sort
// order. Users with no entries in the period are kept only while active,
// so inactivity is surfaced explicitly. includeNonBillable=false restricts
// each user's entries to billable ones.
func GroupEntriesByUser(users []User, entries []TimeEntry, includeNonBillable bool) []UserEntries {
	byUser := make(map[string][]TimeEntry, len(users))
	for _, e := range entries {
		if !includeNonBillable && !e.Billable {
			continue
		}
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	var groups []UserEntries
	for _, u := range SortUsers(users) {
		userEntries := byUser[u.ID]
		if len(userEntries) == 0 && !u.IsActive {
			continue
		}
		groups = append(groups, UserEntries{User: u, Entries: userEntries})
	}
	return groups
}

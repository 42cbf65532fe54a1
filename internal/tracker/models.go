package tracker

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleID handles both string and number IDs in provider payloads.
// Harvest returns numeric IDs while AgileDay mixes numbers and UUID strings,
// so every ID is normalized to a string on the way in.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler for FlexibleID
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}

	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexibleID(strconv.FormatInt(n, 10))
		return nil
	}

	return fmt.Errorf("FlexibleID: cannot unmarshal %s", string(b))
}

// MarshalJSON implements json.Marshaler for FlexibleID
func (f FlexibleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// String returns string representation
func (f FlexibleID) String() string {
	return string(f)
}

// harvestRef is a {id, name} reference embedded in Harvest payloads.
type harvestRef struct {
	ID   FlexibleID `json:"id"`
	Name string     `json:"name"`
}

type harvestUser struct {
	ID           FlexibleID `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	IsActive     bool       `json:"is_active"`
	IsAdmin      bool       `json:"is_admin"`
	IsContractor bool       `json:"is_contractor"`
	Roles        []string   `json:"roles"`
}

type harvestUsersPage struct {
	Users    []harvestUser `json:"users"`
	NextPage *int          `json:"next_page"`
}

type harvestTimeEntry struct {
	SpentDate string     `json:"spent_date"`
	Hours     float64    `json:"hours"`
	Billable  bool       `json:"billable"`
	Notes     string     `json:"notes"`
	User      harvestRef `json:"user"`
	Client    harvestRef `json:"client"`
	Project   harvestRef `json:"project"`
	Task      harvestRef `json:"task"`
}

type harvestTimeEntriesPage struct {
	TimeEntries []harvestTimeEntry `json:"time_entries"`
	NextPage    *int               `json:"next_page"`
}

type harvestTaskAssignment struct {
	Project    harvestRef `json:"project"`
	Task       harvestRef `json:"task"`
	HourlyRate float64    `json:"hourly_rate"`
}

type harvestTaskAssignmentsPage struct {
	TaskAssignments []harvestTaskAssignment `json:"task_assignments"`
	NextPage        *int                    `json:"next_page"`
}

type agiledayEmployee struct {
	ID         FlexibleID `json:"id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	Active     bool       `json:"active"`
	Admin      bool       `json:"admin"`
	Contractor bool       `json:"contractor"`
	Roles      []string   `json:"roles"`
}

type agiledayTimeEntry struct {
	EmployeeID   FlexibleID `json:"employeeId"`
	Date         string     `json:"date"`
	ActualHours  float64    `json:"actualHours"`
	Billable     bool       `json:"billable"`
	ProjectID    FlexibleID `json:"projectId"`
	ProjectName  string     `json:"projectName"`
	ProjectTask  string     `json:"projectTask"`
	Note         string     `json:"note"`
	CustomerName string     `json:"customerName"`
	HourlyPrice  float64    `json:"hourlyPrice"`
}

package tracker

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestAgileDayGetUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/employee" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `[
			{"id":"e-1","firstName":"Maija","lastName":"Mallikas","email":"maija@example.com","active":true,"admin":true},
			{"id":42,"firstName":"Teppo","lastName":"Testaaja","email":"teppo@example.com","active":false,"contractor":true}
		]`)
	}))
	defer server.Close()

	a := NewAgileDay(server.URL, "token", zap.NewNop())
	users, err := a.GetUsers()
	if err != nil {
		t.Fatalf("GetUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("user count = %d, want 2", len(users))
	}
	if users[0].ID != "e-1" || !users[0].IsAdmin {
		t.Errorf("users[0] = %+v", users[0])
	}
	// Numeric employee IDs normalize to strings.
	if users[1].ID != "42" || !users[1].IsContractor {
		t.Errorf("users[1] = %+v", users[1])
	}
}

func TestAgileDayGetMonthlyTimeEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/time_reporting" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("startDate") != "2024-03-01" || q.Get("endDate") != "2024-03-31" {
			t.Errorf("range = %s..%s", q.Get("startDate"), q.Get("endDate"))
		}
		if q.Get("status") != "submitted" {
			t.Errorf("status = %q, want submitted", q.Get("status"))
		}
		fmt.Fprint(w, `[
			{"employeeId":"e-1","date":"2024-03-04","actualHours":7.5,"billable":true,
			 "projectId":"p-1","projectName":"Acme Platform","projectTask":"Development",
			 "note":"dev","customerName":"Acme Oy","hourlyPrice":95}
		]`)
	}))
	defer server.Close()

	a := NewAgileDay(server.URL, "token", zap.NewNop())
	entries, err := a.GetMonthlyTimeEntries(2024, time.March)
	if err != nil {
		t.Fatalf("GetMonthlyTimeEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(entries))
	}

	e := entries[0]
	// Task names classify AgileDay entries, lower-cased for the taxonomy.
	if e.TaskID != "development" || e.TaskName != "Development" {
		t.Errorf("task = %q/%q", e.TaskID, e.TaskName)
	}
	if e.HourlyPrice != 95 || e.Company != "Acme Oy" {
		t.Errorf("entry = %+v", e)
	}
	if !e.Date.Equal(time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", e.Date)
	}
}

func TestAgileDayNoPerUserHistory(t *testing.T) {
	a := NewAgileDay("http://unused", "token", zap.NewNop())
	if _, err := a.GetTimeEntriesForEmail("maija", func(s string) string { return s }); err == nil {
		t.Fatal("expected error")
	}
}

package reports

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("employee not found")

type Balances struct {
	Casual int `json:"casualLeave"`
	Sick   int `json:"sickLeave"`
	Total  int `json:"totalLeave"`
}

// EmployeeDashboard is the self-service overview for one employee.
type EmployeeDashboard struct {
	Year                int            `json:"year"`
	Balances            Balances       `json:"balances"`
	PendingRequests     int            `json:"pendingRequests"`
	ApprovedDaysByType  map[string]int `json:"approvedDaysByType"`
	ApprovedDays        int            `json:"approvedDays"`
	UnreadNotifications int            `json:"unreadNotifications"`
	ActiveNotices       int            `json:"activeNotices"`
}

type AdminDashboard struct {
	Month             string `json:"month"`
	ActiveEmployees   int    `json:"activeEmployees"`
	WorkingEmployees  int    `json:"workingEmployees"`
	BenchEmployees    int    `json:"benchEmployees"`
	InactiveEmployees int    `json:"inactiveEmployees"`
	PendingApprovals  int    `json:"pendingApprovals"`
	ApprovedLeaveDays int    `json:"approvedLeaveDays"`
	ActiveNotices     int    `json:"activeNotices"`
}

type Headcount struct {
	Active   int
	Working  int
	Bench    int
	Inactive int
}

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type JobRunFilter struct {
	JobType string
	Status  string
}

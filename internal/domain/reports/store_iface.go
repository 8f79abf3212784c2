package reports

import (
	"context"
	"time"
)

type StoreAPI interface {
	Balances(ctx context.Context, employeeID string) (Balances, error)
	PendingRequests(ctx context.Context, employeeID string) (int, error)
	ApprovedDaysByType(ctx context.Context, employeeID string, from, to time.Time) (map[string]int, error)
	UnreadNotifications(ctx context.Context, employeeID string) (int, error)
	ActiveNotices(ctx context.Context) (int, error)
	Headcount(ctx context.Context) (Headcount, error)
	PendingApprovals(ctx context.Context) (int, error)
	ApprovedLeaveDays(ctx context.Context, from, to time.Time) (int, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
	ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error)
}

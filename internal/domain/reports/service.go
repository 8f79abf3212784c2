package reports

import (
	"context"
	"time"
)

type Service struct {
	store    StoreAPI
	Location *time.Location
	Now      func() time.Time
}

func NewService(store StoreAPI, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, Location: loc, Now: time.Now}
}

func (s *Service) today() time.Time {
	now := s.Now().In(s.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// EmployeeDashboard summarises one employee's leave position for year.
// A zero year means the current one.
func (s *Service) EmployeeDashboard(ctx context.Context, employeeID string, year int) (EmployeeDashboard, error) {
	if year == 0 {
		year = s.today().Year()
	}
	balances, err := s.store.Balances(ctx, employeeID)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	pending, err := s.store.PendingRequests(ctx, employeeID)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	byType, err := s.store.ApprovedDaysByType(ctx, employeeID, from, from.AddDate(1, 0, 0))
	if err != nil {
		return EmployeeDashboard{}, err
	}
	unread, err := s.store.UnreadNotifications(ctx, employeeID)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	notices, err := s.store.ActiveNotices(ctx)
	if err != nil {
		return EmployeeDashboard{}, err
	}

	out := EmployeeDashboard{
		Year:                year,
		Balances:            balances,
		PendingRequests:     pending,
		ApprovedDaysByType:  byType,
		UnreadNotifications: unread,
		ActiveNotices:       notices,
	}
	if out.ApprovedDaysByType == nil {
		out.ApprovedDaysByType = map[string]int{}
	}
	for _, days := range out.ApprovedDaysByType {
		out.ApprovedDays += days
	}
	return out, nil
}

// AdminDashboard reports headcount and the leave workload of the current month.
func (s *Service) AdminDashboard(ctx context.Context) (AdminDashboard, error) {
	today := s.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	heads, err := s.store.Headcount(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}
	pending, err := s.store.PendingApprovals(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}
	approved, err := s.store.ApprovedLeaveDays(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return AdminDashboard{}, err
	}
	notices, err := s.store.ActiveNotices(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}

	return AdminDashboard{
		Month:             monthStart.Format("2006-01"),
		ActiveEmployees:   heads.Active,
		WorkingEmployees:  heads.Working,
		BenchEmployees:    heads.Bench,
		InactiveEmployees: heads.Inactive,
		PendingApprovals:  pending,
		ApprovedLeaveDays: approved,
		ActiveNotices:     notices,
	}, nil
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	total, err := s.store.CountJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.store.ListJobRuns(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

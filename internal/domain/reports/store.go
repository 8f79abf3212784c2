package reports

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"ets/internal/domain/auth"
	"ets/internal/domain/employee"
	"ets/internal/domain/leave"
	"ets/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Balances(ctx context.Context, employeeID string) (Balances, error) {
	var b Balances
	err := s.DB.QueryRow(ctx, "SELECT casual_leave, sick_leave, total_leave FROM employees WHERE id = $1", employeeID).
		Scan(&b.Casual, &b.Sick, &b.Total)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balances{}, ErrNotFound
	}
	return b, err
}

func (s *Store) PendingRequests(ctx context.Context, employeeID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM leave_requests WHERE employee_id = $1 AND status = $2", employeeID, leave.StatusPending)
}

func (s *Store) ApprovedDaysByType(ctx context.Context, employeeID string, from, to time.Time) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT leave_type, COALESCE(SUM(days), 0)
    FROM leave_requests
    WHERE employee_id = $1 AND status = $2 AND start_date >= $3 AND start_date < $4
    GROUP BY leave_type
  `, employeeID, leave.StatusApproved, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var leaveType string
		var days int
		if err := rows.Scan(&leaveType, &days); err != nil {
			return nil, err
		}
		out[leaveType] = days
	}
	return out, rows.Err()
}

func (s *Store) UnreadNotifications(ctx context.Context, employeeID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM notifications WHERE employee_id = $1 AND read_at IS NULL", employeeID)
}

func (s *Store) ActiveNotices(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM notices WHERE active")
}

func (s *Store) Headcount(ctx context.Context) (Headcount, error) {
	var h Headcount
	err := s.DB.QueryRow(ctx, `
    SELECT
      COUNT(1) FILTER (WHERE active),
      COUNT(1) FILTER (WHERE working_status = $2),
      COUNT(1) FILTER (WHERE working_status = $3),
      COUNT(1) FILTER (WHERE working_status = $4)
    FROM employees
    WHERE role = $1
  `, auth.RoleEmployee, employee.StatusWorking, employee.StatusBench, employee.StatusInactive).
		Scan(&h.Active, &h.Working, &h.Bench, &h.Inactive)
	return h, err
}

func (s *Store) PendingApprovals(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM leave_requests WHERE status = $1", leave.StatusPending)
}

func (s *Store) ApprovedLeaveDays(ctx context.Context, from, to time.Time) (int, error) {
	return s.count(ctx, `
    SELECT COALESCE(SUM(days), 0)
    FROM leave_requests
    WHERE status = $1 AND start_date >= $2 AND start_date < $3
  `, leave.StatusApproved, from, to)
}

func buildJobRunsQuery(prefix string, filter JobRunFilter) (string, []any) {
	query := prefix + " FROM job_runs WHERE 1=1"
	var args []any
	if value := strings.TrimSpace(filter.JobType); value != "" {
		args = append(args, value)
		query += " AND job_type = $" + strconv.Itoa(len(args))
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		args = append(args, value)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	return query, args
}

func (s *Store) CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsQuery("SELECT COUNT(1)", filter)
	return s.count(ctx, query, args...)
}

func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsQuery("SELECT id::text, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at", filter)
	args = append(args, limit, offset)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobRun
	for rows.Next() {
		var run JobRun
		var detailsRaw []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Details = decodeDetails(detailsRaw)
		out = append(out, run)
	}
	return out, rows.Err()
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}

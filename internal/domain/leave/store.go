package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ets/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const requestColumns = `r.id, r.employee_id, e.name, r.leave_type, r.start_date, r.end_date, r.days, r.reason, r.status, r.comments, r.decided_by, r.decided_at, r.created_at`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.Type, &r.StartDate, &r.EndDate, &r.Days, &r.Reason, &r.Status, &r.Comments, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt)
	return r, err
}

func (s *Store) CreateLeave(ctx context.Context, req Request) (Request, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, req.EmployeeID, req.Type, req.StartDate, req.EndDate, req.Days, req.Reason, req.Status).Scan(&id); err != nil {
		return Request{}, err
	}
	return s.GetLeave(ctx, id)
}

func (s *Store) GetLeave(ctx context.Context, id string) (Request, error) {
	return getLeave(ctx, s.DB, id)
}

func getLeave(ctx context.Context, q querier.Querier, id string) (Request, error) {
	req, err := scanRequest(q.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// transition moves a Pending request to status. Zero rows means someone else decided first.
func transition(ctx context.Context, q querier.Querier, d Decision, at time.Time) error {
	tag, err := q.Exec(ctx, `
    UPDATE leave_requests
    SET status = $2, comments = $3, decided_by = $4, decided_at = $5
    WHERE id = $1 AND status = 'Pending'
  `, d.LeaveID, d.Status, d.Comments, d.DeciderID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

func (s *Store) RejectLeave(ctx context.Context, d Decision, at time.Time) (Request, error) {
	if err := transition(ctx, s.DB, d, at); err != nil {
		return Request{}, err
	}
	return s.GetLeave(ctx, d.LeaveID)
}

func (s *Store) ApproveLeave(ctx context.Context, req Request, d Decision, at time.Time) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := transition(ctx, tx, d, at); err != nil {
		return Request{}, err
	}

	if column, checked := BalanceColumn(req.Type); checked {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`
      UPDATE employees
      SET %[1]s = %[1]s - $2, total_leave = GREATEST(total_leave - $2, 0), updated_at = now()
      WHERE id = $1 AND %[1]s >= $2
    `, column), req.EmployeeID, req.Days)
		if err != nil {
			return Request{}, err
		}
		if tag.RowsAffected() == 0 {
			return Request{}, ErrInsufficientBalance
		}
	} else {
		if _, err := tx.Exec(ctx, `
      UPDATE employees
      SET total_leave = GREATEST(total_leave - $2, 0), updated_at = now()
      WHERE id = $1
    `, req.EmployeeID, req.Days); err != nil {
			return Request{}, err
		}
	}

	out, err := getLeave(ctx, tx, d.LeaveID)
	if err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return out, nil
}

func (s *Store) ListLeaves(ctx context.Context, filter ListFilter) (ListResult, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND r.employee_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM leave_requests r`+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query := `SELECT ` + requestColumns + ` FROM leave_requests r JOIN employees e ON e.id = r.employee_id` + where +
		fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	out := ListResult{Total: total, Requests: []Request{}}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return ListResult{}, err
		}
		out.Requests = append(out.Requests, req)
	}
	return out, rows.Err()
}

func (s *Store) ListApproved(ctx context.Context, from, to time.Time, employeeID string) ([]Request, error) {
	query := `
    SELECT ` + requestColumns + `
    FROM leave_requests r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.status = 'Approved' AND r.end_date >= $1 AND r.start_date <= $2`
	args := []any{from, to}
	if employeeID != "" {
		query += " AND r.employee_id = $3"
		args = append(args, employeeID)
	}
	query += " ORDER BY r.start_date"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

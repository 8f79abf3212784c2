package attendance

import (
	"context"
	"errors"
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

const recordColumns = `id, employee_id, work_date, clock_in, clock_out, working_from, clock_in_ip, hours_worked, status, is_late, created_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.EmployeeID, &r.WorkDate, &r.ClockIn, &r.ClockOut, &r.WorkingFrom, &r.ClockInIP, &r.HoursWorked, &r.Status, &r.IsLate, &r.CreatedAt)
	return r, err
}

func (s *Store) GetTimesheet(ctx context.Context, employeeID string, date time.Time) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM timesheets
    WHERE employee_id = $1 AND work_date = $2
  `, employeeID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *Store) GetOpenTimesheet(ctx context.Context, employeeID string, date time.Time) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM timesheets
    WHERE employee_id = $1 AND work_date = $2 AND clock_in IS NOT NULL AND clock_out IS NULL
  `, employeeID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *Store) CreateTimesheet(ctx context.Context, rec Record) (Record, error) {
	out, err := scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO timesheets (employee_id, work_date, clock_in, working_from, clock_in_ip, status, is_late)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+recordColumns,
		rec.EmployeeID, rec.WorkDate, rec.ClockIn, rec.WorkingFrom, rec.ClockInIP, rec.Status, rec.IsLate))
	if querier.IsUniqueViolation(err) {
		return Record{}, ErrAlreadyClockedIn
	}
	return out, err
}

func (s *Store) CloseTimesheet(ctx context.Context, id string, clockOut time.Time, derived DailyStatus) (Record, error) {
	out, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE timesheets
    SET clock_out = $2, hours_worked = $3, status = $4, is_late = $5
    WHERE id = $1 AND clock_out IS NULL
    RETURNING `+recordColumns,
		id, clockOut, derived.HoursWorked, derived.Status, derived.IsLate))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotClockedIn
	}
	return out, err
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM timesheets
    WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
    ORDER BY work_date
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Roster(ctx context.Context, date time.Time) ([]RosterEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.name, e.email,
           t.id, t.work_date, t.clock_in, t.clock_out, t.working_from, t.clock_in_ip, t.hours_worked, t.status, t.is_late, t.created_at
    FROM employees e
    LEFT JOIN timesheets t ON t.employee_id = e.id AND t.work_date = $1
    WHERE e.active AND e.role = 'Employee'
    ORDER BY e.name
  `, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RosterEntry
	for rows.Next() {
		var entry RosterEntry
		var id, workingFrom, ip, status *string
		var workDate, clockIn, clockOut, createdAt *time.Time
		var hours *float64
		var late *bool
		if err := rows.Scan(&entry.EmployeeID, &entry.EmployeeName, &entry.Email,
			&id, &workDate, &clockIn, &clockOut, &workingFrom, &ip, &hours, &status, &late, &createdAt); err != nil {
			return nil, err
		}
		if id != nil {
			entry.Record = &Record{
				ID:          *id,
				EmployeeID:  entry.EmployeeID,
				WorkDate:    *workDate,
				ClockIn:     clockIn,
				ClockOut:    clockOut,
				WorkingFrom: *workingFrom,
				ClockInIP:   *ip,
				HoursWorked: *hours,
				Status:      *status,
				IsLate:      *late,
				CreatedAt:   *createdAt,
			}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) CountOnLeave(ctx context.Context, date time.Time) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT employee_id)
    FROM leave_requests
    WHERE status = 'Approved' AND $1::date BETWEEN start_date AND end_date
  `, date).Scan(&n)
	return n, err
}

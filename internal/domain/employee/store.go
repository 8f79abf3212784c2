package employee

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

const employeeColumns = `id, email, password_hash, name, phone, city, address, gender, technology, profile_picture,
           role, working_status, active, casual_leave, sick_leave, total_leave, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Email, &e.PasswordHash, &e.Name, &e.Phone, &e.City, &e.Address, &e.Gender,
		&e.Technology, &e.ProfilePicture, &e.Role, &e.WorkingStatus, &e.Active,
		&e.CasualLeave, &e.SickLeave, &e.TotalLeave, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (Employee, error) {
	out, err := scanEmployee(s.DB.QueryRow(ctx, `
    INSERT INTO employees (email, password_hash, name, phone, city, address, gender, technology,
                           role, working_status, active, casual_leave, sick_leave, total_leave)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    RETURNING `+employeeColumns,
		emp.Email, emp.PasswordHash, emp.Name, emp.Phone, emp.City, emp.Address, emp.Gender, emp.Technology,
		emp.Role, emp.WorkingStatus, emp.Active, emp.CasualLeave, emp.SickLeave, emp.TotalLeave))
	if querier.IsUniqueViolation(err) {
		return Employee{}, ErrEmailTaken
	}
	return out, err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
}

func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE lower(email) = lower($1)`, email))
}

func (s *Store) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees
    SET name = COALESCE($2, name),
        phone = COALESCE($3, phone),
        city = COALESCE($4, city),
        address = COALESCE($5, address),
        gender = COALESCE($6, gender),
        technology = COALESCE($7, technology),
        profile_picture = COALESCE($8, profile_picture),
        updated_at = now()
    WHERE id = $1
    RETURNING `+employeeColumns,
		id, u.Name, u.Phone, u.City, u.Address, u.Gender, u.Technology, u.ProfilePicture))
}

func (s *Store) SetWorkingStatus(ctx context.Context, id, status string, active bool) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees
    SET working_status = $2, active = $3, updated_at = now()
    WHERE id = $1
    RETURNING `+employeeColumns,
		id, status, active))
}

func (s *Store) ListEmployees(ctx context.Context, filter ListFilter) (ListResult, error) {
	where := " WHERE role = 'Employee'"
	args := []any{}
	if filter.WorkingStatus != "" {
		args = append(args, filter.WorkingStatus)
		where += fmt.Sprintf(" AND working_status = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR technology ILIKE $%d OR city ILIKE $%d)",
			len(args), len(args), len(args), len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM employees`+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query := `SELECT ` + employeeColumns + ` FROM employees` + where +
		fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	out := ListResult{Total: total, Employees: []Employee{}}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return ListResult{}, err
		}
		out.Employees = append(out.Employees, emp)
	}
	return out, rows.Err()
}

func (s *Store) ListAdminIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text FROM employees WHERE role = 'Admin' AND active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CreatePasswordReset(ctx context.Context, employeeID, tokenHash string, expiresAt time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO password_resets (token_hash, employee_id, expires_at)
    VALUES ($1, $2, $3)
  `, tokenHash, employeeID, expiresAt)
	return err
}

// ConsumePasswordReset marks the token used and sets the new password in one
// transaction. The token can only be consumed once.
func (s *Store) ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string, at time.Time) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var employeeID string
	err = tx.QueryRow(ctx, `
    UPDATE password_resets
    SET used_at = $2
    WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
    RETURNING employee_id::text
  `, tokenHash, at).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidResetToken
	}
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE employees SET password_hash = $2, updated_at = now() WHERE id = $1
  `, employeeID, passwordHash); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return employeeID, nil
}

func (s *Store) PurgePasswordResets(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `DELETE FROM password_resets WHERE expires_at <= $1 OR used_at IS NOT NULL`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

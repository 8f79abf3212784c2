package employee

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateEmployee(ctx context.Context, emp Employee) (Employee, error)
	GetEmployee(ctx context.Context, id string) (Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (Employee, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (Employee, error)
	SetWorkingStatus(ctx context.Context, id, status string, active bool) (Employee, error)
	ListEmployees(ctx context.Context, filter ListFilter) (ListResult, error)
	ListAdminIDs(ctx context.Context) ([]string, error)
	CreatePasswordReset(ctx context.Context, employeeID, tokenHash string, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string, at time.Time) (string, error)
	PurgePasswordResets(ctx context.Context, before time.Time) (int64, error)
}

package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	GetTimesheet(ctx context.Context, employeeID string, date time.Time) (Record, error)
	GetOpenTimesheet(ctx context.Context, employeeID string, date time.Time) (Record, error)
	CreateTimesheet(ctx context.Context, rec Record) (Record, error)
	// CloseTimesheet must only update a record whose clock-out is still unset.
	CloseTimesheet(ctx context.Context, id string, clockOut time.Time, derived DailyStatus) (Record, error)
	ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
	Roster(ctx context.Context, date time.Time) ([]RosterEntry, error)
	CountOnLeave(ctx context.Context, date time.Time) (int, error)
}

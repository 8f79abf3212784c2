package leave

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateLeave(ctx context.Context, req Request) (Request, error)
	GetLeave(ctx context.Context, id string) (Request, error)
	// RejectLeave transitions only a Pending request; otherwise ErrAlreadyDecided.
	RejectLeave(ctx context.Context, d Decision, at time.Time) (Request, error)
	// ApproveLeave transitions a Pending request and draws down the balance atomically.
	ApproveLeave(ctx context.Context, req Request, d Decision, at time.Time) (Request, error)
	ListLeaves(ctx context.Context, filter ListFilter) (ListResult, error)
	ListApproved(ctx context.Context, from, to time.Time, employeeID string) ([]Request, error)
}

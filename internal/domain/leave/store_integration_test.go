package leave

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ets/internal/platform/db"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func insertEmployee(t *testing.T, pool *pgxpool.Pool, casual int) string {
	t.Helper()
	var id string
	email := "leave-" + strings.ReplaceAll(uuid.NewString(), "-", "") + "@example.com"
	err := pool.QueryRow(context.Background(), `
    INSERT INTO employees (email, password_hash, name, casual_leave, total_leave)
    VALUES ($1, 'x', 'Integration', $2, 3)
    RETURNING id
  `, email, casual).Scan(&id)
	if err != nil {
		t.Fatalf("insert employee: %v", err)
	}
	return id
}

func TestStoreApprovalIntegration(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	store := NewStore(pool)
	empID := insertEmployee(t, pool, 3)
	adminID := insertEmployee(t, pool, 0)
	start := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

	create := func(leaveType string, days int) Request {
		req, err := store.CreateLeave(ctx, Request{
			EmployeeID: empID,
			Type:       leaveType,
			StartDate:  start,
			EndDate:    start.AddDate(0, 0, days-1),
			Days:       days,
			Reason:     "integration",
			Status:     StatusPending,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return req
	}
	balances := func() (casual, total int) {
		if err := pool.QueryRow(ctx, `SELECT casual_leave, total_leave FROM employees WHERE id = $1`, empID).Scan(&casual, &total); err != nil {
			t.Fatalf("balances: %v", err)
		}
		return casual, total
	}

	tooLong := create(TypeCasual, 4)
	_, err := store.ApproveLeave(ctx, tooLong, Decision{LeaveID: tooLong.ID, Status: StatusApproved, DeciderID: adminID}, time.Now())
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if got, _ := store.GetLeave(ctx, tooLong.ID); got.Status != StatusPending {
		t.Fatalf("failed approval must leave the request pending, got %s", got.Status)
	}
	if casual, total := balances(); casual != 3 || total != 3 {
		t.Fatalf("failed approval must not touch balances, got casual=%d total=%d", casual, total)
	}

	fits := create(TypeCasual, 2)
	approved, err := store.ApproveLeave(ctx, fits, Decision{LeaveID: fits.ID, Status: StatusApproved, DeciderID: adminID}, time.Now())
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved || approved.DecidedBy == nil || *approved.DecidedBy != adminID {
		t.Fatalf("unexpected approved request %+v", approved)
	}
	if casual, total := balances(); casual != 1 || total != 1 {
		t.Fatalf("expected casual=1 total=1, got casual=%d total=%d", casual, total)
	}
	if _, err := store.RejectLeave(ctx, Decision{LeaveID: fits.ID, Status: StatusRejected, DeciderID: adminID}, time.Now()); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected already decided, got %v", err)
	}

	exempt := create(TypeEmergency, 5)
	if _, err := store.ApproveLeave(ctx, exempt, Decision{LeaveID: exempt.ID, Status: StatusApproved, DeciderID: adminID}, time.Now()); err != nil {
		t.Fatalf("approve exempt: %v", err)
	}
	if casual, total := balances(); casual != 1 || total != 0 {
		t.Fatalf("expected total floored at zero, got casual=%d total=%d", casual, total)
	}
}

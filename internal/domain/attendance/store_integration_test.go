package attendance

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ets/internal/platform/db"
)

func TestClockLifecycleIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var empID string
	if err := pool.QueryRow(ctx, `
    INSERT INTO employees (email, password_hash, name) VALUES ($1, 'x', 'Clock') RETURNING id
  `, uuid.NewString()+"@example.com").Scan(&empID); err != nil {
		t.Fatalf("insert employee: %v", err)
	}

	svc := NewService(NewStore(pool), DefaultPolicy())
	day := time.Date(2030, 2, 4, 0, 0, 0, 0, time.UTC)
	in := time.Date(2030, 2, 4, 9, 15, 1, 0, time.UTC)

	rec, err := svc.ClockIn(ctx, ClockInRequest{EmployeeID: empID, Date: day, WorkingFrom: "Office", ClientIP: "10.0.0.1", At: in})
	if err != nil {
		t.Fatalf("clock in: %v", err)
	}
	if !rec.IsLate || rec.Status != StatusPresent {
		t.Fatalf("expected late present record, got %+v", rec)
	}
	if _, err := svc.ClockIn(ctx, ClockInRequest{EmployeeID: empID, Date: day, At: in.Add(time.Minute)}); !errors.Is(err, ErrAlreadyClockedIn) {
		t.Fatalf("expected already clocked in, got %v", err)
	}

	out := in.Add(8*time.Hour + 30*time.Minute)
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ClockOut(ctx, empID, day, out)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrNotClockedIn):
		default:
			t.Fatalf("unexpected clock out error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one clock out to apply, got %d", succeeded)
	}

	closed, err := NewStore(pool).GetTimesheet(ctx, empID, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if closed.HoursWorked != 8.5 || closed.ClockOut == nil || !closed.ClockOut.Equal(out) {
		t.Fatalf("unexpected closed record %+v", closed)
	}
}

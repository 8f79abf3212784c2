package reportshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"ets/internal/domain/auth"
	"ets/internal/domain/reports"
	"ets/internal/transport/http/middleware"
)

type fakeStore struct {
	lastYearFrom time.Time
	lastFilter   reports.JobRunFilter
}

func (f *fakeStore) Balances(_ context.Context, employeeID string) (reports.Balances, error) {
	if employeeID != "emp-1" {
		return reports.Balances{}, reports.ErrNotFound
	}
	return reports.Balances{Casual: 7, Sick: 10, Total: 19}, nil
}

func (f *fakeStore) PendingRequests(context.Context, string) (int, error) { return 1, nil }

func (f *fakeStore) ApprovedDaysByType(_ context.Context, _ string, from, _ time.Time) (map[string]int, error) {
	f.lastYearFrom = from
	return map[string]int{"Casual Leave": 3}, nil
}

func (f *fakeStore) UnreadNotifications(context.Context, string) (int, error) { return 2, nil }

func (f *fakeStore) ActiveNotices(context.Context) (int, error) { return 4, nil }

func (f *fakeStore) Headcount(context.Context) (reports.Headcount, error) {
	return reports.Headcount{Active: 5, Working: 4, Bench: 1, Inactive: 2}, nil
}

func (f *fakeStore) PendingApprovals(context.Context) (int, error) { return 3, nil }

func (f *fakeStore) ApprovedLeaveDays(context.Context, time.Time, time.Time) (int, error) {
	return 6, nil
}

func (f *fakeStore) CountJobRuns(_ context.Context, filter reports.JobRunFilter) (int, error) {
	f.lastFilter = filter
	return 1, nil
}

func (f *fakeStore) ListJobRuns(context.Context, reports.JobRunFilter, int, int) ([]reports.JobRun, error) {
	return []reports.JobRun{{ID: "run-1", JobType: "reset_cleanup", Status: "completed"}}, nil
}

func newRouter(store *fakeStore) http.Handler {
	svc := reports.NewService(store, time.UTC)
	svc.Now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserContext{UserID: r.Header.Get("X-Test-User"), Role: r.Header.Get("X-Test-Role")}
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), user)))
		})
	})
	NewHandler(svc, auth.NewStaticPermissions()).RegisterRoutes(r)
	return r
}

func get(h http.Handler, path, userID, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Test-User", userID)
	req.Header.Set("X-Test-Role", role)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEmployeeDashboard(t *testing.T) {
	store := &fakeStore{}
	h := newRouter(store)

	rec := get(h, "/reports/dashboard", "emp-1", auth.RoleEmployee)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data reports.EmployeeDashboard `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Year != 2024 || body.Data.ApprovedDays != 3 || body.Data.Balances.Casual != 7 || body.Data.UnreadNotifications != 2 {
		t.Fatalf("unexpected dashboard %+v", body.Data)
	}

	if rec := get(h, "/reports/dashboard?year=2022", "emp-1", auth.RoleEmployee); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.lastYearFrom.Year() != 2022 {
		t.Fatalf("expected 2022 window, got %s", store.lastYearFrom)
	}

	if rec := get(h, "/reports/dashboard?year=22", "emp-1", auth.RoleEmployee); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short year, got %d", rec.Code)
	}
	if rec := get(h, "/reports/dashboard", "ghost", auth.RoleEmployee); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown employee, got %d", rec.Code)
	}
}

func TestAdminReportsRequirePermission(t *testing.T) {
	h := newRouter(&fakeStore{})
	if rec := get(h, "/reports/admin", "emp-1", auth.RoleEmployee); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec := get(h, "/reports/admin", "admin-1", auth.RoleAdmin)
	var body struct {
		Data reports.AdminDashboard `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Month != "2024-03" || body.Data.BenchEmployees != 1 || body.Data.PendingApprovals != 3 {
		t.Fatalf("unexpected admin dashboard %+v", body.Data)
	}
}

func TestJobRunsListing(t *testing.T) {
	store := &fakeStore{}
	h := newRouter(store)

	rec := get(h, "/reports/jobs?jobType=reset_cleanup&status=completed", "admin-1", auth.RoleAdmin)
	if rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("unexpected response %d total=%s", rec.Code, rec.Header().Get("X-Total-Count"))
	}
	if store.lastFilter.JobType != "reset_cleanup" || store.lastFilter.Status != "completed" {
		t.Fatalf("filter not passed through: %+v", store.lastFilter)
	}
}

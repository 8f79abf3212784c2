package leavehandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"ets/internal/domain/auth"
	"ets/internal/domain/leave"
	"ets/internal/platform/metrics"
	"ets/internal/transport/http/middleware"
)

type fakeStore struct {
	mu       sync.Mutex
	seq      int
	requests map[string]leave.Request
	casual   map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: map[string]leave.Request{}, casual: map[string]int{"emp-1": 2}}
}

func (f *fakeStore) CreateLeave(_ context.Context, req leave.Request) (leave.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	req.ID = fmt.Sprintf("lv-%d", f.seq)
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeStore) GetLeave(_ context.Context, id string) (leave.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return leave.Request{}, leave.ErrNotFound
	}
	return req, nil
}

func (f *fakeStore) decide(d leave.Decision, at time.Time) leave.Request {
	req := f.requests[d.LeaveID]
	req.Status = d.Status
	req.Comments = d.Comments
	req.DecidedBy = &d.DeciderID
	req.DecidedAt = &at
	f.requests[req.ID] = req
	return req
}

func (f *fakeStore) RejectLeave(_ context.Context, d leave.Decision, at time.Time) (leave.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requests[d.LeaveID].Status != leave.StatusPending {
		return leave.Request{}, leave.ErrAlreadyDecided
	}
	return f.decide(d, at), nil
}

func (f *fakeStore) ApproveLeave(_ context.Context, req leave.Request, d leave.Decision, at time.Time) (leave.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requests[d.LeaveID].Status != leave.StatusPending {
		return leave.Request{}, leave.ErrAlreadyDecided
	}
	if req.Type == leave.TypeCasual {
		if f.casual[req.EmployeeID] < req.Days {
			return leave.Request{}, leave.ErrInsufficientBalance
		}
		f.casual[req.EmployeeID] -= req.Days
	}
	return f.decide(d, at), nil
}

func (f *fakeStore) ListLeaves(_ context.Context, filter leave.ListFilter) (leave.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out leave.ListResult
	for i := 1; i <= f.seq; i++ {
		req, ok := f.requests[fmt.Sprintf("lv-%d", i)]
		if !ok {
			continue
		}
		if filter.EmployeeID != "" && req.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out.Requests = append(out.Requests, req)
	}
	out.Total = len(out.Requests)
	return out, nil
}

func (f *fakeStore) ListApproved(_ context.Context, from, to time.Time, employeeID string) ([]leave.Request, error) {
	result, _ := f.ListLeaves(context.Background(), leave.ListFilter{EmployeeID: employeeID, Status: leave.StatusApproved})
	var out []leave.Request
	for _, req := range result.Requests {
		if !req.EndDate.Before(from) && !req.StartDate.After(to) {
			out = append(out, req)
		}
	}
	return out, nil
}

type testEnv struct {
	router  http.Handler
	store   *fakeStore
	metrics *metrics.Collector
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	svc := leave.NewService(store, time.UTC)
	svc.Now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	collector := metrics.New()
	h := NewHandler(svc, nil, auth.NewStaticPermissions(), nil, nil, nil, nil, collector)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserContext{UserID: r.Header.Get("X-Test-User"), Role: r.Header.Get("X-Test-Role")}
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	return &testEnv{router: r, store: store, metrics: collector}
}

func (e *testEnv) do(method, path, userID, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Test-User", userID)
	req.Header.Set("X-Test-Role", role)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) submit(t *testing.T, body string) leave.Request {
	t.Helper()
	rec := e.do(http.MethodPost, "/leave/requests", "emp-1", auth.RoleEmployee, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data leave.Request `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Error.Code
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "missing type", body: `{"startDate":"2024-03-05","endDate":"2024-03-05","reason":"x"}`, wantCode: "validation_error"},
		{name: "bad date", body: `{"leaveType":"Sick Leave","startDate":"05/03/2024","endDate":"2024-03-05","reason":"x"}`, wantCode: "validation_error"},
		{name: "reversed range", body: `{"leaveType":"Sick Leave","startDate":"2024-03-06","endDate":"2024-03-05","reason":"x"}`, wantCode: "invalid_range"},
		{name: "past start", body: `{"leaveType":"Sick Leave","startDate":"2024-03-01","endDate":"2024-03-05","reason":"x"}`, wantCode: "past_date_not_allowed"},
		{name: "blank reason", body: `{"leaveType":"Sick Leave","startDate":"2024-03-05","endDate":"2024-03-05","reason":"  "}`, wantCode: "missing_reason"},
		{name: "unknown type", body: `{"leaveType":"Gap Year","startDate":"2024-03-05","endDate":"2024-03-05","reason":"x"}`, wantCode: "invalid_payload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/leave/requests", "emp-1", auth.RoleEmployee, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if code := errorCode(t, rec); code != tc.wantCode {
				t.Fatalf("expected %s, got %s", tc.wantCode, code)
			}
		})
	}
}

func TestDecisionFlow(t *testing.T) {
	env := newTestEnv(t)
	req := env.submit(t, `{"leaveType":"Casual Leave","startDate":"2024-03-05","endDate":"2024-03-06","reason":"family"}`)
	if req.Status != leave.StatusPending || req.Days != 2 {
		t.Fatalf("unexpected request: %+v", req)
	}

	path := "/leave/requests/" + req.ID + "/decision"
	if rec := env.do(http.MethodPost, path, "emp-1", auth.RoleEmployee, `{"decision":"Approved"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee decision, got %d", rec.Code)
	}
	if rec := env.do(http.MethodPost, path, "adm-1", auth.RoleAdmin, `{"decision":"Maybe"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad decision, got %d", rec.Code)
	}

	rec := env.do(http.MethodPost, path, "adm-1", auth.RoleAdmin, `{"decision":"Approved","comments":" enjoy "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.store.casual["emp-1"] != 0 {
		t.Fatalf("expected casual balance drawn down, got %d", env.store.casual["emp-1"])
	}

	rec = env.do(http.MethodPost, path, "adm-1", auth.RoleAdmin, `{"decision":"Rejected"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second decision, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "already_decided" {
		t.Fatalf("unexpected code %s", code)
	}
	if got := env.store.requests[req.ID]; got.Status != leave.StatusApproved || got.Comments != "enjoy" {
		t.Fatalf("first decision must stand, got %+v", got)
	}

	events := env.metrics.Snapshot()["events"].(map[string]uint64)
	if events[metrics.LeaveSubmitted] != 1 || events[metrics.LeaveApproved] != 1 || events[metrics.Conflicts] != 1 {
		t.Fatalf("unexpected counters: %+v", events)
	}
}

func TestApprovalBeyondBalanceConflicts(t *testing.T) {
	env := newTestEnv(t)
	req := env.submit(t, `{"leaveType":"Casual Leave","startDate":"2024-03-05","endDate":"2024-03-08","reason":"trip"}`)

	rec := env.do(http.MethodPost, "/leave/requests/"+req.ID+"/decision", "adm-1", auth.RoleAdmin, `{"decision":"Approved"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "insufficient_balance" {
		t.Fatalf("unexpected code %s", code)
	}
	if env.store.requests[req.ID].Status != leave.StatusPending || env.store.casual["emp-1"] != 2 {
		t.Fatalf("request and balance must be unchanged")
	}
}

func TestEmployeesSeeOnlyOwnRequests(t *testing.T) {
	env := newTestEnv(t)
	req := env.submit(t, `{"leaveType":"Sick Leave","startDate":"2024-03-04","endDate":"2024-03-04","reason":"flu"}`)

	if rec := env.do(http.MethodGet, "/leave/requests/"+req.ID, "emp-2", auth.RoleEmployee, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another employee, got %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/leave/requests/"+req.ID, "emp-1", auth.RoleEmployee, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}

	rec := env.do(http.MethodGet, "/leave/requests?employeeId=emp-1", "emp-2", auth.RoleEmployee, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Total-Count") != "0" {
		t.Fatalf("employee filter must be ignored for employees, got %s", rec.Header().Get("X-Total-Count"))
	}

	rec = env.do(http.MethodGet, "/leave/requests?status=Pending", "adm-1", auth.RoleAdmin, "")
	if rec.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("admin should see the pending request, got %s", rec.Header().Get("X-Total-Count"))
	}
	if rec := env.do(http.MethodGet, "/leave/requests?status=Cancelled", "adm-1", auth.RoleAdmin, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestCalendarFeed(t *testing.T) {
	env := newTestEnv(t)
	req := env.submit(t, `{"leaveType":"Sick Leave","startDate":"2024-03-11","endDate":"2024-03-12","reason":"surgery"}`)
	env.do(http.MethodPost, "/leave/requests/"+req.ID+"/decision", "adm-1", auth.RoleAdmin, `{"decision":"Approved"}`)

	rec := env.do(http.MethodGet, "/leave/calendar.ics", "emp-1", auth.RoleEmployee, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "DTSTART;VALUE=DATE:20240311") {
		t.Fatalf("unexpected calendar: %s", body)
	}

	if rec := env.do(http.MethodGet, "/leave/calendar.ics?from=2024-04-01&to=2024-03-01", "emp-1", auth.RoleEmployee, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed window, got %d", rec.Code)
	}
}

package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ets/internal/domain/auth"
)

type reset struct {
	employeeID string
	expiresAt  time.Time
	used       bool
}

type memoryStore struct {
	mu        sync.Mutex
	seq       int
	employees map[string]Employee
	resets    map[string]*reset
}

func newMemoryStore() *memoryStore {
	return &memoryStore{employees: map[string]Employee{}, resets: map[string]*reset{}}
}

func (m *memoryStore) CreateEmployee(_ context.Context, emp Employee) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.employees {
		if strings.EqualFold(existing.Email, emp.Email) {
			return Employee{}, ErrEmailTaken
		}
	}
	m.seq++
	emp.ID = fmt.Sprintf("emp-%d", m.seq)
	m.employees[emp.ID] = emp
	return emp, nil
}

func (m *memoryStore) GetEmployee(_ context.Context, id string) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return emp, nil
}

func (m *memoryStore) GetEmployeeByEmail(_ context.Context, email string) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, emp := range m.employees {
		if strings.EqualFold(emp.Email, email) {
			return emp, nil
		}
	}
	return Employee{}, ErrNotFound
}

func (m *memoryStore) UpdateProfile(_ context.Context, id string, u ProfileUpdate) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&emp.Name, u.Name)
	set(&emp.Phone, u.Phone)
	set(&emp.City, u.City)
	set(&emp.Address, u.Address)
	set(&emp.Gender, u.Gender)
	set(&emp.Technology, u.Technology)
	set(&emp.ProfilePicture, u.ProfilePicture)
	m.employees[id] = emp
	return emp, nil
}

func (m *memoryStore) SetWorkingStatus(_ context.Context, id, status string, active bool) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	emp.WorkingStatus = status
	emp.Active = active
	m.employees[id] = emp
	return emp, nil
}

func (m *memoryStore) ListEmployees(_ context.Context, filter ListFilter) (ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := ListResult{Employees: []Employee{}}
	for _, emp := range m.employees {
		if emp.Role != auth.RoleEmployee {
			continue
		}
		if filter.WorkingStatus != "" && emp.WorkingStatus != filter.WorkingStatus {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(emp.Name), strings.ToLower(filter.Query)) {
			continue
		}
		out.Employees = append(out.Employees, emp)
	}
	out.Total = len(out.Employees)
	return out, nil
}

func (m *memoryStore) ListAdminIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, emp := range m.employees {
		if emp.Role == auth.RoleAdmin && emp.Active {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memoryStore) CreatePasswordReset(_ context.Context, employeeID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[tokenHash] = &reset{employeeID: employeeID, expiresAt: expiresAt}
	return nil
}

func (m *memoryStore) ConsumePasswordReset(_ context.Context, tokenHash, passwordHash string, at time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resets[tokenHash]
	if !ok || r.used || !r.expiresAt.After(at) {
		return "", ErrInvalidResetToken
	}
	r.used = true
	emp := m.employees[r.employeeID]
	emp.PasswordHash = passwordHash
	m.employees[r.employeeID] = emp
	return r.employeeID, nil
}

func (m *memoryStore) PurgePasswordResets(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, r := range m.resets {
		if r.used || !r.expiresAt.After(before) {
			delete(m.resets, hash)
			n++
		}
	}
	return n, nil
}

func newTestService() (*Service, *memoryStore) {
	store := newMemoryStore()
	svc := NewService(store, time.Hour)
	svc.Now = func() time.Time { return time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC) }
	return svc, store
}

func register(t *testing.T, svc *Service, email string) Employee {
	t.Helper()
	emp, err := svc.Register(context.Background(), RegisterInput{Name: "Jane Doe", Email: email, Password: "s3cret-pass", Technology: "Go"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return emp
}

func TestRegisterAppliesDefaults(t *testing.T) {
	svc, _ := newTestService()
	emp := register(t, svc, "  Jane@Example.com ")

	if emp.Email != "jane@example.com" {
		t.Fatalf("expected normalized email, got %q", emp.Email)
	}
	if emp.Role != auth.RoleEmployee || emp.WorkingStatus != StatusWorking || !emp.Active {
		t.Fatalf("unexpected role/status: %+v", emp)
	}
	if emp.Balances() != (Balances{Casual: 10, Sick: 10, Total: 22}) {
		t.Fatalf("unexpected balances %+v", emp.Balances())
	}
	if emp.PasswordHash == "s3cret-pass" || auth.CheckPassword(emp.PasswordHash, "s3cret-pass") != nil {
		t.Fatal("password must be stored as a bcrypt hash")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{name: "missing name", in: RegisterInput{Email: "a@example.com", Password: "long-enough"}, want: ErrInvalidInput},
		{name: "bad email", in: RegisterInput{Name: "A", Email: "not-an-email", Password: "long-enough"}, want: ErrInvalidInput},
		{name: "short password", in: RegisterInput{Name: "A", Email: "a@example.com", Password: "short"}, want: ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	register(t, svc, "jane@example.com")
	_, err := svc.Register(context.Background(), RegisterInput{Name: "Other", Email: "JANE@example.com", Password: "another-pass"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	emp := register(t, svc, "jane@example.com")

	got, err := svc.Authenticate(ctx, "Jane@Example.com", "s3cret-pass")
	if err != nil || got.ID != emp.ID {
		t.Fatalf("authenticate: %v %+v", err, got)
	}
	if _, err := svc.Authenticate(ctx, "jane@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	if _, err := svc.Deactivate(ctx, emp.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "jane@example.com", "s3cret-pass"); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestSetWorkingStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	emp := register(t, svc, "jane@example.com")

	got, err := svc.SetWorkingStatus(ctx, emp.ID, StatusBench)
	if err != nil || got.WorkingStatus != StatusBench || !got.Active {
		t.Fatalf("bench: %v %+v", err, got)
	}
	bench, err := svc.Bench(ctx, 10, 0)
	if err != nil || bench.Total != 1 {
		t.Fatalf("expected one benched employee, got %v %+v", err, bench)
	}

	got, err = svc.Deactivate(ctx, emp.ID)
	if err != nil || got.WorkingStatus != StatusInactive || got.Active {
		t.Fatalf("deactivate: %v %+v", err, got)
	}
	if _, err := svc.SetWorkingStatus(ctx, emp.ID, "Retired"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService()
	emp := register(t, svc, "jane@example.com")

	city := "  Colombo "
	got, err := svc.UpdateProfile(context.Background(), emp.ID, ProfileUpdate{City: &city})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.City != "Colombo" || got.Name != "Jane Doe" {
		t.Fatalf("unexpected profile %+v", got)
	}

	blank := " "
	if _, err := svc.UpdateProfile(context.Background(), emp.ID, ProfileUpdate{Name: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	admin, created, err := svc.EnsureAdmin(ctx, "Administrator", "admin@example.com", "admin-pass")
	if err != nil || !created || admin.Role != auth.RoleAdmin {
		t.Fatalf("first ensure: %v %v %+v", err, created, admin)
	}
	again, created, err := svc.EnsureAdmin(ctx, "Administrator", "admin@example.com", "admin-pass")
	if err != nil || created || again.ID != admin.ID {
		t.Fatalf("second ensure: %v %v %+v", err, created, again)
	}
	ids, _ := svc.AdminIDs(ctx)
	if len(ids) != 1 || ids[0] != admin.ID {
		t.Fatalf("unexpected admin ids %v", ids)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	emp := register(t, svc, "jane@example.com")

	ticket, err := svc.RequestPasswordReset(ctx, "jane@example.com")
	if err != nil || ticket == nil {
		t.Fatalf("request reset: %v %+v", err, ticket)
	}
	if !ticket.ExpiresAt.Equal(svc.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", ticket.ExpiresAt)
	}
	if _, ok := store.resets[ticket.Token]; ok {
		t.Fatal("raw token must not be stored")
	}

	id, err := svc.ResetPassword(ctx, ticket.Token, "brand-new-pass")
	if err != nil || id != emp.ID {
		t.Fatalf("reset: %v %q", err, id)
	}
	if _, err := svc.Authenticate(ctx, "jane@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.ResetPassword(ctx, ticket.Token, "another-pass"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected token reuse to fail, got %v", err)
	}
}

func TestPasswordResetExpires(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	register(t, svc, "jane@example.com")

	ticket, err := svc.RequestPasswordReset(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	svc.Now = func() time.Time { return time.Date(2024, 1, 9, 11, 0, 0, 0, time.UTC) }
	if _, err := svc.ResetPassword(ctx, ticket.Token, "brand-new-pass"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected expired token, got %v", err)
	}
	purged, err := svc.PurgeExpiredResets(ctx)
	if err != nil || purged != 1 {
		t.Fatalf("expected one purged reset, got %d %v", purged, err)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _ := newTestService()
	ticket, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil || ticket != nil {
		t.Fatalf("expected silent no-op, got %v %+v", err, ticket)
	}
}

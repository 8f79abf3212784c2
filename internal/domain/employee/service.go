package employee

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"ets/internal/domain/auth"
)

const minPasswordLength = 8

type Service struct {
	store    StoreAPI
	ResetTTL time.Duration
	Now      func() time.Time
}

func NewService(store StoreAPI, resetTTL time.Duration) *Service {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &Service{store: store, ResetTTL: resetTTL, Now: time.Now}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidInput
	}
	return email, nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates an Employee-role account with the default leave allowance.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Employee, error) {
	return s.create(ctx, in, auth.RoleEmployee)
}

func (s *Service) create(ctx context.Context, in RegisterInput, role string) (Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Employee{}, ErrInvalidInput
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Employee{}, err
	}
	if err := checkPassword(in.Password); err != nil {
		return Employee{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Employee{}, err
	}

	return s.store.CreateEmployee(ctx, Employee{
		Email:         email,
		PasswordHash:  hash,
		Name:          name,
		Phone:         strings.TrimSpace(in.Phone),
		City:          strings.TrimSpace(in.City),
		Address:       strings.TrimSpace(in.Address),
		Gender:        strings.TrimSpace(in.Gender),
		Technology:    strings.TrimSpace(in.Technology),
		Role:          role,
		WorkingStatus: StatusWorking,
		Active:        true,
		CasualLeave:   DefaultCasualLeave,
		SickLeave:     DefaultSickLeave,
		TotalLeave:    DefaultTotalLeave,
	})
}

// EnsureAdmin creates the admin account unless the email is already registered.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (Employee, bool, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return Employee{}, false, err
	}
	existing, err := s.store.GetEmployeeByEmail(ctx, normalized)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Employee{}, false, err
	}
	emp, err := s.create(ctx, RegisterInput{Name: name, Email: normalized, Password: password}, auth.RoleAdmin)
	if errors.Is(err, ErrEmailTaken) {
		emp, err = s.store.GetEmployeeByEmail(ctx, normalized)
		return emp, false, err
	}
	return emp, err == nil, err
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Employee, error) {
	emp, err := s.store.GetEmployeeByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return Employee{}, ErrInvalidCredentials
	}
	if err != nil {
		return Employee{}, err
	}
	if err := auth.CheckPassword(emp.PasswordHash, password); err != nil {
		return Employee{}, ErrInvalidCredentials
	}
	if !emp.Active {
		return Employee{}, ErrInactive
	}
	return emp, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (Employee, error) {
	for _, field := range []**string{&update.Name, &update.Phone, &update.City, &update.Address, &update.Gender, &update.Technology, &update.ProfilePicture} {
		if *field != nil {
			trimmed := strings.TrimSpace(**field)
			*field = &trimmed
		}
	}
	if update.Name != nil && *update.Name == "" {
		return Employee{}, ErrInvalidInput
	}
	return s.store.UpdateProfile(ctx, id, update)
}

func ValidWorkingStatus(status string) bool {
	switch status {
	case StatusWorking, StatusBench, StatusInactive:
		return true
	}
	return false
}

// SetWorkingStatus moves an employee between Working, Bench and Inactive.
// Inactive clears the active flag; the other statuses restore it.
func (s *Service) SetWorkingStatus(ctx context.Context, id, status string) (Employee, error) {
	if !ValidWorkingStatus(status) {
		return Employee{}, ErrInvalidStatus
	}
	return s.store.SetWorkingStatus(ctx, id, status, status != StatusInactive)
}

func (s *Service) Deactivate(ctx context.Context, id string) (Employee, error) {
	return s.SetWorkingStatus(ctx, id, StatusInactive)
}

func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	if filter.WorkingStatus != "" && !ValidWorkingStatus(filter.WorkingStatus) {
		return ListResult{}, ErrInvalidStatus
	}
	filter.Query = strings.TrimSpace(filter.Query)
	return s.store.ListEmployees(ctx, filter)
}

func (s *Service) Bench(ctx context.Context, limit, offset int) (ListResult, error) {
	return s.List(ctx, ListFilter{WorkingStatus: StatusBench, Limit: limit, Offset: offset})
}

func (s *Service) Balances(ctx context.Context, id string) (Balances, error) {
	emp, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Balances{}, err
	}
	return emp.Balances(), nil
}

func (s *Service) AdminIDs(ctx context.Context) ([]string, error) {
	return s.store.ListAdminIDs(ctx)
}

// RequestPasswordReset issues a one-time token. Unknown or inactive accounts
// yield a nil ticket and no error so callers cannot probe for emails.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*ResetTicket, error) {
	emp, err := s.store.GetEmployeeByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !emp.Active {
		return nil, nil
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		return nil, err
	}
	expiresAt := s.Now().Add(s.ResetTTL)
	if err := s.store.CreatePasswordReset(ctx, emp.ID, hash, expiresAt); err != nil {
		return nil, err
	}
	return &ResetTicket{Employee: emp, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidResetToken
	}
	if err := checkPassword(password); err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	return s.store.ConsumePasswordReset(ctx, auth.HashResetToken(token), hash, s.Now())
}

func (s *Service) PurgeExpiredResets(ctx context.Context) (int64, error) {
	return s.store.PurgePasswordResets(ctx, s.Now())
}

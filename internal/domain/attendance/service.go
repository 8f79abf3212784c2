package attendance

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Service struct {
	store  StoreAPI
	Policy Policy
	Now    func() time.Time
}

func NewService(store StoreAPI, policy Policy) *Service {
	return &Service{store: store, Policy: policy, Now: time.Now}
}

// Today is the current civil date in the policy location.
func (s *Service) Today() time.Time {
	return s.Policy.Date(s.Now())
}

func (s *Service) ClockIn(ctx context.Context, req ClockInRequest) (Record, error) {
	if strings.TrimSpace(req.EmployeeID) == "" || req.Date.IsZero() || req.At.IsZero() {
		return Record{}, ErrInvalidInput
	}

	if _, err := s.store.GetTimesheet(ctx, req.EmployeeID, req.Date); err == nil {
		return Record{}, ErrAlreadyClockedIn
	} else if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}

	at := req.At
	rec := Record{
		EmployeeID:  req.EmployeeID,
		WorkDate:    req.Date,
		ClockIn:     &at,
		WorkingFrom: strings.TrimSpace(req.WorkingFrom),
		ClockInIP:   req.ClientIP,
	}
	derived := s.Policy.DeriveDailyStatus(rec)
	rec.Status = derived.Status
	rec.IsLate = derived.IsLate

	return s.store.CreateTimesheet(ctx, rec)
}

func (s *Service) ClockOut(ctx context.Context, employeeID string, date, at time.Time) (Record, error) {
	if strings.TrimSpace(employeeID) == "" || date.IsZero() || at.IsZero() {
		return Record{}, ErrInvalidInput
	}

	rec, err := s.store.GetOpenTimesheet(ctx, employeeID, date)
	if errors.Is(err, ErrNotFound) {
		return Record{}, ErrNotClockedIn
	}
	if err != nil {
		return Record{}, err
	}
	if at.Before(*rec.ClockIn) {
		return Record{}, ErrInvalidInterval
	}

	closed := rec
	closed.ClockOut = &at
	return s.store.CloseTimesheet(ctx, rec.ID, at, s.Policy.DeriveDailyStatus(closed))
}

// Current returns the caller's record for today, if any.
func (s *Service) Current(ctx context.Context, employeeID string) (Record, bool, error) {
	rec, err := s.store.GetTimesheet(ctx, employeeID, s.Today())
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Month builds the attendance sheet of month; days after today are left out.
func (s *Service) Month(ctx context.Context, employeeID string, month time.Time) (MonthReport, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	records, err := s.store.ListForEmployee(ctx, employeeID, first, last)
	if err != nil {
		return MonthReport{}, err
	}
	return s.Policy.BuildMonth(employeeID, first, s.Today(), records), nil
}

func (s *Service) Roster(ctx context.Context, date time.Time) ([]RosterEntry, error) {
	entries, err := s.store.Roster(ctx, date)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Record != nil {
			entries[i].DailyStatus = s.Policy.DeriveDailyStatus(*entries[i].Record)
		} else {
			entries[i].DailyStatus = DailyStatus{Status: StatusAbsent}
		}
	}
	return entries, nil
}

func (s *Service) Dashboard(ctx context.Context, date time.Time) (Dashboard, error) {
	entries, err := s.Roster(ctx, date)
	if err != nil {
		return Dashboard{}, err
	}
	onLeave, err := s.store.CountOnLeave(ctx, date)
	if err != nil {
		return Dashboard{}, err
	}

	out := Dashboard{Date: date.Format("2006-01-02"), TotalEmployees: len(entries), OnLeaveToday: onLeave}
	for _, e := range entries {
		if e.Status == StatusPresent {
			out.PresentToday++
		}
		if e.IsLate {
			out.LateToday++
		}
	}
	out.AbsentToday = max(out.TotalEmployees-out.PresentToday-out.OnLeaveToday, 0)
	return out, nil
}

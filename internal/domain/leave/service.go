package leave

import (
	"context"
	"strings"
	"time"
)

type Service struct {
	store    StoreAPI
	Location *time.Location
	Now      func() time.Time
}

func NewService(store StoreAPI, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, Location: loc, Now: time.Now}
}

func (s *Service) today() time.Time {
	return civil(s.Now().In(s.Location))
}

// Submit creates a Pending request. Balances are only touched on approval.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Request, error) {
	if err := Validate(in, s.today()); err != nil {
		return Request{}, err
	}
	days, err := Duration(in.StartDate, in.EndDate)
	if err != nil {
		return Request{}, err
	}

	return s.store.CreateLeave(ctx, Request{
		EmployeeID: in.EmployeeID,
		Type:       in.Type,
		StartDate:  civil(in.StartDate),
		EndDate:    civil(in.EndDate),
		Days:       days,
		Reason:     strings.TrimSpace(in.Reason),
		Status:     StatusPending,
	})
}

func (s *Service) Decide(ctx context.Context, d Decision) (Request, error) {
	if !d.DeciderIsAdmin {
		return Request{}, ErrForbidden
	}
	if d.Status != StatusApproved && d.Status != StatusRejected {
		return Request{}, ErrInvalidDecision
	}

	req, err := s.store.GetLeave(ctx, d.LeaveID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrAlreadyDecided
	}

	d.Comments = strings.TrimSpace(d.Comments)
	at := s.Now()
	if d.Status == StatusRejected {
		return s.store.RejectLeave(ctx, d, at)
	}
	return s.store.ApproveLeave(ctx, req, d, at)
}

// Get returns a request visible to the viewer: admins see all, employees their own.
func (s *Service) Get(ctx context.Context, id, viewerID string, viewerIsAdmin bool) (Request, error) {
	req, err := s.store.GetLeave(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !viewerIsAdmin && req.EmployeeID != viewerID {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	if filter.Status != "" && filter.Status != StatusPending && !Terminal(filter.Status) {
		return ListResult{}, ErrInvalidStatus
	}
	return s.store.ListLeaves(ctx, filter)
}

func (s *Service) Approved(ctx context.Context, from, to time.Time, employeeID string) ([]Request, error) {
	return s.store.ListApproved(ctx, civil(from), civil(to), employeeID)
}

package notifications

import (
	"context"

	"ets/internal/platform/email"
	"ets/internal/platform/logging"
)

type Service struct {
	store  StoreAPI
	Mailer email.Mailer
	From   string
}

func New(store StoreAPI, mailer email.Mailer, from string) *Service {
	if mailer == nil {
		mailer = email.Noop()
	}
	return &Service{store: store, Mailer: mailer, From: from}
}

// Create stores an in-app notification and mirrors it by email. Email
// failures are logged and never fail the call.
func (s *Service) Create(ctx context.Context, employeeID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, employeeID, ntype, title, body); err != nil {
		return err
	}

	to, err := s.store.EmployeeEmail(ctx, employeeID)
	if err != nil {
		logging.From(ctx).Warn().Err(err).Str("employee_id", employeeID).Msg("notification email lookup failed")
		return nil
	}
	if err := s.Mailer.Send(ctx, s.From, to, title, body); err != nil {
		logging.From(ctx).Warn().Err(err).Str("employee_id", employeeID).Msg("notification email send failed")
	}
	return nil
}

// Broadcast notifies each recipient, continuing past individual failures.
func (s *Service) Broadcast(ctx context.Context, employeeIDs []string, ntype, title, body string) error {
	var firstErr error
	for _, id := range employeeIDs {
		if err := s.Create(ctx, id, ntype, title, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) List(ctx context.Context, employeeID string, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	total, err := s.store.CountNotifications(ctx, employeeID, unreadOnly)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.store.ListNotifications(ctx, employeeID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) MarkRead(ctx context.Context, employeeID, notificationID string) error {
	return s.store.MarkRead(ctx, employeeID, notificationID)
}

package notice

import (
	"context"
	"strings"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func normalize(in Input) (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.Title == "" || in.Message == "" {
		return in, ErrInvalidInput
	}
	if in.Type == "" {
		in.Type = TypeGeneral
	}
	if !ValidType(in.Type) {
		return in, ErrInvalidType
	}
	return in, nil
}

func (s *Service) Create(ctx context.Context, authorID string, in Input) (Notice, error) {
	in, err := normalize(in)
	if err != nil {
		return Notice{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return s.store.CreateNotice(ctx, Notice{
		Title:    in.Title,
		Message:  in.Message,
		Type:     in.Type,
		AuthorID: authorID,
		Active:   active,
	})
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Notice, error) {
	in, err := normalize(in)
	if err != nil {
		return Notice{}, err
	}
	current, err := s.store.GetNotice(ctx, id)
	if err != nil {
		return Notice{}, err
	}
	current.Title = in.Title
	current.Message = in.Message
	current.Type = in.Type
	if in.Active != nil {
		current.Active = *in.Active
	}
	return s.store.UpdateNotice(ctx, current)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteNotice(ctx, id)
}

// Get hides inactive notices from non-admins.
func (s *Service) Get(ctx context.Context, id string, viewerIsAdmin bool) (Notice, error) {
	n, err := s.store.GetNotice(ctx, id)
	if err != nil {
		return Notice{}, err
	}
	if !n.Active && !viewerIsAdmin {
		return Notice{}, ErrNotFound
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, viewerIsAdmin bool, limit, offset int) ([]Notice, int, error) {
	return s.store.ListNotices(ctx, !viewerIsAdmin, limit, offset)
}

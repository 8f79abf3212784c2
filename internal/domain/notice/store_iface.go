package notice

import "context"

type StoreAPI interface {
	CreateNotice(ctx context.Context, n Notice) (Notice, error)
	GetNotice(ctx context.Context, id string) (Notice, error)
	UpdateNotice(ctx context.Context, n Notice) (Notice, error)
	DeleteNotice(ctx context.Context, id string) error
	ListNotices(ctx context.Context, activeOnly bool, limit, offset int) ([]Notice, int, error)
}

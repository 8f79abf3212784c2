package notice

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"ets/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const noticeColumns = `id, title, message, notice_type, author_id, active, created_at, updated_at`

func scanNotice(row pgx.Row) (Notice, error) {
	var n Notice
	err := row.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.AuthorID, &n.Active, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Notice{}, ErrNotFound
	}
	return n, err
}

func (s *Store) CreateNotice(ctx context.Context, n Notice) (Notice, error) {
	return scanNotice(s.DB.QueryRow(ctx, `
    INSERT INTO notices (title, message, notice_type, author_id, active)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+noticeColumns,
		n.Title, n.Message, n.Type, n.AuthorID, n.Active))
}

func (s *Store) GetNotice(ctx context.Context, id string) (Notice, error) {
	return scanNotice(s.DB.QueryRow(ctx, `SELECT `+noticeColumns+` FROM notices WHERE id = $1`, id))
}

func (s *Store) UpdateNotice(ctx context.Context, n Notice) (Notice, error) {
	return scanNotice(s.DB.QueryRow(ctx, `
    UPDATE notices
    SET title = $2, message = $3, notice_type = $4, active = $5, updated_at = now()
    WHERE id = $1
    RETURNING `+noticeColumns,
		n.ID, n.Title, n.Message, n.Type, n.Active))
}

func (s *Store) DeleteNotice(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListNotices(ctx context.Context, activeOnly bool, limit, offset int) ([]Notice, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM notices WHERE active OR NOT $1`, activeOnly).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT `+noticeColumns+`
    FROM notices
    WHERE active OR NOT $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Notice{}
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

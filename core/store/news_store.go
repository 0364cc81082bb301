package store

import (
	"context"
	"database/sql"
	"time"
)

type NewsStore interface {
	Get(ctx context.Context, id int64) (*NewsPost, error)
	List(ctx context.Context) ([]NewsPost, error)
	Create(ctx context.Context, p *NewsPost) (int64, error)
	Update(ctx context.Context, p *NewsPost) error
	Delete(ctx context.Context, id int64) error
}

type newsStore struct {
	db *sql.DB
}

func NewNewsStore(db *sql.DB) NewsStore {
	return &newsStore{db: db}
}

const newsColumns = `id, title, body, created_by, created_at, updated_at`

func (s *newsStore) Get(ctx context.Context, id int64) (*NewsPost, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+newsColumns+` FROM news_posts WHERE id=?`, id)
	var p NewsPost
	if err := row.Scan(&p.ID, &p.Title, &p.Body, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *newsStore) List(ctx context.Context) ([]NewsPost, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+newsColumns+` FROM news_posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []NewsPost
	for rows.Next() {
		var p NewsPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *newsStore) Create(ctx context.Context, p *NewsPost) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO news_posts(title, body, created_by, created_at, updated_at) VALUES(?,?,?,?,?)`,
		p.Title, p.Body, p.CreatedBy, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

func (s *newsStore) Update(ctx context.Context, p *NewsPost) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE news_posts SET title=?, body=?, updated_at=? WHERE id=?`,
		p.Title, p.Body, time.Now().UTC(), p.ID)
	return err
}

func (s *newsStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM news_posts WHERE id=?`, id)
	return err
}

package store

import (
	"context"
	"database/sql"
	"time"
)

type IntelStore interface {
	Get(ctx context.Context, id int64) (*IntelItem, error)
	List(ctx context.Context) ([]IntelItem, error)
	Create(ctx context.Context, it *IntelItem) (int64, error)
	Update(ctx context.Context, it *IntelItem) error
	Delete(ctx context.Context, id int64) error
}

type intelStore struct {
	db *sql.DB
}

func NewIntelStore(db *sql.DB) IntelStore {
	return &intelStore{db: db}
}

const intelColumns = `id, title, body, source, created_by, created_at, updated_at`

func (s *intelStore) Get(ctx context.Context, id int64) (*IntelItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+intelColumns+` FROM intel_items WHERE id=?`, id)
	var it IntelItem
	if err := row.Scan(&it.ID, &it.Title, &it.Body, &it.Source, &it.CreatedBy, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

func (s *intelStore) List(ctx context.Context) ([]IntelItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+intelColumns+` FROM intel_items ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []IntelItem
	for rows.Next() {
		var it IntelItem
		if err := rows.Scan(&it.ID, &it.Title, &it.Body, &it.Source, &it.CreatedBy, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *intelStore) Create(ctx context.Context, it *IntelItem) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO intel_items(title, body, source, created_by, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		it.Title, it.Body, it.Source, it.CreatedBy, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	it.ID = id
	return id, nil
}

func (s *intelStore) Update(ctx context.Context, it *IntelItem) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE intel_items SET title=?, body=?, source=?, updated_at=? WHERE id=?`,
		it.Title, it.Body, it.Source, time.Now().UTC(), it.ID)
	return err
}

func (s *intelStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM intel_items WHERE id=?`, id)
	return err
}

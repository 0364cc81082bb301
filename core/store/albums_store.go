package store

import (
	"context"
	"database/sql"
	"time"
)

type AlbumsStore interface {
	Get(ctx context.Context, id int64) (*Album, error)
	List(ctx context.Context) ([]Album, error)
	Create(ctx context.Context, a *Album) (int64, error)
	Update(ctx context.Context, a *Album) error
	Delete(ctx context.Context, id int64) error
}

type albumsStore struct {
	db *sql.DB
}

func NewAlbumsStore(db *sql.DB) AlbumsStore {
	return &albumsStore{db: db}
}

const albumColumns = `id, title, description, cover_url, created_by, created_at, updated_at`

func (s *albumsStore) Get(ctx context.Context, id int64) (*Album, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id=?`, id)
	var a Album
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &a.CoverURL, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *albumsStore) List(ctx context.Context) ([]Album, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+albumColumns+` FROM albums ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Album
	for rows.Next() {
		var a Album
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.CoverURL, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *albumsStore) Create(ctx context.Context, a *Album) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO albums(title, description, cover_url, created_by, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		a.Title, a.Description, a.CoverURL, a.CreatedBy, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

func (s *albumsStore) Update(ctx context.Context, a *Album) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE albums SET title=?, description=?, cover_url=?, updated_at=? WHERE id=?`,
		a.Title, a.Description, a.CoverURL, time.Now().UTC(), a.ID)
	return err
}

func (s *albumsStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM albums WHERE id=?`, id)
	return err
}

package store

import (
	"context"
	"database/sql"
	"time"
)

// LoginActivityStore is append-only: records are never mutated after
// creation. They feed the admin dashboard and audit views.
type LoginActivityStore interface {
	Record(ctx context.Context, a *LoginActivity) error
	List(ctx context.Context, limit int) ([]LoginActivity, error)
	ListByIP(ctx context.Context, ip string, limit int) ([]LoginActivity, error)
	StatusCounts(ctx context.Context, since time.Time) (map[string]int, error)
}

type activityStore struct {
	db *sql.DB
}

func NewLoginActivityStore(db *sql.DB) LoginActivityStore {
	return &activityStore{db: db}
}

func (s *activityStore) Record(ctx context.Context, a *LoginActivity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO login_activity(user_id, email, ip, user_agent, device, status, reason, created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		nullableInt64(a.UserID), a.Email, a.IP, a.UserAgent, a.Device, a.Status, a.Reason, a.CreatedAt)
	return err
}

const activityColumns = `id, user_id, email, ip, user_agent, device, status, reason, created_at`

func (s *activityStore) List(ctx context.Context, limit int) ([]LoginActivity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+` FROM login_activity ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func (s *activityStore) ListByIP(ctx context.Context, ip string, limit int) ([]LoginActivity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+` FROM login_activity WHERE ip=? ORDER BY created_at DESC, id DESC LIMIT ?`, ip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func (s *activityStore) StatusCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(1) FROM login_activity WHERE created_at >= ? GROUP BY status`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func scanActivities(rows *sql.Rows) ([]LoginActivity, error) {
	var out []LoginActivity
	for rows.Next() {
		var a LoginActivity
		var userID sql.NullInt64
		if err := rows.Scan(&a.ID, &userID, &a.Email, &a.IP, &a.UserAgent, &a.Device, &a.Status, &a.Reason, &a.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			v := userID.Int64
			a.UserID = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

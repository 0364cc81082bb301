package store

import (
	"context"
	"database/sql"
	"time"
)

type BansStore interface {
	// Upsert writes a ban keyed by IP; an existing ban is overwritten
	// (latest reason and expiry win, bans do not stack).
	Upsert(ctx context.Context, ban *BannedIP) error
	FindByIP(ctx context.Context, ip string) (*BannedIP, error)
	// ListActive returns bans that are permanent or not yet expired at now.
	ListActive(ctx context.Context, now time.Time) ([]BannedIP, error)
	Delete(ctx context.Context, ip string) error
}

type bansStore struct {
	db *sql.DB
}

func NewBansStore(db *sql.DB) BansStore {
	return &bansStore{db: db}
}

func (s *bansStore) Upsert(ctx context.Context, ban *BannedIP) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE banned_ips SET reason=?, banned_by=?, expires_at=?, updated_at=? WHERE ip=?`,
		ban.Reason, ban.BannedBy, nullableTime(ban.ExpiresAt), now, ban.IP)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO banned_ips(ip, reason, banned_by, expires_at, created_at, updated_at)
		VALUES(?,?,?,?,?,?)`,
		ban.IP, ban.Reason, ban.BannedBy, nullableTime(ban.ExpiresAt), now, now)
	if err == ErrDuplicate || translateUnique(err) == ErrDuplicate {
		// Raced with another writer; their ban is current enough.
		return nil
	}
	return err
}

const banColumns = `id, ip, reason, banned_by, expires_at, created_at, updated_at`

func (s *bansStore) FindByIP(ctx context.Context, ip string) (*BannedIP, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+banColumns+` FROM banned_ips WHERE ip=?`, ip)
	return scanBan(row)
}

func (s *bansStore) ListActive(ctx context.Context, now time.Time) ([]BannedIP, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+banColumns+` FROM banned_ips
		WHERE expires_at IS NULL OR expires_at > ?
		ORDER BY created_at DESC`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BannedIP
	for rows.Next() {
		b, err := scanBan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *bansStore) Delete(ctx context.Context, ip string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM banned_ips WHERE ip=?`, ip)
	return err
}

func scanBan(row rowScanner) (*BannedIP, error) {
	var b BannedIP
	var expires sql.NullTime
	if err := row.Scan(&b.ID, &b.IP, &b.Reason, &b.BannedBy, &expires, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		b.ExpiresAt = &t
	}
	return &b, nil
}

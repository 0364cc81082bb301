package store

import (
	"context"
	"database/sql"
	"time"
)

type UsersStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Get(ctx context.Context, userID int64) (*User, error)
	Create(ctx context.Context, user *User) (int64, error)
	List(ctx context.Context) ([]User, error)
	SetOTP(ctx context.Context, userID int64, code string, expiresAt time.Time) error
	IncrementOTPAttempts(ctx context.Context, userID int64) error
	ClearOTP(ctx context.Context, userID int64) error
	SetSession(ctx context.Context, userID int64, fingerprint, device string, createdAt time.Time) error
	ClearSession(ctx context.Context, userID int64) error
	UpdatePassword(ctx context.Context, userID int64, hash, salt string) error
	SetRole(ctx context.Context, userID int64, role string) error
	LinkAgent(ctx context.Context, userID int64, agentID *int64) error
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `id, email, name, role, password_hash, salt, otp_code, otp_expires_at, otp_attempts, session_token, session_created_at, session_device, agent_id, created_at, updated_at`

func (s *usersStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=?`, email)
	return scanUser(row)
}

func (s *usersStore) Get(ctx context.Context, userID int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, userID)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	u := User{}
	var otpExpires, sessionCreated sql.NullTime
	var agentID sql.NullInt64
	if err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.Salt,
		&u.OTPCode, &otpExpires, &u.OTPAttempts,
		&u.SessionToken, &sessionCreated, &u.SessionDevice,
		&agentID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if otpExpires.Valid {
		t := otpExpires.Time
		u.OTPExpiresAt = &t
	}
	if sessionCreated.Valid {
		t := sessionCreated.Time
		u.SessionCreatedAt = &t
	}
	if agentID.Valid {
		v := agentID.Int64
		u.AgentID = &v
	}
	return &u, nil
}

func (s *usersStore) Create(ctx context.Context, user *User) (int64, error) {
	now := time.Now().UTC()
	if user.Role == "" {
		user.Role = RoleViewer
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users(email, name, role, password_hash, salt, agent_id, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		user.Email, user.Name, user.Role, user.PasswordHash, user.Salt,
		nullableInt64(user.AgentID), now, now)
	if err != nil {
		return 0, translateUnique(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return id, nil
}

func (s *usersStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// SetOTP installs a fresh code and resets the attempt counter.
func (s *usersStore) SetOTP(ctx context.Context, userID int64, code string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET otp_code=?, otp_expires_at=?, otp_attempts=0, updated_at=? WHERE id=?`,
		code, expiresAt.UTC(), time.Now().UTC(), userID)
	return err
}

func (s *usersStore) IncrementOTPAttempts(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET otp_attempts=otp_attempts+1, updated_at=? WHERE id=?`,
		time.Now().UTC(), userID)
	return err
}

func (s *usersStore) ClearOTP(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET otp_code='', otp_expires_at=NULL, otp_attempts=0, updated_at=? WHERE id=?`,
		time.Now().UTC(), userID)
	return err
}

// SetSession overwrites the stored fingerprint. Tokens minted against the
// previous fingerprint fail comparison on their next use.
func (s *usersStore) SetSession(ctx context.Context, userID int64, fingerprint, device string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET session_token=?, session_created_at=?, session_device=?, updated_at=? WHERE id=?`,
		fingerprint, createdAt.UTC(), device, time.Now().UTC(), userID)
	return err
}

func (s *usersStore) ClearSession(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET session_token='', session_created_at=NULL, session_device='', updated_at=? WHERE id=?`,
		time.Now().UTC(), userID)
	return err
}

// UpdatePassword also clears the session fingerprint so every device has to
// log in again with the new password.
func (s *usersStore) UpdatePassword(ctx context.Context, userID int64, hash, salt string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=?, salt=?, session_token='', session_created_at=NULL, session_device='', updated_at=? WHERE id=?`,
		hash, salt, time.Now().UTC(), userID)
	return err
}

func (s *usersStore) SetRole(ctx context.Context, userID int64, role string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET role=?, updated_at=? WHERE id=?`,
		role, time.Now().UTC(), userID)
	return err
}

func (s *usersStore) LinkAgent(ctx context.Context, userID int64, agentID *int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET agent_id=?, updated_at=? WHERE id=?`,
		nullableInt64(agentID), time.Now().UTC(), userID)
	return err
}

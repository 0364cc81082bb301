package store

import (
	"context"
	"database/sql"
	"time"
)

type AgentsStore interface {
	Get(ctx context.Context, id int64) (*Agent, error)
	List(ctx context.Context) ([]Agent, error)
	Create(ctx context.Context, a *Agent) (int64, error)
	Update(ctx context.Context, a *Agent) error
	SetStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type agentsStore struct {
	db *sql.DB
}

func NewAgentsStore(db *sql.DB) AgentsStore {
	return &agentsStore{db: db}
}

const agentColumns = `id, codename, rank, status, bio, created_at, updated_at`

func (s *agentsStore) Get(ctx context.Context, id int64) (*Agent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id=?`, id)
	var a Agent
	if err := row.Scan(&a.ID, &a.Codename, &a.Rank, &a.Status, &a.Bio, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *agentsStore) List(ctx context.Context) ([]Agent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY codename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.Codename, &a.Rank, &a.Status, &a.Bio, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *agentsStore) Create(ctx context.Context, a *Agent) (int64, error) {
	now := time.Now().UTC()
	if a.Status == "" {
		a.Status = AgentStatusOffline
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO agents(codename, rank, status, bio, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		a.Codename, a.Rank, a.Status, a.Bio, now, now)
	if err != nil {
		return 0, translateUnique(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

func (s *agentsStore) Update(ctx context.Context, a *Agent) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE agents SET codename=?, rank=?, status=?, bio=?, updated_at=? WHERE id=?`,
		a.Codename, a.Rank, a.Status, a.Bio, time.Now().UTC(), a.ID)
	return translateUnique(err)
}

func (s *agentsStore) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE agents SET status=?, updated_at=? WHERE id=?`,
		status, time.Now().UTC(), id)
	return err
}

func (s *agentsStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id=?`, id)
	return err
}

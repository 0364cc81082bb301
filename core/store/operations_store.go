package store

import (
	"context"
	"database/sql"
	"time"
)

type OperationsStore interface {
	Get(ctx context.Context, id int64) (*Operation, error)
	List(ctx context.Context) ([]Operation, error)
	Create(ctx context.Context, op *Operation) (int64, error)
	Update(ctx context.Context, op *Operation) error
	Delete(ctx context.Context, id int64) error
}

type operationsStore struct {
	db *sql.DB
}

func NewOperationsStore(db *sql.DB) OperationsStore {
	return &operationsStore{db: db}
}

const operationColumns = `id, title, objective, status, lead_agent_id, starts_at, created_by, created_at, updated_at`

func scanOperation(row rowScanner) (*Operation, error) {
	var op Operation
	var lead sql.NullInt64
	var starts sql.NullTime
	if err := row.Scan(&op.ID, &op.Title, &op.Objective, &op.Status, &lead, &starts, &op.CreatedBy, &op.CreatedAt, &op.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if lead.Valid {
		v := lead.Int64
		op.LeadAgentID = &v
	}
	if starts.Valid {
		t := starts.Time
		op.StartsAt = &t
	}
	return &op, nil
}

func (s *operationsStore) Get(ctx context.Context, id int64) (*Operation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+operationColumns+` FROM operations WHERE id=?`, id)
	return scanOperation(row)
}

func (s *operationsStore) List(ctx context.Context) ([]Operation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+operationColumns+` FROM operations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *op)
	}
	return out, rows.Err()
}

func (s *operationsStore) Create(ctx context.Context, op *Operation) (int64, error) {
	now := time.Now().UTC()
	if op.Status == "" {
		op.Status = "planned"
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO operations(title, objective, status, lead_agent_id, starts_at, created_by, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		op.Title, op.Objective, op.Status, nullableInt64(op.LeadAgentID), nullableTime(op.StartsAt), op.CreatedBy, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	op.ID = id
	return id, nil
}

func (s *operationsStore) Update(ctx context.Context, op *Operation) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE operations SET title=?, objective=?, status=?, lead_agent_id=?, starts_at=?, updated_at=? WHERE id=?`,
		op.Title, op.Objective, op.Status, nullableInt64(op.LeadAgentID), nullableTime(op.StartsAt), time.Now().UTC(), op.ID)
	return err
}

func (s *operationsStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM operations WHERE id=?`, id)
	return err
}

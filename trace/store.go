package trace

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Record is one persisted hook invocation.
type Record struct {
	ID           int64
	CreatedAt    string
	AppName      string
	SessionID    string
	InvocationID string
	Hook         string
	Agent        string
	Tool         string
	Detail       string
}

// Store provides persistence for hook records.
type Store struct {
	db *sql.DB
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Append inserts one record. CreatedAt is stamped here.
func (s *Store) Append(ctx context.Context, rec Record) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `INSERT INTO records(created_at, app_name, session_id, invocation_id, hook, agent, tool, detail)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt, rec.AppName, rec.SessionID, rec.InvocationID, rec.Hook, rec.Agent, rec.Tool, rec.Detail)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// List returns up to limit records in insertion order.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, app_name, session_id, invocation_id, hook, agent, tool, detail
		FROM records ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.AppName, &rec.SessionID, &rec.InvocationID, &rec.Hook, &rec.Agent, &rec.Tool, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Package audit records an append-only operation log for mutating requests.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/burrow-admin/burrow/internal/shared"
)

// OperationLog represents one audited request. Records are never updated or
// deleted.
type OperationLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Route     string    `json:"route"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	IP        string    `json:"ip"`
	Content   string    `json:"content"`
	IsSuccess bool      `json:"is_success"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink persists operation log entries.
type Sink interface {
	Record(ctx context.Context, log OperationLog) error
}

// Recorder writes operation log entries to PostgreSQL.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record persists one log entry.
func (r *Recorder) Record(ctx context.Context, log OperationLog) error {
	if r == nil {
		return errors.New("audit: recorder not initialised")
	}
	if log.Route == "" || log.Method == "" {
		return errors.New("audit: log requires route and method")
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO operation_logs (user_id, route, method, path, ip, content, is_success)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.UserID, log.Route, log.Method, log.Path, log.IP, log.Content, log.IsSuccess)
	return err
}

// List returns one page of log entries, newest first.
func (r *Recorder) List(ctx context.Context, page shared.Pagination) ([]OperationLog, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM operation_logs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, route, method, path, ip, content, is_success, created_at
		 FROM operation_logs ORDER BY id DESC LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []OperationLog
	for rows.Next() {
		var l OperationLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Route, &l.Method, &l.Path, &l.IP, &l.Content,
			&l.IsSuccess, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

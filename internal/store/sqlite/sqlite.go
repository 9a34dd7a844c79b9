// Package sqlite provides a SQLite execution store for single-node
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/actiond/actiond/internal/store"
	"github.com/actiond/actiond/pkg/errors"
)

// Compile-time interface assertion.
var _ store.ExecutionStore = (*Store)(nil)

// Store is a SQLite-backed execution store.
type Store struct {
	db *sql.DB
}

// Config contains SQLite connection configuration.
type Config struct {
	// Path is the database file path.
	Path string

	// WAL enables Write-Ahead Logging mode for concurrent reads.
	WAL bool
}

// New opens (or creates) the database and runs migrations.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes, so a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.configurePragmas(ctx, cfg.WAL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure pragmas: %w", err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) configurePragmas(ctx context.Context, enableWAL bool) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	// seq provides insertion order for List; id stays the external key.
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			action_id TEXT NOT NULL,
			action_name TEXT NOT NULL,
			parameters TEXT,
			status TEXT NOT NULL,
			error TEXT,
			dispatch_ref TEXT,
			created_at TEXT NOT NULL,
			completed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_action_name ON executions(action_name)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_action_id ON executions(action_id)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status)`,
	}
	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Create persists a new execution record.
func (s *Store) Create(ctx context.Context, e *store.Execution) error {
	paramsJSON, err := json.Marshal(e.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO executions (id, action_id, action_name, parameters, status, error, dispatch_ref, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		e.ID, e.ActionID, e.ActionName, string(paramsJSON), string(e.Status),
		nullString(e.Error), nullString(e.DispatchRef),
		e.CreatedAt.Format(time.RFC3339Nano), formatTime(e.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}
	return nil
}

// Get retrieves an execution by ID.
func (s *Store) Get(ctx context.Context, id string) (*store.Execution, error) {
	query := `
		SELECT id, action_id, action_name, parameters, status, error, dispatch_ref, created_at, completed_at
		FROM executions WHERE id = ?
	`
	e, err := scanExecution(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return e, nil
}

// List returns executions matching the filter in insertion order.
// Limit == 0 means unbounded.
func (s *Store) List(ctx context.Context, filter store.Filter) ([]*store.Execution, error) {
	query := `
		SELECT id, action_id, action_name, parameters, status, error, dispatch_ref, created_at, completed_at
		FROM executions
	`
	var (
		conds []string
		args  []any
	)
	if filter.ActionName != "" {
		conds = append(conds, "action_name = ?")
		args = append(args, filter.ActionName)
	}
	if filter.ActionID != "" {
		conds = append(conds, "action_id = ?")
		args = append(args, filter.ActionID)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY seq"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var result []*store.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Update replaces an existing execution record.
func (s *Store) Update(ctx context.Context, e *store.Execution) error {
	paramsJSON, err := json.Marshal(e.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	query := `
		UPDATE executions SET
			action_id = ?, action_name = ?, parameters = ?, status = ?,
			error = ?, dispatch_ref = ?, completed_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		e.ActionID, e.ActionName, string(paramsJSON), string(e.Status),
		nullString(e.Error), nullString(e.DispatchRef), formatTime(e.CompletedAt),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &errors.NotFoundError{Resource: "execution", ID: e.ID}
	}
	return nil
}

// Delete removes an execution by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM executions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete execution: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(row scanner) (*store.Execution, error) {
	var (
		e          store.Execution
		status     string
		paramsJSON sql.NullString
		errStr     sql.NullString
		ref        sql.NullString
		createdAt  string
		completed  sql.NullString
	)
	if err := row.Scan(&e.ID, &e.ActionID, &e.ActionName, &paramsJSON, &status,
		&errStr, &ref, &createdAt, &completed); err != nil {
		return nil, err
	}

	e.Status = store.Status(status)
	if errStr.Valid {
		e.Error = errStr.String
	}
	if ref.Valid {
		e.DispatchRef = ref.String
	}
	if paramsJSON.Valid && paramsJSON.String != "" {
		if err := json.Unmarshal([]byte(paramsJSON.String), &e.Parameters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal parameters: %w", err)
		}
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if completed.Valid {
		t, _ := time.Parse(time.RFC3339Nano, completed.String)
		e.CompletedAt = &t
	}
	return &e, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

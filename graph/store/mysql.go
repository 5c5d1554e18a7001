package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL implementation of Store[S].
//
// Intended for multi-process deployments where several API replicas
// share session history. Uses the same single-table schema as the
// SQLite store with MySQL column types.
//
// DSN example: "user:pass@tcp(localhost:3306)/tripflow?parseTime=true"
//
// Type parameter S must be JSON-serializable.
type MySQLStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a new MySQL-backed store and migrates its schema.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLStore[S]{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *MySQLStore[S]) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS workflow_steps (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(191) NOT NULL,
			step INT NOT NULL,
			node_id VARCHAR(191) NOT NULL,
			state JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_run_step (run_id, step),
			KEY idx_run_id (run_id)
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create workflow_steps table: %w", err)
	}
	return nil
}

// SaveStep persists a workflow execution step.
func (s *MySQLStore[S]) SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO workflow_steps (run_id, step, node_id, state) VALUES (?, ?, ?, ?)",
		runID, step, nodeID, string(data))
	if err != nil {
		return fmt.Errorf("failed to insert step: %w", err)
	}
	return nil
}

// LoadLatest retrieves the highest-numbered step for a run.
func (s *MySQLStore[S]) LoadLatest(ctx context.Context, runID string) (state S, step int, nodeID string, err error) {
	var zero S

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return zero, 0, "", fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	var data string
	row := s.db.QueryRowContext(ctx,
		"SELECT step, node_id, state FROM workflow_steps WHERE run_id = ? ORDER BY step DESC LIMIT 1",
		runID)
	if err := row.Scan(&step, &nodeID, &data); err != nil {
		if err == sql.ErrNoRows {
			return zero, 0, "", ErrNotFound
		}
		return zero, 0, "", fmt.Errorf("failed to query latest step: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return zero, 0, "", fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, step, nodeID, nil
}

// Delete removes all steps for a run.
func (s *MySQLStore[S]) Delete(ctx context.Context, runID string) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM workflow_steps WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *MySQLStore[S]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

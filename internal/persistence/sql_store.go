package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/amalgammas/ozon-slotbot/internal/task"
)

// SQLStore is a Postgres-backed Store: a thin repository over two tables,
// one for pending task snapshots and one for completed orders.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens a connection pool against dsn, pings it, and ensures
// the two tables this adapter needs exist.
func OpenSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("persistence: ping database: %w", err)
	}
	s := &SQLStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS supply_tasks (
	user_id TEXT NOT NULL,
	task_id TEXT NOT NULL,
	state TEXT NOT NULL,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, task_id)
);
CREATE TABLE IF NOT EXISTS supply_completed_orders (
	task_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	order_id BIGINT NOT NULL,
	operation_id TEXT NOT NULL,
	draft_id TEXT NOT NULL,
	warehouse_id TEXT NOT NULL,
	payload JSONB NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (task_id, order_id)
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	if err != nil {
		return fmt.Errorf("persistence: ensure schema: %w", err)
	}
	return nil
}

func (s *SQLStore) Save(ctx context.Context, t task.Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("persistence: marshal task: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO supply_tasks (user_id, task_id, state, payload, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (user_id, task_id) DO UPDATE
SET state = EXCLUDED.state, payload = EXCLUDED.payload, updated_at = now()
`, t.UserID, t.TaskID, string(t.State), payload)
	if err != nil {
		return fmt.Errorf("persistence: save task: %w", err)
	}
	return nil
}

func (s *SQLStore) Find(ctx context.Context, userID, taskID string) (task.Task, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM supply_tasks WHERE user_id = $1 AND task_id = $2`,
		userID, taskID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, false, nil
	}
	if err != nil {
		return task.Task{}, false, fmt.Errorf("persistence: find task: %w", err)
	}
	var t task.Task
	if err := json.Unmarshal(payload, &t); err != nil {
		return task.Task{}, false, fmt.Errorf("persistence: unmarshal task: %w", err)
	}
	return t, true, nil
}

func (s *SQLStore) Delete(ctx context.Context, userID, taskID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM supply_tasks WHERE user_id = $1 AND task_id = $2`,
		userID, taskID,
	)
	if err != nil {
		return fmt.Errorf("persistence: delete task: %w", err)
	}
	return nil
}

func (s *SQLStore) Complete(ctx context.Context, order CompletedOrder) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("persistence: marshal completed order: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO supply_completed_orders
	(task_id, user_id, order_id, operation_id, draft_id, warehouse_id, payload, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (task_id, order_id) DO NOTHING
`, order.TaskID, order.UserID, order.OrderID, order.OperationID, order.DraftID, order.WarehouseID, payload, order.CompletedAt)
	if err != nil {
		return fmt.Errorf("persistence: complete order: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)

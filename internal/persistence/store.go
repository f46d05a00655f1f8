// Package persistence defines the task store contract the engine snapshots
// progress through (save/find/delete/complete) plus two implementations: an
// in-memory store for tests and the demo CLI, and a Postgres-backed store.
package persistence

import (
	"context"
	"time"

	"github.com/amalgammas/ozon-slotbot/internal/task"
)

// CompletedOrder is the durable record of a successfully booked supply.
type CompletedOrder struct {
	TaskID      string
	UserID      string
	OrderID     int64
	OperationID string
	DraftID     string
	WarehouseID string
	Timeslot    task.Slot
	Items       []task.Item
	CompletedAt time.Time
}

// Store is the persistence contract the engine depends on. Schema is
// opaque to the engine beyond these four operations.
type Store interface {
	Save(ctx context.Context, t task.Task) error
	Find(ctx context.Context, userID, taskID string) (task.Task, bool, error)
	Delete(ctx context.Context, userID, taskID string) error
	Complete(ctx context.Context, order CompletedOrder) error
}

package persistence

import (
	"context"
	"sync"

	"github.com/amalgammas/ozon-slotbot/internal/task"
)

// MemoryStore is an in-process Store, used by tests and the demo CLI when
// PERSISTENCE_DRIVER=memory.
type MemoryStore struct {
	mu        sync.Mutex
	tasks     map[string]task.Task // keyed by userID + "/" + taskID
	completed []CompletedOrder
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]task.Task)}
}

func key(userID, taskID string) string { return userID + "/" + taskID }

func (s *MemoryStore) Save(_ context.Context, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[key(t.UserID, t.TaskID)] = t
	return nil
}

func (s *MemoryStore) Find(_ context.Context, userID, taskID string) (task.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[key(userID, taskID)]
	return t, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, key(userID, taskID))
	return nil
}

func (s *MemoryStore) Complete(_ context.Context, order CompletedOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, order)
	return nil
}

// CompletedOrders returns a snapshot of every completed order, for tests.
func (s *MemoryStore) CompletedOrders() []CompletedOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CompletedOrder(nil), s.completed...)
}

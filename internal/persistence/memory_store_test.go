package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amalgammas/ozon-slotbot/internal/task"
)

func TestMemoryStoreSaveFindRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	tk := task.Task{TaskID: "t1", UserID: "u1", State: task.StateDraftPending}

	require.NoError(t, s.Save(ctx, tk))

	got, found, err := s.Find(ctx, "u1", "t1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, task.StateDraftPending, got.State)
}

func TestMemoryStoreFindMissingReturnsFalse(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	_, found, err := s.Find(context.Background(), "u1", "missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryStoreKeysAreScopedPerUser(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, task.Task{TaskID: "t1", UserID: "u1", State: task.StateCreated}))
	require.NoError(t, s.Save(ctx, task.Task{TaskID: "t1", UserID: "u2", State: task.StatePolling}))

	a, _, _ := s.Find(ctx, "u1", "t1")
	b, _, _ := s.Find(ctx, "u2", "t1")
	require.Equal(t, task.StateCreated, a.State)
	require.Equal(t, task.StatePolling, b.State)
}

func TestMemoryStoreDeleteRemovesRecord(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, task.Task{TaskID: "t1", UserID: "u1"}))
	require.NoError(t, s.Delete(ctx, "u1", "t1"))

	_, found, _ := s.Find(ctx, "u1", "t1")
	require.False(t, found)
}

func TestMemoryStoreDeleteMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	require.NoError(t, s.Delete(context.Background(), "u1", "never-existed"))
}

func TestMemoryStoreCompleteAppendsOrder(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	order := CompletedOrder{TaskID: "t1", UserID: "u1", OrderID: 42, CompletedAt: time.Now()}

	require.NoError(t, s.Complete(ctx, order))
	require.NoError(t, s.Complete(ctx, CompletedOrder{TaskID: "t2", UserID: "u1", OrderID: 43}))

	got := s.CompletedOrders()
	require.Len(t, got, 2)
	require.Equal(t, int64(42), got[0].OrderID)
}

func TestMemoryStoreSatisfiesStoreInterface(t *testing.T) {
	t.Parallel()
	var _ Store = NewMemoryStore()
}

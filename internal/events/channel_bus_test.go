package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelBusDeliversInOrder(t *testing.T) {
	t.Parallel()

	b := NewChannelBus(4)
	b.Emit(Event{Type: TypeDraftCreated, TaskID: "t1"})
	b.Emit(Event{Type: TypeDraftValid, TaskID: "t1"})

	require.Equal(t, TypeDraftCreated, (<-b.Events()).Type)
	require.Equal(t, TypeDraftValid, (<-b.Events()).Type)
}

func TestChannelBusDropsRatherThanBlockWhenFull(t *testing.T) {
	t.Parallel()

	b := NewChannelBus(1)
	b.Emit(Event{Type: TypeDraftCreated, TaskID: "t1"})
	b.Emit(Event{Type: TypeDraftValid, TaskID: "t1"}) // buffer full, must not block

	got := <-b.Events()
	require.Equal(t, TypeDraftCreated, got.Type, "the dropped event must be the second one, not the first")

	select {
	case <-b.Events():
		t.Fatal("no second event should have been buffered")
	default:
	}
}

func TestChannelBusDefaultsBufferSize(t *testing.T) {
	t.Parallel()

	b := NewChannelBus(0)
	require.Equal(t, 256, cap(b.ch))
}

func TestBusFuncAdaptsPlainFunction(t *testing.T) {
	t.Parallel()

	var got Event
	bus := BusFunc(func(e Event) { got = e })
	bus.Emit(Event{Type: TypeCancelled, TaskID: "t2"})

	require.Equal(t, TypeCancelled, got.Type)
	require.Equal(t, "t2", got.TaskID)
}

func TestDiscardBusNeverPanics(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() { Discard.Emit(Event{Type: TypeError}) })
}

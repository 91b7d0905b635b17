package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PriorityOrder(t *testing.T) {
	q := newPriorityQueue()

	require.NoError(t, q.Enqueue(Event{ID: "bg", Priority: PriorityBackground}))
	require.NoError(t, q.Enqueue(Event{ID: "crit", Priority: PriorityCritical}))
	require.NoError(t, q.Enqueue(Event{ID: "norm", Priority: PriorityNormal}))

	var got []string
	for {
		e, ok := q.TryDequeue()
		if !ok {
			break
		}
		got = append(got, e.ID)
	}
	assert.Equal(t, []string{"crit", "norm", "bg"}, got)
}

func TestQueue_FIFOWithinTier(t *testing.T) {
	q := newPriorityQueue()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Event{ID: id, Priority: PriorityNormal}))
	}

	var got []string
	for {
		e, ok := q.TryDequeue()
		if !ok {
			break
		}
		got = append(got, e.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestQueue_CloseRejectsEnqueue(t *testing.T) {
	q := newPriorityQueue()
	require.NoError(t, q.Enqueue(Event{ID: "a", Priority: PriorityNormal}))

	q.Close()
	assert.ErrorIs(t, q.Enqueue(Event{ID: "b", Priority: PriorityNormal}), ErrQueueClosed)

	// Queued events survive close.
	assert.False(t, q.Drained())
	e, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "a", e.ID)
	assert.True(t, q.Drained())
}

func TestQueue_WakeOnEnqueue(t *testing.T) {
	q := newPriorityQueue()
	require.NoError(t, q.Enqueue(Event{ID: "a", Priority: PriorityNormal}))

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending wakeup after enqueue")
	}
}

func TestQueue_Lens(t *testing.T) {
	q := newPriorityQueue()
	require.NoError(t, q.Enqueue(Event{ID: "a", Priority: PriorityCritical}))
	require.NoError(t, q.Enqueue(Event{ID: "b", Priority: PriorityCritical}))
	require.NoError(t, q.Enqueue(Event{ID: "c", Priority: PriorityLow}))

	assert.Equal(t, 3, q.Len())
	lens := q.Lens()
	assert.Equal(t, 2, lens[PriorityCritical])
	assert.Equal(t, 1, lens[PriorityLow])
}

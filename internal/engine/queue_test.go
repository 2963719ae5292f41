package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue(8)

	for i := int64(1); i <= 3; i++ {
		require.True(t, q.TryEnqueue(Event{Seq: i}))
	}

	for i := int64(1); i <= 3; i++ {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, i, e.Seq)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "queue should be empty")
}

func TestEventQueue_DropsWhenFull(t *testing.T) {
	q := newEventQueue(2)

	assert.True(t, q.TryEnqueue(Event{Seq: 1}))
	assert.True(t, q.TryEnqueue(Event{Seq: 2}))
	assert.False(t, q.TryEnqueue(Event{Seq: 3}), "enqueue into a full queue should drop")
	assert.Equal(t, 2, q.Len())

	// Draining one slot makes room again.
	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.TryEnqueue(Event{Seq: 4}))
}

func TestEventQueue_WaitSignals(t *testing.T) {
	q := newEventQueue(8)

	select {
	case <-q.Wait():
		t.Fatal("wait should not fire on an empty queue")
	case <-time.After(10 * time.Millisecond):
	}

	q.TryEnqueue(Event{Seq: 1})

	select {
	case <-q.Wait():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("wait did not fire after enqueue")
	}
}

func TestEventQueue_EnqueueAfterClose(t *testing.T) {
	q := newEventQueue(8)
	q.Close()

	assert.False(t, q.TryEnqueue(Event{Seq: 1}), "enqueue after close should fail")
}

func TestEventQueue_CloseIdempotent(t *testing.T) {
	q := newEventQueue(8)
	q.Close()
	q.Close()

	// The signal channel is closed, so waiters wake immediately.
	select {
	case <-q.Wait():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("wait did not fire after close")
	}
}

func TestEventQueue_OutstandingEventsSurviveClose(t *testing.T) {
	q := newEventQueue(8)
	q.TryEnqueue(Event{Seq: 1})
	q.Close()

	// Closing stops intake but leaves pending events readable; the
	// worker decides whether to discard them.
	e, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, int64(1), e.Seq)
}

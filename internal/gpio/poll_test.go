package gpio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmlab/strobetx/internal/engine"
)

// scriptReader plays back a fixed sequence of level samples, then
// holds Low. It counts Rearm and Close calls so tests can verify
// delegation.
type scriptReader struct {
	mu      sync.Mutex
	samples []sample
	idx     int

	rearms int
	closes int
}

type sample struct {
	lvl Level
	err error
}

func (r *scriptReader) Level() (Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idx >= len(r.samples) {
		return Low, nil
	}
	s := r.samples[r.idx]
	r.idx++
	return s.lvl, s.err
}

func (r *scriptReader) Rearm() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rearms++
	return nil
}

func (r *scriptReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
	return nil
}

func (r *scriptReader) rearmCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rearms
}

func (r *scriptReader) closeCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closes
}

// eventCounter is a thread-safe handler target.
type eventCounter struct {
	mu sync.Mutex
	n  int
}

func (c *eventCounter) handle(engine.Event) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *eventCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestPoller_RisingEdgesOnly(t *testing.T) {
	reader := &scriptReader{samples: []sample{
		{lvl: Low}, {lvl: High}, {lvl: High}, {lvl: Low}, {lvl: High},
	}}
	p := NewPoller(reader, 100*time.Microsecond, 0)
	defer p.Close()

	var events eventCounter
	require.NoError(t, p.Arm(events.handle))

	// Two low-to-high transitions in the script; the sustained high
	// and the falling edge produce nothing.
	require.Eventually(t, func() bool {
		return events.count() == 2
	}, time.Second, time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, events.count())
}

func TestPoller_DebounceSuppressesRetrigger(t *testing.T) {
	reader := &scriptReader{samples: []sample{
		{lvl: Low}, {lvl: High}, {lvl: Low}, {lvl: High}, {lvl: Low}, {lvl: High},
	}}
	p := NewPoller(reader, 100*time.Microsecond, time.Hour)
	defer p.Close()

	var events eventCounter
	require.NoError(t, p.Arm(events.handle))

	require.Eventually(t, func() bool {
		return events.count() == 1
	}, time.Second, time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, events.count(), "edges inside the debounce window must be suppressed")
}

func TestPoller_ForwardsReadFaults(t *testing.T) {
	readErr := engine.NewNotConfiguredError("gpiochip0:23")
	reader := &scriptReader{samples: []sample{
		{lvl: Low}, {err: readErr}, {lvl: Low}, {lvl: High},
	}}
	p := NewPoller(reader, 100*time.Microsecond, 0)
	defer p.Close()

	var events eventCounter
	require.NoError(t, p.Arm(events.handle))

	select {
	case err := <-p.Faults():
		assert.True(t, engine.IsTransient(err))
	case <-time.After(time.Second):
		t.Fatal("fault was not forwarded")
	}

	// Sampling continues past the fault.
	require.Eventually(t, func() bool {
		return events.count() == 1
	}, time.Second, time.Millisecond)
}

func TestPoller_RearmDelegatesToReader(t *testing.T) {
	reader := &scriptReader{}
	p := NewPoller(reader, 100*time.Microsecond, 0)
	defer p.Close()

	require.NoError(t, p.Arm(func(engine.Event) {}))
	assert.Equal(t, 1, reader.rearmCalls(), "arm establishes the reader's line request")

	require.NoError(t, p.Rearm())
	assert.Equal(t, 2, reader.rearmCalls())
}

func TestPoller_ArmGuards(t *testing.T) {
	reader := &scriptReader{}
	p := NewPoller(reader, 100*time.Microsecond, 0)

	require.NoError(t, p.Arm(func(engine.Event) {}))
	assert.Error(t, p.Arm(func(engine.Event) {}), "double arm must fail")

	require.NoError(t, p.Close())
	assert.Error(t, p.Arm(func(engine.Event) {}), "arm after close must fail")
}

func TestPoller_CloseIdempotent(t *testing.T) {
	reader := &scriptReader{}
	p := NewPoller(reader, 100*time.Microsecond, 0)
	require.NoError(t, p.Arm(func(engine.Event) {}))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, reader.closeCalls(), "reader released exactly once")
}

func TestPoller_CloseWithoutArm(t *testing.T) {
	reader := &scriptReader{}
	p := NewPoller(reader, 0, 0)
	require.NoError(t, p.Close())
	assert.Equal(t, 1, reader.closeCalls())
}

func TestPoller_FaultChannelNeverBlocksSampling(t *testing.T) {
	readErr := errors.New("read failed")
	samples := make([]sample, 0, 16)
	for i := 0; i < 12; i++ {
		samples = append(samples, sample{err: readErr})
	}
	samples = append(samples, sample{lvl: Low}, sample{lvl: High})

	reader := &scriptReader{samples: samples}
	p := NewPoller(reader, 100*time.Microsecond, 0)
	defer p.Close()

	var events eventCounter
	require.NoError(t, p.Arm(events.handle))

	// Nobody drains the fault channel; the loop must still reach the
	// rising edge at the end of the script.
	require.Eventually(t, func() bool {
		return events.count() == 1
	}, time.Second, time.Millisecond)
}

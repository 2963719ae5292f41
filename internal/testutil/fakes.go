// Package testutil provides fake engine collaborators for tests: a
// scriptable edge source and an in-memory transmit sink.
package testutil

import (
	"sync"

	"github.com/tmlab/strobetx/internal/engine"
)

// FakeSource is a scriptable edge source. Tests pulse edges and
// inject faults; the engine sees the same contract the GPIO line
// provides.
type FakeSource struct {
	mu         sync.Mutex
	handler    func(engine.Event)
	armErr     error
	armCalls   int
	rearmCalls int
	closeCalls int

	faults chan error
}

// NewFakeSource creates an idle fake source.
func NewFakeSource() *FakeSource {
	return &FakeSource{faults: make(chan error, 8)}
}

// FailArm makes every subsequent Arm return err.
func (s *FakeSource) FailArm(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armErr = err
}

func (s *FakeSource) Arm(handler func(engine.Event)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armCalls++
	if s.armErr != nil {
		return s.armErr
	}
	s.handler = handler
	return nil
}

func (s *FakeSource) Rearm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rearmCalls++
	return nil
}

func (s *FakeSource) Faults() <-chan error {
	return s.faults
}

func (s *FakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}

// Pulse invokes the registered handler n times, simulating rising
// edges delivered from the capture context.
func (s *FakeSource) Pulse(n int) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	for i := 0; i < n; i++ {
		h(engine.Event{})
	}
}

// Fault delivers an asynchronous source fault to the worker.
func (s *FakeSource) Fault(err error) {
	s.faults <- err
}

func (s *FakeSource) ArmCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armCalls
}

func (s *FakeSource) RearmCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rearmCalls
}

func (s *FakeSource) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// FakeSink records everything written to it. Writes can be scripted
// to come up short or fail at a given 1-based index.
type FakeSink struct {
	mu         sync.Mutex
	writes     [][]byte
	flushes    int
	closeCalls int

	ShortAt int   // 1-based write index that reports one byte short; 0 disables
	ErrAt   int   // 1-based write index that fails; 0 disables
	Err     error // error returned at ErrAt

	// Gate, when set, blocks every Write until it yields a value or is
	// closed. Lets tests hold the worker mid-transmit.
	Gate chan struct{}
}

// NewFakeSink creates an empty sink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

func (s *FakeSink) Write(p []byte) (int, error) {
	if s.Gate != nil {
		<-s.Gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(p))
	copy(buf, p)
	s.writes = append(s.writes, buf)

	n := len(s.writes)
	if s.ErrAt != 0 && n == s.ErrAt {
		return 0, s.Err
	}
	if s.ShortAt != 0 && n == s.ShortAt {
		return len(p) - 1, nil
	}
	return len(p), nil
}

// Flush records a call. It is not part of engine.Sink; it exists so
// tests can assert the transmit path never touches port buffers
// beyond the write itself.
func (s *FakeSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func (s *FakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}

// Writes returns a copy of everything written so far.
func (s *FakeSink) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.writes))
	copy(out, s.writes)
	return out
}

func (s *FakeSink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

func (s *FakeSink) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// CollectRecorder gathers transmission records in memory.
type CollectRecorder struct {
	mu  sync.Mutex
	txs []engine.Transmission
	Err error // returned from Record when set
}

func (r *CollectRecorder) Record(tx engine.Transmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.txs = append(r.txs, tx)
	return nil
}

// Records returns a copy of the collected transmissions.
func (r *CollectRecorder) Records() []engine.Transmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.Transmission, len(r.txs))
	copy(out, r.txs)
	return out
}

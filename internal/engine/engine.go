package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config fixes the per-run engine parameters. All fields are resolved
// once before construction; the engine never re-reads configuration.
type Config struct {
	Mode          Mode
	CounterMax    uint32        // MaxByte or MaxWord; 0 means MaxByte
	Order         ByteOrder     // wire byte order
	QueueCapacity int           // 0 means DefaultQueueCapacity
	PollInterval  time.Duration // 0 means DefaultPollInterval
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithOutput directs the per-transmission report lines to w.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.worker.out = w }
}

// WithRecorder attaches a transmission trace recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.worker.rec = r }
}

// Engine supervises the edge source and the transmission worker. It
// owns startup order, cancellation, and exactly-once release of the
// source, queue and sink regardless of exit path.
type Engine struct {
	source Source
	sink   Sink
	queue  *eventQueue
	clock  *Clock
	worker *worker

	dropped atomic.Uint64

	stopCh     chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	intakeOnce sync.Once
	sinkOnce   sync.Once
}

// New wires an engine from an edge source, a transmit sink and a
// resolved configuration. Nothing starts until Run.
func New(source Source, sink Sink, cfg Config, opts ...Option) *Engine {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	q := newEventQueue(cfg.QueueCapacity)
	e := &Engine{
		source: source,
		sink:   sink,
		queue:  q,
		clock:  NewClock(),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		worker: &worker{
			queue:  q,
			source: source,
			sink:   sink,
			cursor: NewCursor(cfg.Mode, cfg.CounterMax),
			order:  cfg.Order,
			poll:   poll,
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run arms the edge source and drives the worker loop until ctx is
// cancelled or Stop is called. Blocks for the life of the engine.
//
// All resources are released exactly once on return, including when
// arming fails partway. The only error returned is a fatal source
// setup failure; cancellation is a normal exit with a nil error.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.release()

	e.worker.setState(StateInitializing)

	if err := e.source.Arm(e.capture); err != nil {
		e.worker.setState(StateStopped)
		return fmt.Errorf("arm edge source: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-e.stopCh:
			cancel()
		case <-ctx.Done():
		}
		// Intake stops as soon as shutdown begins, before the worker
		// has drained: new edges are refused and the line released
		// while outstanding queue events are discarded.
		e.stopIntake()
	}()

	slog.Info("engine running",
		"mode", e.worker.cursor.Mode().String(),
		"order", e.worker.order.String(),
	)

	e.worker.run(ctx)

	slog.Info("engine stopped",
		"total", e.worker.total.Load(),
		"captured", e.clock.Current(),
		"dropped", e.dropped.Load(),
	)
	return nil
}

// Stop requests shutdown. Idempotent and safe to call concurrently
// with normal operation, from a termination handler, or before Run.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

// Done is closed once Run has returned and resources are released.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// capture is the edge source callback. It only stamps a sequence
// number and hands the event to the queue; a full queue drops the
// edge silently so the capture context never blocks.
func (e *Engine) capture(ev Event) {
	ev.Seq = e.clock.Next()
	if !e.queue.TryEnqueue(ev) {
		e.dropped.Add(1)
	}
}

// stopIntake closes the queue to new events and deregisters the edge
// source. Runs at most once; safe from the shutdown goroutine and the
// Run defer concurrently.
func (e *Engine) stopIntake() {
	e.intakeOnce.Do(func() {
		e.queue.Close()
		if err := e.source.Close(); err != nil {
			slog.Error("edge source close failed", "error", err)
		}
	})
}

// release completes teardown after the worker has returned: stop
// intake (a no-op when the shutdown goroutine already did), then
// close the sink. Each resource is released exactly once, even across
// repeated Stop calls or a failed startup.
func (e *Engine) release() {
	e.stopIntake()
	e.sinkOnce.Do(func() {
		if err := e.sink.Close(); err != nil {
			slog.Error("uart close failed", "error", err)
		}
	})
}

// Stats is a point-in-time snapshot of the engine's counters.
type Stats struct {
	State    State
	Total    uint64 // events consumed and transmitted
	Captured int64  // edges observed by the callback
	Dropped  uint64 // edges lost to a full queue
	Pending  int    // events waiting in the queue
}

// Stats may be called from any goroutine.
func (e *Engine) Stats() Stats {
	return Stats{
		State:    State(e.worker.state.Load()),
		Total:    e.worker.total.Load(),
		Captured: e.clock.Current(),
		Dropped:  e.dropped.Load(),
		Pending:  e.queue.Len(),
	}
}

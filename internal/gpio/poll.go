package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/tmlab/strobetx/internal/engine"
)

// DefaultSampleInterval is the poller's level sampling period.
const DefaultSampleInterval = time.Millisecond

// LevelReader reads the instantaneous level of a line.
type LevelReader interface {
	Level() (Level, error)
}

// rearmer is implemented by readers whose line request can be rebuilt
// in place (e.g. *Line).
type rearmer interface {
	Rearm() error
}

// closer is implemented by readers owning a releasable line request.
type closer interface {
	Close() error
}

// Poller derives rising-edge events by sampling a level reader at a
// fixed interval. It is the fallback strategy for lines without edge
// event support and implements the same Source contract as Line, so
// the worker never knows which is active.
//
// A low-to-high transition produces one event; the optional debounce
// window suppresses re-triggers inside the quiet interval.
type Poller struct {
	reader   LevelReader
	interval time.Duration
	debounce time.Duration
	faults   chan error

	mu      sync.Mutex
	handler func(engine.Event)
	stop    chan struct{}
	done    chan struct{}
	started bool
	closed  bool
}

// NewPoller samples reader every interval. A zero interval uses
// DefaultSampleInterval.
func NewPoller(reader LevelReader, interval, debounce time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Poller{
		reader:   reader,
		interval: interval,
		debounce: debounce,
		faults:   make(chan error, 4),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Arm establishes the underlying line request (when the reader owns
// one) and starts the sampling loop.
func (p *Poller) Arm(handler func(engine.Event)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("poller is closed")
	}
	if p.started {
		p.mu.Unlock()
		return fmt.Errorf("poller already armed")
	}
	p.handler = handler
	p.started = true
	p.mu.Unlock()

	if r, ok := p.reader.(rearmer); ok {
		if err := r.Rearm(); err != nil {
			return err
		}
	}

	go p.sample()
	return nil
}

// Rearm rebuilds the underlying line request after a transient fault.
// The sampling loop keeps running throughout.
func (p *Poller) Rearm() error {
	if r, ok := p.reader.(rearmer); ok {
		return r.Rearm()
	}
	return nil
}

// Faults delivers level-read faults to the worker. Sends are
// non-blocking; a slow consumer sees a coalesced view.
func (p *Poller) Faults() <-chan error {
	return p.faults
}

// Close stops the sampling loop and releases the underlying line.
// Idempotent.
func (p *Poller) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	close(p.stop)
	if started {
		<-p.done
	}

	if c, ok := p.reader.(closer); ok {
		return c.Close()
	}
	return nil
}

// sample is the polling loop: read the level, report faults, emit one
// event per low-to-high transition outside the debounce window.
func (p *Poller) sample() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	prev := Low
	var lastEdge time.Time

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
		}

		lvl, err := p.reader.Level()
		if err != nil {
			select {
			case p.faults <- err:
			default:
			}
			continue
		}

		if prev == Low && lvl == High {
			now := time.Now()
			if p.debounce <= 0 || lastEdge.IsZero() || now.Sub(lastEdge) >= p.debounce {
				lastEdge = now
				p.mu.Lock()
				h := p.handler
				p.mu.Unlock()
				if h != nil {
					h(engine.Event{Time: now})
				}
			}
		}
		prev = lvl
	}
}

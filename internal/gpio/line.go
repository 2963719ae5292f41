package gpio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/tmlab/strobetx/internal/engine"
)

// Level is the instantaneous state of a digital line.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Setup retry policy. Each attempt rebuilds the line request from
// scratch; only after the budget is spent does setup become fatal.
const (
	DefaultRetries    = 20
	DefaultRetryDelay = 50 * time.Millisecond
)

// Config describes the strobe line.
type Config struct {
	Chip       string        // GPIO chip, e.g. "gpiochip0"
	Offset     int           // line offset on the chip
	Debounce   time.Duration // 0 disables debouncing
	Retries    int           // setup attempts, 0 means DefaultRetries
	RetryDelay time.Duration // delay between attempts, 0 means DefaultRetryDelay
}

func (c Config) name() string {
	return fmt.Sprintf("%s:%d", c.Chip, c.Offset)
}

func (c Config) withDefaults() Config {
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// Line is an edge source backed by the Linux GPIO character device.
//
// In event mode (NewLine) the kernel delivers rising edges to the
// registered handler. In input mode (NewInputLine) the line is
// requested for level reads only; pair with a Poller for edge
// detection, or use it directly for status monitoring.
type Line struct {
	cfg    Config
	events bool
	faults chan error

	mu      sync.Mutex
	req     *gpiocdev.Line
	handler func(engine.Event)
	closed  bool
}

// NewLine creates a rising-edge event source for the configured line.
func NewLine(cfg Config) *Line {
	return &Line{cfg: cfg.withDefaults(), events: true, faults: make(chan error, 4)}
}

// NewInputLine creates a level-read-only line (no edge events).
func NewInputLine(cfg Config) *Line {
	return &Line{cfg: cfg.withDefaults(), faults: make(chan error, 4)}
}

// Arm requests the line, retrying with backoff per the setup policy.
// In event mode the handler fires once per rising edge, from the
// gpiocdev event goroutine. In input mode the handler is ignored and
// Arm only establishes the line request.
func (l *Line) Arm(handler func(engine.Event)) error {
	l.mu.Lock()
	l.handler = handler
	l.mu.Unlock()
	return l.setup()
}

// Rearm re-runs the setup sequence in place, preserving the handler.
// Called by the worker after a transient fault.
func (l *Line) Rearm() error {
	return l.setup()
}

// setup retries the line request up to the configured budget,
// rebuilding the kernel handle on every attempt.
func (l *Line) setup() error {
	var last error
	for attempt := 1; attempt <= l.cfg.Retries; attempt++ {
		err := l.request()
		if err == nil {
			if attempt > 1 {
				slog.Debug("line request recovered", "line", l.cfg.name(), "attempt", attempt)
			}
			return nil
		}
		last = err
		slog.Debug("line request failed", "line", l.cfg.name(), "attempt", attempt, "error", err)
		time.Sleep(l.cfg.RetryDelay)
	}
	return engine.NewSetupError(l.cfg.name(), l.cfg.Retries, last)
}

// request performs a single line request attempt, closing any stale
// handle first.
func (l *Line) request() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("line %s is closed", l.cfg.name())
	}

	if l.req != nil {
		_ = l.req.Close()
		l.req = nil
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
	}
	if l.events {
		opts = append(opts,
			gpiocdev.WithRisingEdge,
			gpiocdev.WithEventHandler(l.onEvent),
		)
		if l.cfg.Debounce > 0 {
			opts = append(opts, gpiocdev.WithDebounce(l.cfg.Debounce))
		}
	}

	req, err := gpiocdev.RequestLine(l.cfg.Chip, l.cfg.Offset, opts...)
	if err != nil {
		return fmt.Errorf("request line %s: %w", l.cfg.name(), err)
	}

	l.req = req
	return nil
}

// onEvent adapts kernel edge events to engine events. Runs on the
// gpiocdev event goroutine; must not block.
func (l *Line) onEvent(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventRisingEdge {
		return
	}

	l.mu.Lock()
	h := l.handler
	l.mu.Unlock()

	if h != nil {
		h(engine.Event{Time: time.Now()})
	}
}

// Level synchronously reads the current line state. Reports the coded
// transient fault when the line request has gone away, so callers can
// recover via Rearm instead of treating it as fatal.
func (l *Line) Level() (Level, error) {
	l.mu.Lock()
	req := l.req
	l.mu.Unlock()

	if req == nil {
		return Low, engine.NewNotConfiguredError(l.cfg.name())
	}

	v, err := req.Value()
	if err != nil {
		return Low, fmt.Errorf("read line %s: %w", l.cfg.name(), err)
	}
	if v != 0 {
		return High, nil
	}
	return Low, nil
}

// Faults delivers asynchronous source faults. The event-mode line is
// quiet in steady state; the channel exists for the Source contract
// and for the Poller, which funnels level-read faults through it.
func (l *Line) Faults() <-chan error {
	return l.faults
}

// Close releases the line request. Idempotent.
func (l *Line) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.req != nil {
		err := l.req.Close()
		l.req = nil
		if err != nil {
			return fmt.Errorf("close line %s: %w", l.cfg.name(), err)
		}
	}
	return nil
}

package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// State is the transmission worker's lifecycle state.
type State int32

const (
	// StateInitializing covers construction through edge source arming.
	StateInitializing State = iota
	// StateRunning is the steady transmit loop.
	StateRunning
	// StateDraining is entered on cancellation; outstanding queued
	// events are discarded, never replayed.
	StateDraining
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// DefaultPollInterval bounds every worker wait so cancellation
// latency is bounded even when no events or signals arrive.
const DefaultPollInterval = 500 * time.Millisecond

// worker is the single consumer of the event queue. All cursor and
// total mutations happen on its goroutine.
type worker struct {
	queue  *eventQueue
	source Source
	sink   Sink
	cursor *Cursor
	order  ByteOrder
	out    io.Writer // per-transmission report lines; nil discards
	rec    Recorder  // optional transmission trace

	poll  time.Duration
	state atomic.Int32
	total atomic.Uint64 // read by Stats from other goroutines
}

func (w *worker) setState(s State) {
	w.state.Store(int32(s))
}

// run drains the queue until ctx is cancelled. Waits are bounded by
// the poll interval; an idle wakeup with no event is the cooperative
// cancellation check, not an error.
func (w *worker) run(ctx context.Context) {
	w.setState(StateRunning)
	defer w.setState(StateStopped)

	timer := time.NewTimer(w.poll)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			w.setState(StateDraining)
			return
		}

		if ev, ok := w.queue.TryDequeue(); ok {
			w.transmit(ev)
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.poll)

		select {
		case <-ctx.Done():
			w.setState(StateDraining)
			return

		case err := <-w.source.Faults():
			w.recover(err)

		case <-w.queue.Wait():
			// Signal received, or queue closed. Loop back to dequeue.

		case <-timer.C:
			// Idle timeout. Loop to re-check cancellation.
		}
	}
}

// transmit consumes one event: count it, derive the payload, put it
// on the wire, report it, and advance the cursor.
//
// Partial and failed writes are best-effort losses: logged, counted
// as sent, never retried. A torn retry would be worse than a dropped
// frame on a byte-oriented line.
func (w *worker) transmit(ev Event) {
	total := w.total.Add(1)
	counter := w.cursor.Counter()
	lane := w.cursor.Lane()
	payload := w.cursor.Payload()

	var wire [4]byte
	w.order.Put(wire[:], payload)

	// The write hands the frame to the driver and that is the end of
	// the engine's involvement; no flush follows, since the port's
	// only flush primitive discards untransmitted bytes.
	n, err := w.sink.Write(wire[:])
	switch {
	case err != nil:
		slog.Error("uart write failed",
			"seq", ev.Seq,
			"counter", counter,
			"error", err,
		)
	case n < len(wire):
		slog.Warn("short uart write",
			"seq", ev.Seq,
			"counter", counter,
			"wrote", n,
			"want", len(wire),
		)
	}

	if w.out != nil {
		fmt.Fprintf(w.out, "Sent (%s): %-3d | 4 Bytes: %s | Total: %d\n",
			w.cursor.Mode(), counter, spacedBinary(wire[:]), total)
	}

	if w.rec != nil {
		tx := Transmission{
			Seq:     ev.Seq,
			Total:   total,
			Mode:    w.cursor.Mode(),
			Counter: counter,
			Lane:    lane,
			Payload: payload,
			Wire:    wire,
			SentAt:  time.Now(),
		}
		if rerr := w.rec.Record(tx); rerr != nil {
			slog.Warn("trace record failed", "seq", ev.Seq, "error", rerr)
		}
	}

	w.cursor.Advance()
}

// recover handles an asynchronous edge source fault. Transient faults
// re-arm the source in place; the triggering event was never consumed,
// so no counter step is taken and nothing is double-counted.
func (w *worker) recover(err error) {
	if !IsTransient(err) {
		slog.Error("edge source fault", "error", err)
		return
	}

	slog.Warn("edge source lost its line, re-arming", "error", err)
	if rerr := w.source.Rearm(); rerr != nil {
		slog.Error("edge source re-arm failed", "error", rerr)
	}
}

// spacedBinary renders bytes in transmission order as 8-bit binary
// groups, e.g. "00000001 00000000 00000000 00000000".
func spacedBinary(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%08b", v)
	}
	return sb.String()
}

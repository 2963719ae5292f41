package engine

import "time"

// Event records a single observed rising edge on the strobe line.
//
// Events are immutable once produced. Ownership transfers from the
// edge callback to the queue to the worker; nothing mutates them in
// flight.
type Event struct {
	// Seq is the capture sequence number, stamped when the edge
	// callback fires. Gaps relative to the consumed total indicate
	// queue drops.
	Seq int64

	// Time is the capture timestamp. Taken from the monotonic clock,
	// so differences between events are meaningful even across wall
	// clock adjustments.
	Time time.Time
}

// Source delivers rising-edge events and owns recovery of the
// underlying line. Implementations live in internal/gpio; the worker
// is agnostic to whether events come from interrupts or polling.
type Source interface {
	// Arm registers the handler to be invoked once per rising edge.
	// The handler may be called from a foreign goroutine and must not
	// block.
	Arm(handler func(Event)) error

	// Rearm re-runs the setup sequence in place after a transient
	// fault. The registered handler is preserved.
	Rearm() error

	// Faults delivers asynchronous source faults to the worker.
	// Transient faults (see IsTransient) are recovered by Rearm;
	// anything else is logged and the engine keeps running.
	Faults() <-chan error

	// Close releases the line. Must be idempotent.
	Close() error
}

// Sink transmits payload bytes over the wire. The engine always
// writes exactly four bytes per strobe. The write is the hand-off:
// the driver owns transmission from there, and the engine never
// touches the port buffers afterwards.
type Sink interface {
	Write(p []byte) (n int, err error)
	Close() error
}

// Recorder receives a record of every transmitted payload. Optional;
// used by the trace store.
type Recorder interface {
	Record(tx Transmission) error
}

// Transmission describes one payload as it went onto the wire.
type Transmission struct {
	Seq     int64     // capture sequence of the triggering event
	Total   uint64    // running consumed-event count, this event included
	Mode    Mode      // encoding mode for the run
	Counter uint32    // counter value encoded into the payload
	Lane    int       // active byte lane (scan mode; 0 otherwise)
	Payload uint32    // derived 32-bit value
	Wire    [4]byte   // bytes in transmission order
	SentAt  time.Time // time of the write
}

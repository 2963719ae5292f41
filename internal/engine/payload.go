package engine

import (
	"encoding/binary"
	"fmt"
)

// Mode selects how the counter is encoded into the 32-bit payload.
// Chosen once at startup and immutable for the life of the run.
type Mode int

const (
	// ModeByte0 cycles the counter on the low byte only.
	ModeByte0 Mode = iota + 1
	// ModeScan cycles the counter on one byte lane at a time, moving
	// to the next lane after each full counter cycle.
	ModeScan
	// ModeAll replicates the counter into all four byte lanes.
	ModeAll
)

func (m Mode) String() string {
	switch m {
	case ModeByte0:
		return "byte0"
	case ModeScan:
		return "scan"
	case ModeAll:
		return "all"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "byte0":
		return ModeByte0, nil
	case "scan":
		return ModeScan, nil
	case "all":
		return ModeAll, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want byte0, scan or all)", s)
}

// Counter wrap limits. The counter cycles [1, max] and wraps back to
// 1, never 0.
const (
	MaxByte uint32 = 0xFF
	MaxWord uint32 = 0xFFFFFFFF
)

// Derive computes the 32-bit payload for a counter value.
// Pure and total: no side effects, no failure modes.
//
//	byte0: counter in the low 8 bits, upper 24 zero
//	scan:  counter shifted into lane (one byte lane active, rest zero)
//	all:   counter replicated into all four lanes
func Derive(counter uint32, lane int, mode Mode) uint32 {
	switch mode {
	case ModeByte0:
		return counter
	case ModeScan:
		return counter << (uint(lane&3) * 8)
	case ModeAll:
		return counter | counter<<8 | counter<<16 | counter<<24
	}
	return 0
}

// Cursor owns the counter and lane state advanced once per consumed
// event. Mutated only by the worker goroutine.
type Cursor struct {
	mode    Mode
	max     uint32
	counter uint32
	lane    int
}

// NewCursor starts a cursor at counter 1, lane 0.
func NewCursor(mode Mode, max uint32) *Cursor {
	if max == 0 {
		max = MaxByte
	}
	return &Cursor{mode: mode, max: max, counter: 1}
}

// Counter returns the value that the next payload will encode.
func (c *Cursor) Counter() uint32 { return c.counter }

// Lane returns the active byte lane. Meaningful in scan mode only.
func (c *Cursor) Lane() int { return c.lane }

// Mode returns the encoding mode fixed at construction.
func (c *Cursor) Mode() Mode { return c.mode }

// Payload derives the 32-bit value for the current counter state.
func (c *Cursor) Payload() uint32 {
	return Derive(c.counter, c.lane, c.mode)
}

// Advance steps the counter after a transmission. On reaching max the
// counter wraps to 1, and in scan mode the lane moves on by one,
// modulo 4, exactly once per full counter cycle.
func (c *Cursor) Advance() {
	if c.counter >= c.max {
		c.counter = 1
		if c.mode == ModeScan {
			c.lane = (c.lane + 1) % 4
		}
		return
	}
	c.counter++
}

// ByteOrder fixes the sequence in which the four payload bytes go
// onto the wire, held constant for the life of one run.
type ByteOrder int

const (
	// LSBFirst transmits the least significant byte first.
	LSBFirst ByteOrder = iota
	// MSBFirst transmits the most significant byte first.
	MSBFirst
)

func (o ByteOrder) String() string {
	if o == MSBFirst {
		return "msb"
	}
	return "lsb"
}

// ParseByteOrder converts a configuration string into a ByteOrder.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "lsb", "":
		return LSBFirst, nil
	case "msb":
		return MSBFirst, nil
	}
	return 0, fmt.Errorf("unknown byte order %q (want lsb or msb)", s)
}

// Put encodes v into buf in wire order. buf must be 4 bytes.
func (o ByteOrder) Put(buf []byte, v uint32) {
	if o == MSBFirst {
		binary.BigEndian.PutUint32(buf, v)
		return
	}
	binary.LittleEndian.PutUint32(buf, v)
}

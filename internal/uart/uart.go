// Package uart wraps the rig's byte-oriented serial transport. The
// engine only ever writes exactly four bytes per strobe; the read
// side serves the traffic decoder.
package uart

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// Config for opening the serial port.
type Config struct {
	Port        string        // device path, e.g. "/dev/serial0"
	Baud        int           // line rate, e.g. 921600
	ReadTimeout time.Duration // bounds blocking reads; 0 blocks indefinitely
}

// Port is an open serial port. Implements engine.Sink.
type Port struct {
	name string
	p    *serial.Port
}

// Open opens the serial port. 8N1 framing, which is all the rig uses.
func Open(cfg Config) (*Port, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	return &Port{name: cfg.Port, p: p}, nil
}

// Name returns the device path the port was opened with.
func (p *Port) Name() string { return p.name }

// Write transmits b, reporting the bytes actually written. The write
// hands the bytes to the driver, which transmits them; there is no
// separate drain step. Short writes are the caller's policy; the
// engine logs and proceeds.
func (p *Port) Write(b []byte) (int, error) {
	return p.p.Write(b)
}

// Read fills b with up to len(b) bytes, returning after the
// configured read timeout if nothing arrives.
func (p *Port) Read(b []byte) (int, error) {
	return p.p.Read(b)
}

// Discard drops driver-buffered bytes not yet read or transmitted.
// Used to clear stale input before a read loop starts; must never be
// called on the transmit path, where it would destroy an in-flight
// frame.
func (p *Port) Discard() error {
	return p.p.Flush()
}

// Close releases the port.
func (p *Port) Close() error {
	return p.p.Close()
}

// Package engine implements the strobe-triggered payload transmission
// engine: a rising edge on the strobe line is captured into a bounded
// event queue, and a single worker drains the queue, derives a 32-bit
// payload from its counter state, and transmits it over the UART sink.
//
// Concurrency model: exactly two activities touch the queue - the edge
// source's callback (producer) and the worker loop (consumer). All
// counter state (counter, lane, total) is owned exclusively by the
// worker; the callback only ever produces immutable event records.
package engine

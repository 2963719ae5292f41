// Package gpio provides the strobe line edge sources: an interrupt
// driven implementation on the Linux GPIO character device, and a
// level-sampling poller for lines without edge event support. Both
// satisfy engine.Source, so the transmission worker is agnostic to
// which strategy is active.
package gpio

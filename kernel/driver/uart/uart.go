// Package uart implements the UART half of spec §4.5: byte-oriented console
// I/O with a small receive ring buffer filled by the RX IRQ, falling back to
// polled mode before interrupts are enabled.
package uart

import "minios/kernel/sync"

// rxRingSize bounds the receive ring buffer. Sized for a human typing
// ahead of a busy shell loop, not for bulk transfer — this is a
// teaching-kernel console, not a high-throughput serial link.
const rxRingSize = 256

// UART is the contract a bound UART driver exposes once Initialized.
type UART interface {
	// Putc transmits one byte, blocking (polling the transmit-ready bit)
	// until the hardware FIFO accepts it.
	Putc(b byte)
}

var (
	lock   sync.Spinlock
	active UART

	rxBuf          [rxRingSize]byte
	rxHead, rxTail int
	rxFull         bool
)

// SetActive records the UART driver that owns the console. Called by each
// driver's DriverInit on success.
func SetActive(u UART) { active = u }

// Active returns the currently bound UART driver, or nil before any UART
// has initialized.
func Active() UART { return active }

// Putc writes one byte to the active UART. A nil active UART silently
// drops output, which only happens before any console driver has bound —
// kfmt's ring buffer is the sink of record until then.
func Putc(b byte) {
	if active != nil {
		active.Putc(b)
	}
}

// PushRx is called by a driver's RX IRQ handler to enqueue a byte the
// hardware has received. A full ring drops the oldest byte, matching a
// real 16550's overrun behavior rather than blocking the IRQ handler
// (spec §4.4: "handlers must be short").
func PushRx(b byte) {
	lock.Acquire()
	defer lock.Release()

	rxBuf[rxHead] = b
	if rxFull {
		rxTail = (rxTail + 1) % rxRingSize
	}
	rxHead = (rxHead + 1) % rxRingSize
	rxFull = rxHead == rxTail
}

// Getc returns the next buffered input byte, or ok=false if none is
// available. Non-blocking, per spec §4.5.
func Getc() (b byte, ok bool) {
	lock.Acquire()
	defer lock.Release()

	if rxHead == rxTail && !rxFull {
		return 0, false
	}
	b = rxBuf[rxTail]
	rxTail = (rxTail + 1) % rxRingSize
	rxFull = false
	return b, true
}

// Write implements io.Writer so kfmt.SetOutputSink(uart.Writer) can redirect
// kernel logging to the console once a UART has bound.
type Writer struct{}

func (Writer) Write(p []byte) (int, error) {
	for _, b := range p {
		Putc(b)
	}
	return len(p), nil
}

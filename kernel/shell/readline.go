package shell

import (
	"minios/kernel/driver/uart"
	"minios/kernel/task"
)

// yieldFn is indirected so tests can drive readLine without a real
// scheduler; kernel/kmain leaves it at its default (task.Yield), matching
// kernel/task.Scheduler's own cpuHalt indirection for the same reason.
var yieldFn = task.Yield

// lineCapacity bounds a single input line; generous for shell commands and
// their arguments without letting a runaway paste grow the command buffer
// unboundedly.
const lineCapacity = 1024

const (
	charBackspace = 0x08
	charDEL       = 0x7f
	charCR        = '\r'
	charLF        = '\n'
)

// readLine implements spec §4.12's line editor: it blocks (by yielding the
// CPU, the only suspension primitive a shell task needs per spec §5) until
// a full line is available, echoing each byte back and erasing on
// backspace/DEL, normalizing a trailing CR or LF into the single newline
// the caller sees printed on the console.
func readLine() string {
	buf := make([]byte, 0, 64)
	for {
		b, ok := uart.Getc()
		if !ok {
			yieldFn()
			continue
		}

		switch b {
		case charCR, charLF:
			uart.Putc(charCR)
			uart.Putc(charLF)
			return string(buf)
		case charBackspace, charDEL:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				uart.Putc(charBackspace)
				uart.Putc(' ')
				uart.Putc(charBackspace)
			}
		default:
			if len(buf) < lineCapacity {
				buf = append(buf, b)
				uart.Putc(b)
			}
		}
	}
}

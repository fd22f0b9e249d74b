// Package ulog is the driver's diagnostic sink.
//
// It exists because the call sites that matter most here — the virtqueue
// transact loop, the blit inner loops — run on paths that must stay
// //go:nosplit-safe: no allocation, no fmt. A *Logger writes pre-built
// byte strings straight to an io.Writer, the same shape as uartPuts in
// src/go/mazarin/kernel.go, so the driver never reaches for fmt.Sprintf
// on a hot path. Off-device this io.Writer is os.Stderr; on a real target
// it is a UART port.
package ulog

import (
	"io"
	"strconv"
)

// Logger writes short diagnostic lines. A nil *Logger is valid and discards.
type Logger struct {
	w io.Writer
}

// New wraps w. If w is nil, the returned Logger discards everything.
func New(w io.Writer) *Logger {
	return &Logger{w: w}
}

func (l *Logger) Puts(s string) {
	if l == nil || l.w == nil {
		return
	}
	io.WriteString(l.w, s)
}

func (l *Logger) PutHex32(v uint32) {
	if l == nil || l.w == nil {
		return
	}
	io.WriteString(l.w, "0x")
	io.WriteString(l.w, strconv.FormatUint(uint64(v), 16))
}

// Line writes s followed by a field formatted as "name=0xHEX\r\n".
func (l *Logger) Line(s, name string, v uint32) {
	if l == nil || l.w == nil {
		return
	}
	l.Puts(s)
	l.Puts(" ")
	l.Puts(name)
	l.Puts("=")
	l.PutHex32(v)
	l.Puts("\r\n")
}

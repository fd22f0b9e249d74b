// Package mmio models the memory-mapped register window a virtio-gpu
// device's common-config BAR exposes: 16/32-bit loads and stores, plus the
// explicit memory barriers the ring-transport algorithm requires around
// avail_idx publication and used_idx polling.
//
// src/go/mazarin/virtio_gpu.go and mazboot/golang/main/virtio_gpu.go reach
// these through //go:linkname'd assembly (asm.MmioRead16, asm.Dsb, ...)
// because they run with no MMU abstraction above them. This package keeps
// the same call shape — Read16/Write16/Read32/Write32 — but implements it
// in portable Go over sync/atomic so the driver core builds and tests with
// `go test` instead of requiring a cross compile and a linker script. A
// real port swaps this package's body for go:linkname'd asm calls
// one-for-one; callers never change.
package mmio

import (
	"sync/atomic"
	"unsafe"
)

// Window is a register window backed by driver-owned memory: in production
// this is a real PCI BAR mapping, in tests and in cmd/mazvgpu-selftest it is
// a plain byte slice standing in for one.
type Window struct {
	base unsafe.Pointer
	size uintptr
}

// NewWindow wraps buf as a register window. buf must outlive the Window.
func NewWindow(buf []byte) *Window {
	if len(buf) == 0 {
		return &Window{}
	}
	return &Window{base: unsafe.Pointer(&buf[0]), size: uintptr(len(buf))}
}

func (w *Window) addr16(off uintptr) *uint16 {
	return (*uint16)(unsafe.Add(w.base, off))
}

func (w *Window) addr32(off uintptr) *uint32 {
	return (*uint32)(unsafe.Add(w.base, off))
}

// Read16 loads a 16-bit register.
func (w *Window) Read16(off uintptr) uint16 {
	return atomic.LoadUint16(w.addr16(off))
}

// Write16 stores a 16-bit register.
func (w *Window) Write16(off uintptr, v uint16) {
	atomic.StoreUint16(w.addr16(off), v)
}

// Read32 loads a 32-bit register.
func (w *Window) Read32(off uintptr) uint32 {
	return atomic.LoadUint32(w.addr32(off))
}

// Write32 stores a 32-bit register.
func (w *Window) Write32(off uintptr, v uint32) {
	atomic.StoreUint32(w.addr32(off), v)
}

// Dsb is the store/store (and load/load) barrier needed around avail_idx
// publication and used_idx polling. atomic.Load/Store already give Go's
// sequentially-consistent ordering, so this is a documentation no-op in the
// portable build — kept as an explicit call site so a real port has one
// place to swap in a hardware dsb sy / dmb ishst instruction.
func Dsb() {}

// Bzero zeroes n bytes at ptr. Grounded on mazboot/golang/main/mmu.go:bzero /
// asm.Bzero, kept here as a named primitive rather than a loop scattered at
// each call site.
func Bzero(ptr unsafe.Pointer, n uintptr) {
	b := unsafe.Slice((*byte)(ptr), n)
	for i := range b {
		b[i] = 0
	}
}

// Package dma hands out physically-contiguous, DMA-addressable memory for
// virtqueue descriptor tables, rings, and command/response buffers.
//
// Grounded on other_examples/21b0f0c5_usbarmory-tamago__virtio-queue-descriptor.go.go
// (Descriptor.Init/Destroy calling dma.Reserve/dma.Release) and
// other_examples/a826fd8f_usbarmory-tamago__kvm-virtio-descriptor.go.go, the
// idiomatic Go way of doing this on a bare-metal/unikernel target, in place
// of a hand-rolled allocate/pin/free cycle against a bump-pointer heap.
package dma

import (
	"errors"
	"sync"

	tdma "github.com/usbarmory/tamago/dma"
)

// ErrExhausted is returned by TryAlloc when the DMA region has no space left
// for the requested size/alignment.
var ErrExhausted = errors.New("dma: region exhausted")

const (
	defaultRegionStart = 0x40000000
	defaultRegionSize  = 4 << 20 // 4MiB: comfortably covers any queue size this driver uses plus command buffers
)

var initOnce sync.Once

// Init prepares the region the allocator below carves buffers from. Only the
// first call takes effect (mirrors dma.Init's own one-shot contract);
// Alloc calls it automatically with the package defaults, so production
// code only needs this to pick a different physical window.
func Init(start uint, size int) {
	initOnce.Do(func() {
		tdma.Init(start, size)
	})
}

// Region is one physically-contiguous, DMA-addressable buffer: a descriptor
// table, an available/used ring, or a command/response buffer.
type Region struct {
	// Addr is the physical (bus-visible) address of Buf.
	Addr uint64
	Buf  []byte

	phys uint
}

// Alloc reserves n zeroed bytes aligned to align (0 requests the allocator's
// default alignment). It panics if the region is exhausted, matching
// tdma.Reserve's own contract; callers that can recover from an allocation
// failure (a mode switch's framebuffer backing, not a command buffer
// allocated once at startup) should use TryAlloc instead.
func Alloc(n int, align int) *Region {
	r, err := TryAlloc(n, align)
	if err != nil {
		panic(err)
	}
	return r
}

// TryAlloc is Alloc without the panic: tdma.Reserve panics when its backing
// region is exhausted, so this recovers that panic and reports it as an
// error instead, for call sites (a mode switch allocating a new
// framebuffer) that must unwind cleanly rather than crash the driver.
func TryAlloc(n int, align int) (r *Region, err error) {
	Init(defaultRegionStart, defaultRegionSize)
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, ErrExhausted
		}
	}()
	addr, buf := tdma.Reserve(n, align)
	for i := range buf {
		buf[i] = 0
	}
	return &Region{Addr: uint64(addr), Buf: buf, phys: addr}, nil
}

// Free releases r back to the allocator. Safe to call on a nil or
// already-freed Region.
func (r *Region) Free() {
	if r == nil || r.Buf == nil {
		return
	}
	tdma.Release(r.phys)
	r.Buf = nil
}

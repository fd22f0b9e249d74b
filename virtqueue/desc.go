// Package virtqueue implements the split virtqueue ring transport: a
// descriptor-chain arena plus the publish/notify/poll/free transact cycle.
// It has no notion of GPU commands — package gpu builds request/response
// byte buffers and hands them to a Queue as opaque segments.
//
// Grounded on src/go/mazarin/virtqueue.go (VirtQDesc, VirtQAvailable,
// VirtQUsed, virtqueueInit/AddDesc/AddToAvailable/GetUsed/FreeDescChain) and
// mazboot/golang/main/virtio_gpu.go's virtioGPUSendCommand, which is the same
// cycle inlined at one call site instead of factored into a reusable type.
package virtqueue

// Descriptor flags, wire-identical to the virtio spec and to
// src/go/mazarin/virtqueue.go's VIRTQ_DESC_F_* constants.
const (
	DescFNext     uint16 = 1 << 0 // buffer continues via Next
	DescFWrite    uint16 = 1 << 1 // buffer is device-writable (response)
	DescFIndirect uint16 = 1 << 2 // unused by this driver; no indirect descriptors
)

// Desc is one descriptor table entry: 16 bytes, wire-identical to the split
// virtqueue layout (Addr uint64, Len uint32, Flags uint16, Next uint16 with
// no inter-field padding on any Go target).
type Desc struct {
	Addr  uint64
	Len   uint32
	Flags uint16
	Next  uint16
}

// Segment is one request or response buffer handed to Transact. Addr is a
// DMA-visible physical address (see internal/dma.Region.Addr); Len is its
// length in bytes.
type Segment struct {
	Addr uint64
	Len  uint32
}

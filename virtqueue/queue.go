package virtqueue

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/iansmith/mazvgpu/internal/dma"
	"github.com/iansmith/mazvgpu/internal/mmio"
	"github.com/iansmith/mazvgpu/internal/ulog"
	"github.com/iansmith/mazvgpu/transport"
)

const descEndOfChain uint16 = 0xffff

// availHeaderLen is the avail ring's fixed header: flags(2) + idx(2).
const availHeaderLen = 4

// usedHeaderLen is the used ring's fixed header: flags(2) + idx(2).
const usedHeaderLen = 4

// usedElemLen is one used-ring entry: id(4) + len(4).
const usedElemLen = 8

// Queue is one split virtqueue bound to a device queue index. It owns its
// descriptor table and both rings as DMA regions plus its free-descriptor
// list, with no internal locking; callers must not share a Queue across goroutines
// without external locking (this driver only ever runs one transaction at a
// time on a queue).
type Queue struct {
	bus  transport.Bus
	idx  uint16
	size uint16
	log  *ulog.Logger

	descRegion  *dma.Region
	availRegion *dma.Region
	usedRegion  *dma.Region

	descs []Desc

	freeHead uint16
	numFree  uint16
}

// NewQueue allocates a queue of size descriptors bound to device queue idx
// and registers its rings with bus. size must be a power of two, matching
// virtqueueInit's check in src/go/mazarin/virtqueue.go.
func NewQueue(bus transport.Bus, idx uint16, size uint16, log *ulog.Logger) (*Queue, error) {
	if size == 0 || size&(size-1) != 0 {
		return nil, ErrInvalidQueueSize
	}

	descRegion := dma.Alloc(int(size)*16, 16)
	availRegion := dma.Alloc(availHeaderLen+int(size)*2, 2)
	usedRegion := dma.Alloc(usedHeaderLen+int(size)*usedElemLen, 4)

	q := &Queue{
		bus:         bus,
		idx:         idx,
		size:        size,
		log:         log,
		descRegion:  descRegion,
		availRegion: availRegion,
		usedRegion:  usedRegion,
		descs:       unsafe.Slice((*Desc)(unsafe.Pointer(&descRegion.Buf[0])), size),
	}

	for i := uint16(0); i < size-1; i++ {
		q.descs[i].Next = i + 1
	}
	q.descs[size-1].Next = descEndOfChain
	q.freeHead = 0
	q.numFree = size

	bus.SelectQueue(idx)
	bus.SetQueueSize(idx, size)
	bus.SetQueueAddresses(idx, descRegion.Addr, availRegion.Addr, usedRegion.Addr)
	bus.EnableQueue(idx, true)

	q.log.Line("virtqueue: queue ready", "size", uint32(size))
	return q, nil
}

// Close tears the queue down: disables it at the bus and releases its DMA
// regions. Grounded on src/go/mazarin/virtqueue.go:virtqueueCleanup.
func (q *Queue) Close() {
	q.bus.SelectQueue(q.idx)
	q.bus.EnableQueue(q.idx, false)
	q.descRegion.Free()
	q.availRegion.Free()
	q.usedRegion.Free()
}

func (q *Queue) allocDesc() (uint16, error) {
	if q.numFree == 0 {
		return 0, ErrOutOfDescriptors
	}
	idx := q.freeHead
	q.freeHead = q.descs[idx].Next
	q.numFree--
	return idx, nil
}

func (q *Queue) freeOne(idx uint16) {
	q.descs[idx].Next = q.freeHead
	q.freeHead = idx
	q.numFree++
}

// freeChainFrom walks a published chain back onto the free list, following
// Next through every descriptor flagged DescFNext. Grounded on
// src/go/mazarin/virtqueue.go:virtqueueFreeDescChain.
func (q *Queue) freeChainFrom(head uint16) {
	current := head
	for {
		d := &q.descs[current]
		hasNext := d.Flags&DescFNext != 0
		next := d.Next
		q.freeOne(current)
		if !hasNext {
			return
		}
		current = next
	}
}

func (q *Queue) availIdxPtr() *uint16 {
	return (*uint16)(unsafe.Pointer(&q.availRegion.Buf[2]))
}

func (q *Queue) usedIdxPtr() *uint16 {
	return (*uint16)(unsafe.Pointer(&q.usedRegion.Buf[2]))
}

func (q *Queue) setAvailRing(pos uint16, descIdx uint16) {
	off := availHeaderLen + int(pos)*2
	binary.LittleEndian.PutUint16(q.availRegion.Buf[off:], descIdx)
}

func (q *Queue) usedElemAt(pos uint16) (id uint32, length uint32) {
	off := usedHeaderLen + int(pos)*usedElemLen
	id = binary.LittleEndian.Uint32(q.usedRegion.Buf[off:])
	length = binary.LittleEndian.Uint32(q.usedRegion.Buf[off+4:])
	return
}

// Transact publishes a chain of device-readable reqSegments followed by one
// device-writable resp segment, notifies the device, and spins until the
// device reports completion on the used ring. The algorithm: reserve
// N=len(reqSegments)+1 descriptors, link them, publish to the avail ring
// behind a store/store barrier, select and enable the queue, notify, then
// spin a load-acquire on the used ring's idx until it reaches the snapshot
// taken right after publish.
//
// Transact is synchronous: it does not return until the device has consumed
// exactly this chain, so at most one transaction is ever in flight on a
// Queue and the used-ring position of the completed chain is always the
// avail index this call published.
func (q *Queue) Transact(reqSegments []Segment, resp Segment) error {
	if len(reqSegments) == 0 {
		return ErrNoRequestSegments
	}

	indices := make([]uint16, 0, len(reqSegments)+1)
	rollback := func() {
		for i := len(indices) - 1; i >= 0; i-- {
			q.freeOne(indices[i])
		}
	}

	for range reqSegments {
		idx, err := q.allocDesc()
		if err != nil {
			rollback()
			return err
		}
		indices = append(indices, idx)
	}
	respIdx, err := q.allocDesc()
	if err != nil {
		rollback()
		return err
	}
	indices = append(indices, respIdx)

	for i, seg := range reqSegments {
		d := &q.descs[indices[i]]
		d.Addr = seg.Addr
		d.Len = seg.Len
		d.Flags = DescFNext
		d.Next = indices[i+1]
	}
	rd := &q.descs[respIdx]
	rd.Addr = resp.Addr
	rd.Len = resp.Len
	rd.Flags = DescFWrite
	rd.Next = 0

	head := indices[0]

	availIdx := atomic.LoadUint16(q.availIdxPtr())
	pos := availIdx & (q.size - 1)
	q.setAvailRing(pos, head)
	mmio.Dsb() // ring entry must be visible before the idx bump below
	snapshot := availIdx + 1
	atomic.StoreUint16(q.availIdxPtr(), snapshot)
	mmio.Dsb() // idx must be visible before the device is notified

	q.bus.SelectQueue(q.idx)
	q.bus.EnableQueue(q.idx, true)
	q.bus.Notify(q.idx)

	for {
		mmio.Dsb()
		if atomic.LoadUint16(q.usedIdxPtr()) == snapshot {
			break
		}
	}

	if id, _ := q.usedElemAt(pos); uint16(id) != head {
		q.log.Line("virtqueue: used element id mismatch", "got", id)
	}

	q.freeChainFrom(head)
	return nil
}

// TransactRW is the common one-request/one-response shape: write req, read
// resp. Most GPU control commands are this shape.
func (q *Queue) TransactRW(req, resp Segment) error {
	return q.Transact([]Segment{req}, resp)
}

// TransactRRW adds a second device-readable segment ahead of the response,
// used by RESOURCE_ATTACH_BACKING's header+mem-entries request.
func (q *Queue) TransactRRW(req, extra, resp Segment) error {
	return q.Transact([]Segment{req, extra}, resp)
}

// NumFree reports how many descriptors are currently unallocated. Exposed
// for tests and diagnostics only; callers should not use it to predict
// whether the next Transact will succeed under concurrent use.
func (q *Queue) NumFree() uint16 {
	return q.numFree
}

// Size reports the queue's descriptor/ring capacity, always a power of two.
// Software stand-ins for the device use it to compute a ring-slot mask
// instead of hardcoding the queue size they expect a Device to have chosen.
func (q *Queue) Size() uint16 {
	return q.size
}

// DeviceSide exposes the device-facing half of the ring. Real hardware plays
// this role; tests and cmd/mazvgpu-selftest's software device use it to
// stand in for hardware without duplicating the ring layout.
type DeviceSide struct {
	q *Queue
}

// DeviceSide returns the device-facing accessor for q.
func (q *Queue) DeviceSide() DeviceSide {
	return DeviceSide{q: q}
}

// AvailIdx loads the avail ring's published index.
func (d DeviceSide) AvailIdx() uint16 {
	return atomic.LoadUint16(d.q.availIdxPtr())
}

// AvailRingAt returns the descriptor-chain head published at ring slot pos.
func (d DeviceSide) AvailRingAt(pos uint16) uint16 {
	off := availHeaderLen + int(pos)*2
	return binary.LittleEndian.Uint16(d.q.availRegion.Buf[off:])
}

// Chain walks the descriptor chain starting at head and returns its entries
// in order.
func (d DeviceSide) Chain(head uint16) []Desc {
	var out []Desc
	current := head
	for {
		desc := d.q.descs[current]
		out = append(out, desc)
		if desc.Flags&DescFNext == 0 {
			break
		}
		current = desc.Next
	}
	return out
}

// CompleteUsed records chain head as completed at used-ring slot pos with
// length len, then bumps used.idx — exactly what hardware does once it has
// consumed a published chain.
func (d DeviceSide) CompleteUsed(pos uint16, head uint16, len uint32) {
	off := usedHeaderLen + int(pos)*usedElemLen
	binary.LittleEndian.PutUint32(d.q.usedRegion.Buf[off:], uint32(head))
	binary.LittleEndian.PutUint32(d.q.usedRegion.Buf[off+4:], len)
	mmio.Dsb()
	atomic.StoreUint16(d.q.usedIdxPtr(), atomic.LoadUint16(d.q.usedIdxPtr())+1)
}

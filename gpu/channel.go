package gpu

import (
	"github.com/iansmith/mazvgpu/internal/dma"
	"github.com/iansmith/mazvgpu/virtqueue"
)

// maxReqLen covers the largest fixed-size request this driver sends
// (TRANSFER_TO_HOST_2D, 56 bytes).
const maxReqLen = 64

// maxMemEntries bounds RESOURCE_ATTACH_BACKING's scatter-gather list. The
// framebuffer backing is always one contiguous DMA region, so one entry is
// all any call needs; the extra
// headroom exists so the command layer does not silently truncate a future
// multi-entry caller.
const maxMemEntries = 8

// channel is the pre-allocated command/response/scratch buffer set every
// control-queue transaction reuses, grounded on
// mazboot/golang/main/virtio_gpu.go's "static buffers to avoid kmalloc"
// comment on virtioGPUSendCommand: this driver never allocates a DMA buffer
// per command, only once at channel construction.
type channel struct {
	q *virtqueue.Queue

	req    *dma.Region
	resp   *dma.Region
	attach *dma.Region
}

func newChannel(q *virtqueue.Queue) *channel {
	return &channel{
		q:      q,
		req:    dma.Alloc(maxReqLen, 8),
		resp:   dma.Alloc(getDisplayInfoRespLen, 8),
		attach: dma.Alloc(maxMemEntries*memEntryLen, 8),
	}
}

// sendNoData marshals a request into the channel's scratch request buffer
// via marshal, transacts it, and decodes the response as an OK_NODATA /
// device-error response.
func (c *channel) sendNoData(marshal func([]byte) []byte) error {
	b := marshal(c.req.Buf)
	resp := c.resp.Buf[:ctrlHdrLen]
	if err := c.q.TransactRW(
		virtqueue.Segment{Addr: c.req.Addr, Len: uint32(len(b))},
		virtqueue.Segment{Addr: c.resp.Addr, Len: uint32(len(resp))},
	); err != nil {
		return err
	}
	return DecodeNoDataResponse(resp)
}

// sendAttachBacking marshals the RESOURCE_ATTACH_BACKING header and its
// mem-entry array as two separate request segments, matching the wire
// format (see virtqueue.Queue.TransactRRW).
func (c *channel) sendAttachBacking(hdr ResourceAttachBacking, entries []MemEntry) error {
	if len(entries) > maxMemEntries {
		return ErrTooManyMemEntries
	}
	hb := hdr.Marshal(c.req.Buf)
	eb := MarshalMemEntries(c.attach.Buf, entries)
	resp := c.resp.Buf[:ctrlHdrLen]
	if err := c.q.TransactRRW(
		virtqueue.Segment{Addr: c.req.Addr, Len: uint32(len(hb))},
		virtqueue.Segment{Addr: c.attach.Addr, Len: uint32(len(eb))},
		virtqueue.Segment{Addr: c.resp.Addr, Len: uint32(len(resp))},
	); err != nil {
		return err
	}
	return DecodeNoDataResponse(resp)
}

// sendDisplayInfo issues GET_DISPLAY_INFO and decodes the scanout array.
func (c *channel) sendDisplayInfo() ([]DisplayInfo, error) {
	hdr := CtrlHdr{Type: CmdGetDisplayInfo}
	b := c.req.Buf[:ctrlHdrLen]
	hdr.put(b)
	resp := c.resp.Buf[:getDisplayInfoRespLen]
	if err := c.q.TransactRW(
		virtqueue.Segment{Addr: c.req.Addr, Len: uint32(len(b))},
		virtqueue.Segment{Addr: c.resp.Addr, Len: uint32(len(resp))},
	); err != nil {
		return nil, err
	}
	_, info, err := DecodeDisplayInfo(resp)
	return info, err
}

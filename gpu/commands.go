// Package gpu drives a virtio-gpu device's 2D command set over a
// virtqueue.Queue: resource lifecycle, scanout binding, and the transfer/
// flush pipeline that gets framebuffer pixels onto a display, plus the
// clipped software framebuffer in gpu/fb that those commands serve.
//
// Command/response layout and constants grounded on
// mazboot/golang/main/virtio_gpu.go (VIRTIO_GPU_CMD_*, VIRTIO_GPU_RESP_*,
// VIRTIO_GPU_FORMAT_*, VirtIOGPUCtrlHdr, VirtIOGPUResourceCreate2D,
// VirtIOGPUResourceAttachBacking, VirtIOGPUSetScanout,
// VirtIOGPUTransferToHost2D) and src/mazboot/golang/main/virtio_gpu.go's
// virtioGPUSendCommand, which is this package's zero-before-use,
// check-response-type codec contract inlined at each call site.
package gpu

import "encoding/binary"

// Command types, wire-identical to mazboot/golang/main/virtio_gpu.go's
// VIRTIO_GPU_CMD_* constants.
const (
	CmdGetDisplayInfo        uint32 = 0x0100
	CmdResourceCreate2D      uint32 = 0x0101
	CmdResourceUnref         uint32 = 0x0102
	CmdSetScanout            uint32 = 0x0103
	CmdResourceFlush         uint32 = 0x0104
	CmdTransferToHost2D      uint32 = 0x0105
	CmdResourceAttachBacking uint32 = 0x0106
	CmdResourceDetachBacking uint32 = 0x0107
)

// Response types, wire-identical to VIRTIO_GPU_RESP_*.
const (
	RespOKNoData           uint32 = 0x1100
	RespOKDisplayInfo      uint32 = 0x1101
	RespErrUnspec          uint32 = 0x1200
	RespErrOutOfMemory     uint32 = 0x1201
	RespErrInvalidScanout  uint32 = 0x1202
	RespErrInvalidResource uint32 = 0x1203
	RespErrInvalidContext  uint32 = 0x1204
)

// Pixel formats, wire-identical to VIRTIO_GPU_FORMAT_*. This driver only
// ever creates R8G8B8A8_UNORM resources; the others are named because they
// appear on the wire in display-info responses from a real device and a
// decoder needs to recognize them.
const (
	FormatB8G8R8A8Unorm uint32 = 1
	FormatB8G8R8X8Unorm uint32 = 2
	FormatR8G8B8A8Unorm uint32 = 3
)

// ctrlHdrLen is the 24-byte control header: Type(4) Flags(4) FenceID(8)
// CtxID(4) Padding(4).
const ctrlHdrLen = 24

// CtrlHdr is the header every command and response begins with.
type CtrlHdr struct {
	Type    uint32
	Flags   uint32
	FenceID uint64
	CtxID   uint32
	Padding uint32
}

func (h CtrlHdr) put(b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], h.Type)
	binary.LittleEndian.PutUint32(b[4:8], h.Flags)
	binary.LittleEndian.PutUint64(b[8:16], h.FenceID)
	binary.LittleEndian.PutUint32(b[16:20], h.CtxID)
	binary.LittleEndian.PutUint32(b[20:24], h.Padding)
}

func getCtrlHdr(b []byte) CtrlHdr {
	return CtrlHdr{
		Type:    binary.LittleEndian.Uint32(b[0:4]),
		Flags:   binary.LittleEndian.Uint32(b[4:8]),
		FenceID: binary.LittleEndian.Uint64(b[8:16]),
		CtxID:   binary.LittleEndian.Uint32(b[16:20]),
		Padding: binary.LittleEndian.Uint32(b[20:24]),
	}
}

// Rect is a virtio-gpu rectangle: 4 uint32 fields, 16 bytes.
type Rect struct {
	X, Y, Width, Height uint32
}

func (r Rect) put(b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], r.X)
	binary.LittleEndian.PutUint32(b[4:8], r.Y)
	binary.LittleEndian.PutUint32(b[8:12], r.Width)
	binary.LittleEndian.PutUint32(b[12:16], r.Height)
}

func getRect(b []byte) Rect {
	return Rect{
		X:      binary.LittleEndian.Uint32(b[0:4]),
		Y:      binary.LittleEndian.Uint32(b[4:8]),
		Width:  binary.LittleEndian.Uint32(b[8:12]),
		Height: binary.LittleEndian.Uint32(b[12:16]),
	}
}

// ResourceCreate2D is the RESOURCE_CREATE_2D request body (after the header).
type ResourceCreate2D struct {
	Hdr        CtrlHdr
	ResourceID uint32
	Format     uint32
	Width      uint32
	Height     uint32
}

const resourceCreate2DLen = ctrlHdrLen + 16

// Marshal writes the wire form into a caller-owned buffer of at least
// resourceCreate2DLen bytes, returning the slice actually used. No command
// here allocates: the driver's command buffers are pre-sized DMA regions
// reused transaction to transaction (mazboot/golang/main/virtio_gpu.go's
// "static buffers to avoid kmalloc" comment).
func (c ResourceCreate2D) Marshal(buf []byte) []byte {
	b := buf[:resourceCreate2DLen]
	c.Hdr.put(b[0:ctrlHdrLen])
	binary.LittleEndian.PutUint32(b[24:28], c.ResourceID)
	binary.LittleEndian.PutUint32(b[28:32], c.Format)
	binary.LittleEndian.PutUint32(b[32:36], c.Width)
	binary.LittleEndian.PutUint32(b[36:40], c.Height)
	return b
}

// MemEntry is one scatter-gather entry for RESOURCE_ATTACH_BACKING.
type MemEntry struct {
	Addr   uint64
	Length uint32
}

const memEntryLen = 16 // Addr(8) Length(4) Padding(4)

func (e MemEntry) put(b []byte) {
	binary.LittleEndian.PutUint64(b[0:8], e.Addr)
	binary.LittleEndian.PutUint32(b[8:12], e.Length)
	binary.LittleEndian.PutUint32(b[12:16], 0)
}

// ResourceAttachBacking is the RESOURCE_ATTACH_BACKING request header; the
// MemEntry array follows as a second, separate request segment (see
// virtqueue.Queue.TransactRRW).
type ResourceAttachBacking struct {
	Hdr        CtrlHdr
	ResourceID uint32
	NrEntries  uint32
}

const resourceAttachBackingLen = ctrlHdrLen + 8

func (a ResourceAttachBacking) Marshal(buf []byte) []byte {
	b := buf[:resourceAttachBackingLen]
	a.Hdr.put(b[0:ctrlHdrLen])
	binary.LittleEndian.PutUint32(b[24:28], a.ResourceID)
	binary.LittleEndian.PutUint32(b[28:32], a.NrEntries)
	return b
}

// MarshalMemEntries writes n MemEntry values into a caller-owned buffer.
func MarshalMemEntries(buf []byte, entries []MemEntry) []byte {
	b := buf[:len(entries)*memEntryLen]
	for i, e := range entries {
		e.put(b[i*memEntryLen : (i+1)*memEntryLen])
	}
	return b
}

// ResourceDetachBacking is the RESOURCE_DETACH_BACKING request body.
type ResourceDetachBacking struct {
	Hdr        CtrlHdr
	ResourceID uint32
	Padding    uint32
}

const resourceDetachBackingLen = ctrlHdrLen + 8

func (d ResourceDetachBacking) Marshal(buf []byte) []byte {
	b := buf[:resourceDetachBackingLen]
	d.Hdr.put(b[0:ctrlHdrLen])
	binary.LittleEndian.PutUint32(b[24:28], d.ResourceID)
	binary.LittleEndian.PutUint32(b[28:32], 0)
	return b
}

// ResourceUnref is the RESOURCE_UNREF request body.
type ResourceUnref struct {
	Hdr        CtrlHdr
	ResourceID uint32
	Padding    uint32
}

const resourceUnrefLen = ctrlHdrLen + 8

func (u ResourceUnref) Marshal(buf []byte) []byte {
	b := buf[:resourceUnrefLen]
	u.Hdr.put(b[0:ctrlHdrLen])
	binary.LittleEndian.PutUint32(b[24:28], u.ResourceID)
	binary.LittleEndian.PutUint32(b[28:32], 0)
	return b
}

// SetScanout is the SET_SCANOUT request body. A zero ResourceID with a zero
// Rect disables the scanout (the graphics-to-text mode transition).
type SetScanout struct {
	Hdr        CtrlHdr
	Rect       Rect
	ScanoutID  uint32
	ResourceID uint32
}

const setScanoutLen = ctrlHdrLen + 16 + 8

func (s SetScanout) Marshal(buf []byte) []byte {
	b := buf[:setScanoutLen]
	s.Hdr.put(b[0:ctrlHdrLen])
	s.Rect.put(b[24:40])
	binary.LittleEndian.PutUint32(b[40:44], s.ScanoutID)
	binary.LittleEndian.PutUint32(b[44:48], s.ResourceID)
	return b
}

// TransferToHost2D is the TRANSFER_TO_HOST_2D request body.
type TransferToHost2D struct {
	Hdr        CtrlHdr
	Rect       Rect
	Offset     uint64
	ResourceID uint32
	Padding    uint32
}

const transferToHost2DLen = ctrlHdrLen + 16 + 16

func (t TransferToHost2D) Marshal(buf []byte) []byte {
	b := buf[:transferToHost2DLen]
	t.Hdr.put(b[0:ctrlHdrLen])
	t.Rect.put(b[24:40])
	binary.LittleEndian.PutUint64(b[40:48], t.Offset)
	binary.LittleEndian.PutUint32(b[48:52], t.ResourceID)
	binary.LittleEndian.PutUint32(b[52:56], 0)
	return b
}

// ResourceFlush is the RESOURCE_FLUSH request body.
type ResourceFlush struct {
	Hdr        CtrlHdr
	Rect       Rect
	ResourceID uint32
	Padding    uint32
}

const resourceFlushLen = ctrlHdrLen + 16 + 8

func (f ResourceFlush) Marshal(buf []byte) []byte {
	b := buf[:resourceFlushLen]
	f.Hdr.put(b[0:ctrlHdrLen])
	f.Rect.put(b[24:40])
	binary.LittleEndian.PutUint32(b[40:44], f.ResourceID)
	binary.LittleEndian.PutUint32(b[44:48], 0)
	return b
}

// DisplayInfo is one scanout entry decoded from a GET_DISPLAY_INFO response:
// 16 scanouts of Rect(16) + Enabled(4) + Flags(4) each, following the header.
type DisplayInfo struct {
	Rect    Rect
	Enabled bool
	Flags   uint32
}

const maxScanouts = 16
const displayInfoEntryLen = 24 // Rect(16) Enabled(4) Flags(4)
const getDisplayInfoRespLen = ctrlHdrLen + maxScanouts*displayInfoEntryLen

// DecodeDisplayInfo reads a GET_DISPLAY_INFO response, returning the header
// and every scanout slot the device reported (Enabled tells callers which
// slots are live; see gpu.ModeManager.RefreshAvailableModes, which maps
// each enabled slot to a selectable mode index).
func DecodeDisplayInfo(b []byte) (CtrlHdr, []DisplayInfo, error) {
	if len(b) < getDisplayInfoRespLen {
		return CtrlHdr{}, nil, ErrShortResponse
	}
	hdr := getCtrlHdr(b[0:ctrlHdrLen])
	if hdr.Type != RespOKDisplayInfo {
		return hdr, nil, ErrUnexpectedResponseType
	}
	out := make([]DisplayInfo, maxScanouts)
	for i := 0; i < maxScanouts; i++ {
		off := ctrlHdrLen + i*displayInfoEntryLen
		out[i] = DisplayInfo{
			Rect:    getRect(b[off : off+16]),
			Enabled: binary.LittleEndian.Uint32(b[off+16:off+20]) != 0,
			Flags:   binary.LittleEndian.Uint32(b[off+20 : off+24]),
		}
	}
	return hdr, out, nil
}

// DecodeNoDataResponse reads a response expected to be OK_NODATA and returns
// a descriptive error for anything else, including the device's own error
// response types.
func DecodeNoDataResponse(b []byte) error {
	if len(b) < ctrlHdrLen {
		return ErrShortResponse
	}
	hdr := getCtrlHdr(b[0:ctrlHdrLen])
	switch hdr.Type {
	case RespOKNoData:
		return nil
	case RespErrOutOfMemory:
		return ErrDeviceOutOfMemory
	case RespErrInvalidScanout:
		return ErrDeviceInvalidScanout
	case RespErrInvalidResource:
		return ErrDeviceInvalidResource
	case RespErrInvalidContext:
		return ErrDeviceInvalidContext
	default:
		return ErrUnexpectedResponseType
	}
}

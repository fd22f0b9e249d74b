package gpu

import (
	"encoding/binary"
	"testing"

	"github.com/iansmith/mazvgpu/internal/dma"
	"github.com/iansmith/mazvgpu/internal/ulog"
	"github.com/iansmith/mazvgpu/transport"
	"github.com/iansmith/mazvgpu/virtqueue"
)

// fakeGPUDevice is a software stand-in for a real virtio-gpu device: it
// reads whatever the driver published on the control queue, maintains just
// enough state to answer sensibly, and writes a response. Tests use it to
// exercise the full Device API without real hardware.
type fakeGPUDevice struct {
	t        *testing.T
	scanouts []DisplayInfo

	resources map[uint32]bool // id -> attached

	failNextAttach bool
}

func bufAt(regions []*dma.Region, addr uint64, n uint32) []byte {
	for _, r := range regions {
		if r == nil {
			continue
		}
		if addr >= r.Addr && addr < r.Addr+uint64(len(r.Buf)) {
			off := addr - r.Addr
			return r.Buf[off : off+uint64(n)]
		}
	}
	return nil
}

func okNoData() []byte {
	b := make([]byte, ctrlHdrLen)
	hdr := CtrlHdr{Type: RespOKNoData}
	hdr.put(b)
	return b
}

func errResp(t uint32) []byte {
	b := make([]byte, ctrlHdrLen)
	hdr := CtrlHdr{Type: t}
	hdr.put(b)
	return b
}

func buildDisplayInfoResponse(entries []DisplayInfo) []byte {
	b := make([]byte, getDisplayInfoRespLen)
	hdr := CtrlHdr{Type: RespOKDisplayInfo}
	hdr.put(b[0:ctrlHdrLen])
	for i := 0; i < maxScanouts; i++ {
		off := ctrlHdrLen + i*displayInfoEntryLen
		var e DisplayInfo
		if i < len(entries) {
			e = entries[i]
		}
		e.Rect.put(b[off : off+16])
		enabled := uint32(0)
		if e.Enabled {
			enabled = 1
		}
		binary.LittleEndian.PutUint32(b[off+16:off+20], enabled)
		binary.LittleEndian.PutUint32(b[off+20:off+24], e.Flags)
	}
	return b
}

func (fg *fakeGPUDevice) handle(reqBufs [][]byte) []byte {
	hdr := getCtrlHdr(reqBufs[0][0:ctrlHdrLen])
	switch hdr.Type {
	case CmdGetDisplayInfo:
		return buildDisplayInfoResponse(fg.scanouts)
	case CmdResourceCreate2D:
		id := binary.LittleEndian.Uint32(reqBufs[0][24:28])
		fg.resources[id] = false
		return okNoData()
	case CmdResourceAttachBacking:
		id := binary.LittleEndian.Uint32(reqBufs[0][24:28])
		if fg.failNextAttach {
			fg.failNextAttach = false
			return errResp(RespErrOutOfMemory)
		}
		fg.resources[id] = true
		return okNoData()
	case CmdResourceDetachBacking:
		id := binary.LittleEndian.Uint32(reqBufs[0][24:28])
		fg.resources[id] = false
		return okNoData()
	case CmdResourceUnref:
		id := binary.LittleEndian.Uint32(reqBufs[0][24:28])
		delete(fg.resources, id)
		return okNoData()
	case CmdSetScanout:
		return okNoData()
	case CmdTransferToHost2D:
		return okNoData()
	case CmdResourceFlush:
		return okNoData()
	default:
		fg.t.Fatalf("fake device: unhandled command type 0x%x", hdr.Type)
		return nil
	}
}

// newTestDevice builds a Device wired against a fakeGPUDevice reporting the
// given scanouts as enabled.
func newTestDevice(t *testing.T, scanouts []DisplayInfo) (*Device, *fakeGPUDevice, *transport.Fake) {
	t.Helper()
	bus := transport.NewFake()
	dev, err := NewDevice(bus, ulog.New(nil))
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}

	fg := &fakeGPUDevice{t: t, scanouts: scanouts, resources: make(map[uint32]bool)}
	regions := []*dma.Region{dev.ch.req, dev.ch.resp, dev.ch.attach}

	bus.OnNotify = func(qidx uint16) {
		d := dev.q.DeviceSide()
		idx := d.AvailIdx() - 1
		pos := idx & (dev.q.Size() - 1)
		head := d.AvailRingAt(pos)
		chain := d.Chain(head)

		var reqBufs [][]byte
		var respAddr uint64
		var respLen uint32
		for i := range chain {
			c := &chain[i]
			if c.Flags&virtqueue.DescFWrite != 0 {
				respAddr, respLen = c.Addr, c.Len
				continue
			}
			reqBufs = append(reqBufs, bufAt(regions, c.Addr, c.Len))
		}
		out := fg.handle(reqBufs)
		copy(bufAt(regions, respAddr, respLen), out)
		d.CompleteUsed(pos, head, uint32(len(out)))
	}

	return dev, fg, bus
}

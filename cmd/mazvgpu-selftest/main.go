// Command mazvgpu-selftest wires a gpu.Surface against a software stand-in
// for a virtio-gpu device and exercises mode enumeration, a mode switch, one
// draw, and one flush end to end through the same registration-surface
// operations an OS device abstraction would call. Grounded on
// mazboot/golang/main/kernel.go's init-order style (bring up one subsystem
// at a time, logging each step) with the hardware swapped for a software
// device good enough to answer the protocol.
package main

import (
	"encoding/binary"
	"os"

	"github.com/iansmith/mazvgpu/gpu"
	"github.com/iansmith/mazvgpu/gpu/fb"
	"github.com/iansmith/mazvgpu/internal/dma"
	"github.com/iansmith/mazvgpu/internal/ulog"
	"github.com/iansmith/mazvgpu/transport"
	"github.com/iansmith/mazvgpu/virtqueue"
)

const (
	screenWidth  = 640
	screenHeight = 480
)

// softwareGPU answers just enough of the virtio-gpu control protocol to let
// a Device through bring-up, one mode switch, and one flush.
type softwareGPU struct {
	log *ulog.Logger
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
	b := make([]byte, 24)
	binary.LittleEndian.PutUint32(b[0:4], gpu.RespOKNoData)
	return b
}

func (s *softwareGPU) respond(reqBufs [][]byte) []byte {
	cmdType := binary.LittleEndian.Uint32(reqBufs[0][0:4])
	switch cmdType {
	case gpu.CmdGetDisplayInfo:
		b := make([]byte, 24+16*24)
		binary.LittleEndian.PutUint32(b[0:4], gpu.RespOKDisplayInfo)
		// Scanout 0: enabled, screenWidth x screenHeight.
		off := 24
		binary.LittleEndian.PutUint32(b[off+8:off+12], screenWidth)
		binary.LittleEndian.PutUint32(b[off+12:off+16], screenHeight)
		binary.LittleEndian.PutUint32(b[off+16:off+20], 1) // enabled
		return b
	default:
		s.log.Puts("selftest: device ack\r\n")
		return okNoData()
	}
}

func wireDevice(dev *gpu.Device, bus *transport.Fake, sw *softwareGPU) {
	regions := dev.ChannelRegions()
	q := dev.ControlQueue()
	bus.OnNotify = func(qidx uint16) {
		d := q.DeviceSide()
		idx := d.AvailIdx() - 1
		pos := idx & (q.Size() - 1)
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
		out := sw.respond(reqBufs)
		copy(bufAt(regions, respAddr, respLen), out)
		d.CompleteUsed(pos, head, uint32(len(out)))
	}
}

func main() {
	log := ulog.New(os.Stdout)
	bus := transport.NewFake()

	dev, err := gpu.NewDevice(bus, log)
	if err != nil {
		log.Puts("selftest: device init failed\r\n")
		os.Exit(1)
	}
	defer dev.Close()

	sw := &softwareGPU{log: log}
	wireDevice(dev, bus, sw)

	surface := gpu.NewSurface(dev)

	slots := make([]gpu.VideoMode, 16)
	n, err := surface.GetAvailableModes(slots)
	if err != nil {
		log.Puts("selftest: display info failed\r\n")
		os.Exit(1)
	}
	log.Line("selftest: modes enumerated", "count", uint32(n))

	if err := surface.SetMode(slots[1].ModeData); err != nil {
		log.Puts("selftest: set mode failed\r\n")
		os.Exit(1)
	}
	log.Puts("selftest: entered graphics mode\r\n")

	white := [4]byte{255, 255, 255, 255}
	mode := surface.GetMode()
	if err := surface.GraphicsDrawLine(fb.Point{X: 0, Y: 0}, fb.Point{X: mode.Width - 1, Y: mode.Height - 1}, white); err != nil {
		log.Puts("selftest: draw line failed\r\n")
		os.Exit(1)
	}

	if err := surface.Flush(); err != nil {
		log.Puts("selftest: flush failed\r\n")
		os.Exit(1)
	}
	log.Puts("selftest: flushed one frame\r\n")

	if err := surface.SetMode(0); err != nil {
		log.Puts("selftest: return to text mode failed\r\n")
		os.Exit(1)
	}
	log.Puts("selftest: back in text mode, done\r\n")
}

// Device registration surface: the driver init sequence and the public API
// a kernel would bind to a display subsystem. Grounded on
// mazboot/golang/main/virtio_gpu.go's VIRTIO_STATUS_* constants and
// virtioGPUInit's 6-step bring-up (reset, acknowledge, driver, negotiate
// features, setup queue, driver_ok).
package gpu

import (
	"github.com/iansmith/mazvgpu/internal/dma"
	"github.com/iansmith/mazvgpu/internal/ulog"
	"github.com/iansmith/mazvgpu/transport"
	"github.com/iansmith/mazvgpu/virtqueue"
)

// Device status register bits, wire-identical to the virtio spec's
// VIRTIO_STATUS_* values (the teacher's own VIRTIO_STATUS_* constants use a
// different bit assignment for DRIVER_OK/FAILED; these match the real wire
// protocol instead).
const (
	StatusAcknowledge      uint8 = 1 << 0
	StatusDriver           uint8 = 1 << 1
	StatusDriverOK         uint8 = 1 << 2
	StatusFeaturesOK       uint8 = 1 << 3
	StatusDeviceNeedsReset uint8 = 1 << 6
	StatusFailed           uint8 = 1 << 7
)

// Device feature bits. original_source's select_features() explicitly
// leaves both unset (its VIRGL and EDID FBIT_SETIF calls are commented out),
// so this driver negotiates the empty set and never offers either —
// matching that, not an oversight (see DESIGN.md).
const (
	FeatureVirgl uint64 = 1 << 0
	FeatureEDID  uint64 = 1 << 1
)

const (
	controlQueueIndex = 0
	controlQueueSize  = 16
)

// Device is a bound, initialized virtio-gpu control-queue driver: resource
// lifecycle, mode switching, and the flush pipeline, all serialized behind
// one virtqueue.
type Device struct {
	bus transport.Bus
	log *ulog.Logger
	q   *virtqueue.Queue
	ch  *channel

	Resources  *ResourceManager
	Modes      *ModeManager
	Flush      *FlushPipeline
	Interrupts *InterruptBridge

	// Features records the bring-up negotiation's bookkeeping (see
	// features.go); always SupportedFeatures/SupportedFeatures today since
	// this driver only ever offers the empty set.
	Features Features
}

// NewDevice runs the driver bring-up sequence against bus and returns a
// ready-to-use Device: reset, ACKNOWLEDGE, DRIVER, negotiate features,
// FEATURES_OK, set up the control queue, DRIVER_OK. Any failure along the
// way sets the FAILED status bit before returning, per virtio's device
// initialization contract.
func NewDevice(bus transport.Bus, log *ulog.Logger) (*Device, error) {
	bus.SetDeviceStatus(0)
	bus.SetDeviceStatus(StatusAcknowledge)
	bus.SetDeviceStatus(StatusAcknowledge | StatusDriver)

	features, err := NegotiateFeatures(bus)
	if err != nil {
		bus.SetDeviceStatus(bus.DeviceStatus() | StatusFailed)
		return nil, err
	}

	bus.SetDeviceStatus(bus.DeviceStatus() | StatusFeaturesOK)
	if bus.DeviceStatus()&StatusFeaturesOK == 0 {
		bus.SetDeviceStatus(bus.DeviceStatus() | StatusFailed)
		return nil, ErrFeaturesNotAccepted
	}

	q, err := virtqueue.NewQueue(bus, controlQueueIndex, controlQueueSize, log)
	if err != nil {
		bus.SetDeviceStatus(bus.DeviceStatus() | StatusFailed)
		return nil, err
	}

	ch := newChannel(q)
	resources := newResourceManager(ch)
	modes := newModeManager(ch, bus, resources)
	flush := newFlushPipeline(ch, modes)
	interrupts := newInterruptBridge(bus)

	bus.SetDeviceStatus(bus.DeviceStatus() | StatusDriverOK)
	log.Puts("gpu: device ready\r\n")

	return &Device{
		bus:        bus,
		log:        log,
		q:          q,
		ch:         ch,
		Resources:  resources,
		Modes:      modes,
		Flush:      flush,
		Interrupts: interrupts,
		Features:   features,
	}, nil
}

// Close tears down the control queue. The device itself is left however the
// caller's bus implementation leaves it; this driver owns no other state.
func (d *Device) Close() {
	d.q.Close()
}

// ControlQueue returns the control virtqueue. Real hardware never needs
// this: it consumes the ring directly. It exists for software stand-ins —
// tests and cmd/mazvgpu-selftest's fake device — that must play the
// device's half of the ring to answer a request.
func (d *Device) ControlQueue() *virtqueue.Queue {
	return d.q
}

// ChannelRegions returns the DMA regions the control channel's commands are
// read from and written to, in the order a software stand-in should search
// them when resolving a descriptor's physical address back to bytes.
func (d *Device) ChannelRegions() []*dma.Region {
	return []*dma.Region{d.ch.req, d.ch.resp, d.ch.attach}
}

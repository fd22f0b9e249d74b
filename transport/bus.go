// Package transport is the bus-level contract this driver needs and nothing
// more: PCI bus discovery, capability-table walking, feature negotiation
// wiring, and MSI-X vector setup are an external collaborator's job, not
// this driver's. Only the contracts matter here, not the implementation, so
// this package is an interface plus (in transport/fake) a minimal in-memory
// stand-in good enough to drive the virtqueue and gpu packages under
// `go test`.
//
// Shape grounded on mazboot/golang/main/virtio_gpu.go's
// virtioPCIRead/WriteCommonConfig*, virtioPCISetupQueue, virtioPCISetDeviceStatus,
// and pci_qemu.go's capability walk (VirtIOCapabilityInfo, BAR decode) — those
// functions are exactly this contract's real implementation on PCI hardware.
package transport

// Bus is the register-window + notification surface a virtio-gpu control
// queue needs. One Bus serves one device; queue indices are the device's
// own (0 for the GPU control queue).
type Bus interface {
	// SelectQueue writes qidx to the device's queue_select register.
	SelectQueue(qidx uint16)
	// SetQueueSize writes the queue's size to queue_size (only meaningful
	// immediately after SelectQueue).
	SetQueueSize(qidx uint16, size uint16)
	// SetQueueAddresses writes the descriptor table / available ring / used
	// ring physical addresses for the currently selected queue.
	SetQueueAddresses(qidx uint16, descPhys, availPhys, usedPhys uint64)
	// EnableQueue writes queue_enable for the currently selected queue.
	EnableQueue(qidx uint16, enable bool)
	// Notify tells the device new descriptors are available on qidx.
	Notify(qidx uint16)

	// DeviceStatus loads the device_status register.
	DeviceStatus() uint8
	// SetDeviceStatus stores the device_status register (the
	// ACKNOWLEDGE → DRIVER → FEATURES_OK → DRIVER_OK bring-up sequence).
	SetDeviceStatus(status uint8)

	// NegotiateFeatures ANDs want against the device's offered feature
	// bitmap, writes the accepted set back to the device, and returns what
	// was accepted. The core always negotiates the empty set, but the hook
	// stays general so a caller offering VIRGL/EDID support has somewhere
	// to plug it in.
	NegotiateFeatures(want uint64) (accepted uint64, err error)

	// RegisterInterruptVector wires handler to an MSI-X vector. The core
	// never requires this to fire (it polls for command completion); it
	// exists so gpu.InterruptBridge has a real hook to register against.
	RegisterInterruptVector(vector uint, handler func()) error

	// ConfigGeneration loads the device configuration's generation counter.
	// A caller must re-read any multi-field config value (GET_DISPLAY_INFO's
	// scanout array) if this changes between the start and end of the read,
	// per the virtio spec's config-generation contract.
	ConfigGeneration() uint32
}

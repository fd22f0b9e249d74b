package gpu

import "github.com/iansmith/mazvgpu/transport"

// InterruptBridge registers a handler for the device's configuration-change
// vector. The transact cycle never waits on an interrupt — Queue.Transact
// polls the used ring directly — so nothing in this driver's
// own call paths depends on a handler firing. This exists so a caller that
// does want asynchronous notice of, say, a display hot-plug has a real hook
// to register against instead of having to poll RefreshAvailableModes.
type InterruptBridge struct {
	bus transport.Bus
}

func newInterruptBridge(bus transport.Bus) *InterruptBridge {
	return &InterruptBridge{bus: bus}
}

// OnConfigChange registers fn against the device's configuration-change
// interrupt vector.
func (b *InterruptBridge) OnConfigChange(vector uint, fn func()) error {
	return b.bus.RegisterInterruptVector(vector, fn)
}

package transport

// Fake is an in-memory Bus good enough to drive a Queue end to end under
// `go test`: it has no real device behind it, so tests and
// cmd/mazvgpu-selftest supply an OnNotify hook that plays the device's part
// (read the published descriptor chain, fill the response, bump the used
// ring) the way a real virtio-gpu device would.
type Fake struct {
	selected     uint16
	queueSize    map[uint16]uint16
	queueEnabled map[uint16]bool
	status       uint8
	features     uint64

	// OnNotify is invoked synchronously from Notify. Tests wire this to a
	// function that completes whatever the driver just published.
	OnNotify func(qidx uint16)

	// Vectors records interrupt registrations; nothing ever fires one since
	// this driver polls for command completion rather than waiting on one.
	Vectors map[uint]func()

	NotifyCount int

	// Generation is returned by ConfigGeneration. Tests bump it to exercise
	// the config-generation retry in gpu.ModeManager.RefreshAvailableModes.
	Generation uint32
}

// NewFake returns a ready-to-use Fake bus.
func NewFake() *Fake {
	return &Fake{
		queueSize:    make(map[uint16]uint16),
		queueEnabled: make(map[uint16]bool),
		Vectors:      make(map[uint]func()),
	}
}

func (f *Fake) SelectQueue(qidx uint16) { f.selected = qidx }

func (f *Fake) SetQueueSize(qidx uint16, size uint16) { f.queueSize[qidx] = size }

func (f *Fake) SetQueueAddresses(qidx uint16, descPhys, availPhys, usedPhys uint64) {
	// A real Bus would program BAR registers with these; the fake has
	// nothing behind it to program, the Queue already owns this memory.
}

func (f *Fake) EnableQueue(qidx uint16, enable bool) { f.queueEnabled[qidx] = enable }

func (f *Fake) Notify(qidx uint16) {
	f.NotifyCount++
	if f.OnNotify != nil {
		f.OnNotify(qidx)
	}
}

func (f *Fake) DeviceStatus() uint8 { return f.status }

func (f *Fake) SetDeviceStatus(status uint8) { f.status = status }

func (f *Fake) NegotiateFeatures(want uint64) (uint64, error) {
	f.features = want
	return want, nil
}

func (f *Fake) RegisterInterruptVector(vector uint, handler func()) error {
	f.Vectors[vector] = handler
	return nil
}

func (f *Fake) ConfigGeneration() uint32 { return f.Generation }

package gpu

import (
	"github.com/iansmith/mazvgpu/internal/dma"
	"github.com/iansmith/mazvgpu/transport"
)

// maxConfigGenerationRetries bounds GET_DISPLAY_INFO's retry loop against a
// config generation that keeps changing out from under the read. The virtio
// spec has no upper bound; this driver gives up rather than spin forever
// against a device that is itself malfunctioning.
const maxConfigGenerationRetries = 4

// Mode describes one selectable display mode: index 0 is the text mode the
// driver always starts in; index k (k>=1) is graphics mode bound to
// scanout k-1, present only while the device reports that scanout enabled.
type Mode struct {
	Index         int
	Width, Height uint32
}

// ModeManager implements the text-mode/graphics-mode resource/mode state
// machine.
// Grounded on mazboot/golang/main/virtio_gpu.go's virtioGPUSetupFramebuffer
// (create → attach → set_scanout), generalized from its single hard-coded
// call site into a transition that can also run in reverse and roll back on
// failure.
type ModeManager struct {
	ch        *channel
	bus       transport.Bus
	resources *ResourceManager

	modes          []Mode // modes[0] is always the text mode
	current        int
	currentScanout uint32
}

func newModeManager(ch *channel, bus transport.Bus, resources *ResourceManager) *ModeManager {
	return &ModeManager{ch: ch, bus: bus, resources: resources, modes: []Mode{{Index: 0}}}
}

// RefreshAvailableModes issues GET_DISPLAY_INFO and rebuilds the mode table
// from whatever scanouts the device currently reports enabled. Index 0
// (text) is always present, followed by one graphics mode per enabled
// scanout in device order, whose Index is that scanout's index + 1.
//
// If the device's config generation counter changes between the start and
// end of the read, the read is retried (the scanout array may have been torn
// by a concurrent hot-plug); a real virtio-gpu driver cannot skip this
// without risking a corrupt mode table.
func (m *ModeManager) RefreshAvailableModes() ([]Mode, error) {
	var info []DisplayInfo
	var err error
	for attempt := 0; attempt < maxConfigGenerationRetries; attempt++ {
		before := m.bus.ConfigGeneration()
		info, err = m.ch.sendDisplayInfo()
		if err != nil {
			return nil, err
		}
		if m.bus.ConfigGeneration() == before {
			break
		}
	}

	modes := []Mode{{Index: 0}}
	for i, s := range info {
		if !s.Enabled {
			continue
		}
		modes = append(modes, Mode{Index: i + 1, Width: s.Rect.Width, Height: s.Rect.Height})
	}
	m.modes = modes
	return append([]Mode(nil), modes...), nil
}

// Modes returns the last-refreshed mode table.
func (m *ModeManager) Modes() []Mode {
	return append([]Mode(nil), m.modes...)
}

// Current returns the active mode index.
func (m *ModeManager) Current() int {
	return m.current
}

// disableScanout tears down the active graphics mode: disable the scanout,
// detach backing, destroy the resource. A no-op when already in text mode.
func (m *ModeManager) disableScanout() error {
	if m.current == 0 {
		return nil
	}
	scanout := SetScanout{Hdr: CtrlHdr{Type: CmdSetScanout}, ScanoutID: m.currentScanout}
	if err := m.ch.sendNoData(scanout.Marshal); err != nil {
		return err
	}
	if m.resources.Has(ScreenRID) {
		if err := m.resources.Destroy(ScreenRID); err != nil {
			return err
		}
	}
	m.current = 0
	return nil
}

// SetMode transitions to mode index k. k=0 returns to text mode, discarding
// any resource bound to the screen. k>=1 selects scanout k-1, which the last
// RefreshAvailableModes call must have reported enabled, and binds backing as its
// guest memory (backing must be at least width*height*4 bytes, RGBA8).
//
// Once the prior graphics mode has been torn down, any failure building the
// new one leaves the driver in text mode (Current()==0) with nothing
// leaked, rather than reverting to whatever graphics mode was active
// before the call.
func (m *ModeManager) SetMode(k int, backing *dma.Region, format uint32) error {
	pos := -1
	for i, md := range m.modes {
		if md.Index == k {
			pos = i
		}
	}
	if pos < 0 {
		return ErrInvalidScanoutIndex
	}
	if k == 0 {
		return m.disableScanout()
	}

	if err := m.disableScanout(); err != nil {
		return err
	}

	mode := m.modes[pos]
	scanoutID := uint32(k - 1)

	if err := m.resources.Create(ScreenRID, format, mode.Width, mode.Height); err != nil {
		return err
	}
	if err := m.resources.AttachBacking(ScreenRID, backing); err != nil {
		m.resources.Destroy(ScreenRID)
		return err
	}
	scanout := SetScanout{
		Hdr:        CtrlHdr{Type: CmdSetScanout},
		Rect:       Rect{X: 0, Y: 0, Width: mode.Width, Height: mode.Height},
		ScanoutID:  scanoutID,
		ResourceID: ScreenRID,
	}
	if err := m.ch.sendNoData(scanout.Marshal); err != nil {
		m.resources.DetachBacking(ScreenRID)
		m.resources.Destroy(ScreenRID)
		return err
	}

	m.current = k
	m.currentScanout = scanoutID
	return nil
}

// The registration surface: the operation set an OS device abstraction
// binds to (gpu.Surface), built on top of Device's lower-level resource,
// mode, and flush managers plus the gpu/fb software framebuffer. Grounded on
// spec.md §3's DeviceState (the owned framebuffer, frame/clip box, text
// snapshot, reserved cursor buffer) and §6's exposed operation list, in the
// style of mazboot/golang/main/virtio_gpu.go's VirtIOGPUDevice, which plays
// the same role against a single hardcoded mode.
package gpu

import (
	"sync"

	"github.com/iansmith/mazvgpu/gpu/fb"
	"github.com/iansmith/mazvgpu/internal/dma"
)

// cursorWidth/cursorHeight are the nominal cursor plane dimensions spec.md
// §3 names for a graphics mode's VideoMode descriptor. This driver never
// creates or binds CursorRID (see DESIGN.md's Open Question decision), so
// the reserved buffer these size is never attached to anything; it exists
// only so a VideoMode's advertised cursor geometry and DeviceState's
// reserved cursor region are both present, matching the data model.
const (
	cursorWidth  = 64
	cursorHeight = 64
)

// VideoMode is either the fixed text mode (ModeData 0) or a graphics mode
// bound to an enabled scanout (ModeData == scanout index + 1).
type VideoMode struct {
	ModeData      uint32
	Width, Height uint32
	// ChannelOffset holds the byte offset of each of the 4 pixel channels,
	// or -1 if the mode has no such channel. Text mode has only two
	// meaningful bytes per cell (char, attribute); graphics mode is RGBA.
	ChannelOffset             [4]int8
	CursorCapable             bool
	CursorWidth, CursorHeight uint32
}

var textMode = VideoMode{
	ModeData:      0,
	Width:         fb.TextCols,
	Height:        fb.TextRows,
	ChannelOffset: [4]int8{0, 1, -1, -1},
}

func graphicsMode(modeData, width, height uint32) VideoMode {
	return VideoMode{
		ModeData:      modeData,
		Width:         width,
		Height:        height,
		ChannelOffset: [4]int8{0, 1, 2, 3},
		CursorCapable: true,
		CursorWidth:   cursorWidth,
		CursorHeight:  cursorHeight,
	}
}

// Surface is the drawing surface an OS display subsystem binds to: mode
// enumeration/switching, the clipped framebuffer, and the drawing
// primitives, all serialized behind one mutex exactly as spec.md §5
// describes ("each device has a spinlock guarding its mode-manager and
// framebuffer state"). Embeds *Device so Resources/Modes/Flush/Interrupts
// remain reachable for callers (and tests) that need the lower layer
// directly; Surface's own Flush method shadows the embedded Device's Flush
// field (the FlushPipeline), which stays reachable as s.Device.Flush.
type Surface struct {
	*Device

	mu sync.Mutex

	modes   []VideoMode
	current VideoMode

	fbuf *fb.Framebuffer // nil in text mode

	textScreen   [fb.TextBufSize]byte
	textSnapshot fb.TextSnapshot
	textCursorX  int
	textCursorY  int

	// cursorBacking is allocated so DeviceState's data model is complete
	// ("a reserved cursor buffer region") but is never attached to
	// CursorRID: cursor support is out of scope (see DESIGN.md).
	cursorBacking *dma.Region
}

// NewSurface wraps dev with the full drawing-surface operation set. The
// surface starts in text mode with an empty (zeroed) text screen.
func NewSurface(dev *Device) *Surface {
	return &Surface{
		Device:        dev,
		modes:         []VideoMode{textMode},
		current:       textMode,
		cursorBacking: dma.Alloc(cursorWidth*cursorHeight*4, 8),
	}
}

// GetAvailableModes refreshes the mode table from the device and fills
// slots (capacity len(slots)) with the text mode followed by up to
// min(len(slots)-1, 15) graphics modes, one per enabled scanout, returning
// the count written. len(slots) must be at least 2, per spec.md §4.3.
func (s *Surface) GetAvailableModes(slots []VideoMode) (int, error) {
	if len(slots) < 2 {
		return 0, ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	managed, err := s.Device.Modes.RefreshAvailableModes()
	if err != nil {
		return 0, err
	}

	modes := make([]VideoMode, 0, len(managed))
	modes = append(modes, textMode)
	for _, m := range managed[1:] {
		if len(modes) >= min(len(slots), 16) {
			break
		}
		modes = append(modes, graphicsMode(uint32(m.Index), m.Width, m.Height))
	}
	s.modes = modes

	n := copy(slots, modes)
	return n, nil
}

// GetMode reports the currently active mode: the VideoMode descriptor the
// surface recorded on its last successful SetMode (text mode initially).
func (s *Surface) GetMode() VideoMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetMode switches to the mode whose ModeData token is modeData (0 for
// text, otherwise a value GetAvailableModes previously returned). Entering
// graphics mode allocates and zero-fills a fresh framebuffer sized to the
// target mode and binds it as the screen resource's backing; entering text
// mode tears that down and restores the last text-mode snapshot. Any
// failure after the prior mode has been torn down leaves the surface in
// text mode with no framebuffer leaked (spec.md §4.3's rollback invariant).
func (s *Surface) SetMode(modeData uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if modeData == s.current.ModeData {
		return nil
	}

	// Capture whatever backing the active graphics mode is using before
	// either branch below tears it down: ModeManager.SetMode detaches and
	// destroys the screen resource but, like the device protocol it
	// speaks, has no notion of guest-side memory ownership, so freeing the
	// DMA region back to the allocator is this layer's job.
	oldBacking := s.Device.Resources.BackingOf(ScreenRID)

	if modeData == 0 {
		if err := s.Device.Modes.SetMode(0, nil, 0); err != nil {
			return err
		}
		oldBacking.Free()
		s.fbuf = nil
		s.textSnapshot.Restore(s.textScreen[:])
		s.current = textMode
		return nil
	}

	var target VideoMode
	found := false
	for _, m := range s.modes {
		if m.ModeData == modeData {
			target, found = m, true
			break
		}
	}
	if !found {
		return ErrInvalidArgument
	}

	if s.current.ModeData == 0 {
		s.textSnapshot.Save(s.textScreen[:])
	}

	backing, err := dma.TryAlloc(int(target.Width)*int(target.Height)*4, 8)
	if err != nil {
		// Nothing has touched the device yet, so there is nothing to
		// unwind beyond staying in the mode this call started in.
		return ErrAllocationFailed
	}

	// ModeManager.SetMode(k!=0) always tears down any existing screen
	// resource as its first step (S_k -> S_m is S_k -> S_0 -> S_m), so the
	// old backing is stale the moment this call is made regardless of
	// whether the rest of the transition succeeds.
	if err := s.Device.Modes.SetMode(int(target.ModeData), backing, FormatR8G8B8A8Unorm); err != nil {
		oldBacking.Free()
		backing.Free()
		s.fbuf = nil
		s.current = textMode
		return err
	}

	oldBacking.Free()
	s.fbuf = fb.New(target.Width, target.Height, backing.Buf)
	s.current = target
	return nil
}

// requireGraphics returns the active framebuffer, or ErrWrongMode if the
// surface is currently in text mode.
func (s *Surface) requireGraphics() (*fb.Framebuffer, error) {
	if s.fbuf == nil {
		return nil, ErrWrongMode
	}
	return s.fbuf, nil
}

// Flush pushes the active framebuffer to the device over its full frame
// box. A no-op in text mode, per spec.md §4.6. Named to shadow the embedded
// FlushPipeline's Flush method, which takes an explicit rect instead of
// always using the full frame (used directly by lower-layer tests/internal
// callers that want a partial-rect transfer).
func (s *Surface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fbuf == nil {
		return nil
	}
	rect := Rect{Width: s.fbuf.Width, Height: s.fbuf.Height}
	return s.Device.Flush.Flush(rect)
}

// TextSetChar writes one character cell (character code, attribute byte) at
// (x, y) into the text screen. Valid only while in text mode; spec.md's
// Non-goals exclude text rendering in graphics mode.
func (s *Surface) TextSetChar(x, y int, ch, attr byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.ModeData != 0 {
		return ErrUnsupported
	}
	if x < 0 || x >= fb.TextCols || y < 0 || y >= fb.TextRows {
		return ErrInvalidArgument
	}
	off := (y*fb.TextCols + x) * 2
	s.textScreen[off] = ch
	s.textScreen[off+1] = attr
	return nil
}

// TextSetCursor records the text-mode cursor position. Valid only in text
// mode; this driver has no hardware text cursor to drive, so the position
// is bookkeeping only (a future console layer reads it back).
func (s *Surface) TextSetCursor(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.ModeData != 0 {
		return ErrUnsupported
	}
	if x < 0 || x >= fb.TextCols || y < 0 || y >= fb.TextRows {
		return ErrInvalidArgument
	}
	s.textCursorX, s.textCursorY = x, y
	return nil
}

// GraphicsSetClippingBox narrows (or, passed nil, resets to the full frame)
// the clipping box drawing primitives respect. Graphics mode only.
func (s *Surface) GraphicsSetClippingBox(box *fb.Rect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.requireGraphics()
	if err != nil {
		return err
	}
	if box == nil {
		return f.SetClippingBox(f.FrameBox())
	}
	return f.SetClippingBox(*box)
}

// GraphicsSetClippingRegion is reserved and unsupported: this engine only
// ever clips to an axis-aligned box (spec.md §4.4).
func (s *Surface) GraphicsSetClippingRegion(points []fb.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.requireGraphics(); err != nil {
		return err
	}
	return s.fbuf.SetClippingRegion(points)
}

// GraphicsDrawPixel is a clipped COPY of color at loc.
func (s *Surface) GraphicsDrawPixel(loc fb.Point, color [4]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.requireGraphics()
	if err != nil {
		return err
	}
	f.DrawPixel(loc.X, loc.Y, color, fb.OpCopy)
	return nil
}

// GraphicsDrawLine draws a is a clipped Bresenham line from a to b inclusive.
func (s *Surface) GraphicsDrawLine(a, b fb.Point, color [4]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.requireGraphics()
	if err != nil {
		return err
	}
	f.DrawLine(int32(a.X), int32(a.Y), int32(b.X), int32(b.Y), color, fb.OpCopy)
	return nil
}

// GraphicsDrawPoly draws a closed polygon through points in order, closing
// back to the first point.
func (s *Surface) GraphicsDrawPoly(points []fb.Point, color [4]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.requireGraphics()
	if err != nil {
		return err
	}
	f.DrawPoly(points, color, fb.OpCopy)
	return nil
}

// GraphicsFillBoxWithPixel blits color into every clipped point of box
// through op.
func (s *Surface) GraphicsFillBoxWithPixel(box fb.Rect, color [4]byte, op fb.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.requireGraphics()
	if err != nil {
		return err
	}
	f.FillBoxWithPixel(box, color, op)
	return nil
}

// GraphicsFillBoxWithBitmap tiles bitmap (tileW x tileH RGBA8 pixels) across
// box through op.
func (s *Surface) GraphicsFillBoxWithBitmap(box fb.Rect, bitmap []byte, tileW, tileH uint32, op fb.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.requireGraphics()
	if err != nil {
		return err
	}
	f.FillBoxWithBitmap(box, bitmap, tileW, tileH, op)
	return nil
}

// GraphicsCopyBox copies srcRect onto dstRect, both within the active
// framebuffer; srcRect tiles via modulo if dstRect is a different size. Not
// overlap-safe (see DESIGN.md's Open Question decision).
func (s *Surface) GraphicsCopyBox(srcRect, dstRect fb.Rect, op fb.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.requireGraphics()
	if err != nil {
		return err
	}
	f.CopyBox(srcRect, dstRect, op)
	return nil
}

// GraphicsDrawText is reserved and unsupported: spec.md's Non-goals exclude
// text rendering in graphics mode.
func (s *Surface) GraphicsDrawText(loc fb.Point, text string, color [4]byte) error {
	return ErrUnsupported
}

// GraphicsSetCursorBitmap is reserved and unsupported: cursor storage exists
// in the data model but this driver never drives a hardware cursor (see
// DESIGN.md's Open Question decision).
func (s *Surface) GraphicsSetCursorBitmap(bitmap []byte) error {
	return ErrUnsupported
}

// GraphicsSetCursor is reserved and unsupported, for the same reason as
// GraphicsSetCursorBitmap.
func (s *Surface) GraphicsSetCursor(loc fb.Point, enabled bool) error {
	return ErrUnsupported
}

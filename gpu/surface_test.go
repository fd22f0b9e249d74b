package gpu

import (
	"testing"

	"github.com/iansmith/mazvgpu/gpu/fb"
)

func TestGetAvailableModesRejectsShortSlots(t *testing.T) {
	dev, _, _ := newTestDevice(t, nil)
	s := NewSurface(dev)
	if _, err := s.GetAvailableModes(make([]VideoMode, 1)); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

// Scenario 1 from spec.md §8: one enabled scanout 0 at 1024x768.
func TestGetAvailableModesScenario(t *testing.T) {
	dev, _, _ := newTestDevice(t, []DisplayInfo{
		{Rect: Rect{Width: 1024, Height: 768}, Enabled: true},
	})
	s := NewSurface(dev)

	slots := make([]VideoMode, 16)
	n, err := s.GetAvailableModes(slots)
	if err != nil {
		t.Fatalf("GetAvailableModes: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected n=2, got %d", n)
	}
	if slots[0].Width != fb.TextCols || slots[0].Height != fb.TextRows {
		t.Fatalf("expected slots[0] to be the 80x25 text mode, got %+v", slots[0])
	}
	if slots[1].Width != 1024 || slots[1].Height != 768 {
		t.Fatalf("expected slots[1] to be 1024x768, got %+v", slots[1])
	}
	if slots[1].ChannelOffset != [4]int8{0, 1, 2, 3} {
		t.Fatalf("expected RGBA channel offsets, got %+v", slots[1].ChannelOffset)
	}
}

func setUpGraphicsSurface(t *testing.T, w, h uint32) *Surface {
	t.Helper()
	dev, _, _ := newTestDevice(t, []DisplayInfo{
		{Rect: Rect{Width: w, Height: h}, Enabled: true},
	})
	s := NewSurface(dev)
	slots := make([]VideoMode, 4)
	if _, err := s.GetAvailableModes(slots); err != nil {
		t.Fatalf("GetAvailableModes: %v", err)
	}
	if err := s.SetMode(slots[1].ModeData); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	return s
}

// Scenario 2 from spec.md §8: pixel draw with clipping.
func TestGraphicsDrawPixelWithClipping(t *testing.T) {
	s := setUpGraphicsSurface(t, 640, 480)

	clip := fb.Rect{X: 10, Y: 10, W: 5, H: 5}
	if err := s.GraphicsSetClippingBox(&clip); err != nil {
		t.Fatalf("GraphicsSetClippingBox: %v", err)
	}

	red := [4]byte{0xFF, 0x00, 0x00, 0xFF}
	if err := s.GraphicsDrawPixel(fb.Point{X: 12, Y: 12}, red); err != nil {
		t.Fatalf("GraphicsDrawPixel(12,12): %v", err)
	}
	if err := s.GraphicsDrawPixel(fb.Point{X: 20, Y: 20}, red); err != nil {
		t.Fatalf("GraphicsDrawPixel(20,20): %v", err)
	}

	idx := s.fbuf.Ptr(12, 12)
	got := s.fbuf.Buf[idx : idx+4]
	want := []byte{0xFF, 0x00, 0x00, 0xFF}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pixel (12,12) byte %d: got 0x%02x want 0x%02x", i, got[i], want[i])
		}
	}

	idx = s.fbuf.Ptr(20, 20)
	for i, b := range s.fbuf.Buf[idx : idx+4] {
		if b != 0 {
			t.Fatalf("expected (20,20) to stay zero outside the clip box, byte %d = 0x%02x", i, b)
		}
	}
}

// Scenario 3 from spec.md §8: a closed 4x4 polygon's perimeter.
func TestGraphicsDrawPolyPerimeter(t *testing.T) {
	s := setUpGraphicsSurface(t, 64, 64)
	white := [4]byte{255, 255, 255, 255}
	points := []fb.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 0, Y: 3}}
	if err := s.GraphicsDrawPoly(points, white); err != nil {
		t.Fatalf("GraphicsDrawPoly: %v", err)
	}
	interior := []fb.Point{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 2}}
	for _, p := range interior {
		idx := s.fbuf.Ptr(p.X, p.Y)
		if s.fbuf.Buf[idx+3] != 0 {
			t.Fatalf("expected interior point %+v to remain untouched", p)
		}
	}
	corners := []fb.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 0, Y: 3}}
	for _, p := range corners {
		idx := s.fbuf.Ptr(p.X, p.Y)
		if s.fbuf.Buf[idx+3] == 0 {
			t.Fatalf("expected corner %+v to be plotted", p)
		}
	}
}

// Scenario 4 from spec.md §8: PLUS saturation through the surface API.
func TestGraphicsFillBoxSaturatesOnPlus(t *testing.T) {
	s := setUpGraphicsSurface(t, 8, 8)
	box := fb.Rect{X: 0, Y: 0, W: 1, H: 1}
	if err := s.GraphicsFillBoxWithPixel(box, [4]byte{200, 0, 0, 0}, fb.OpCopy); err != nil {
		t.Fatalf("FillBoxWithPixel COPY: %v", err)
	}
	if err := s.GraphicsFillBoxWithPixel(box, [4]byte{100, 0, 0, 0}, fb.OpPlus); err != nil {
		t.Fatalf("FillBoxWithPixel PLUS: %v", err)
	}
	if got := s.fbuf.Buf[s.fbuf.Ptr(0, 0)]; got != 255 {
		t.Fatalf("expected saturated R=255, got %d", got)
	}
}

// Scenario 5 from spec.md §8: set-mode rollback on an injected ATTACH_BACKING
// failure, followed by a successful retry.
func TestSetModeRollsBackAndRetrySucceeds(t *testing.T) {
	dev, fg, _ := newTestDevice(t, []DisplayInfo{
		{Rect: Rect{Width: 320, Height: 240}, Enabled: true},
	})
	s := NewSurface(dev)
	slots := make([]VideoMode, 4)
	if _, err := s.GetAvailableModes(slots); err != nil {
		t.Fatalf("GetAvailableModes: %v", err)
	}

	fg.failNextAttach = true
	if err := s.SetMode(slots[1].ModeData); err != ErrDeviceOutOfMemory {
		t.Fatalf("expected ErrDeviceOutOfMemory, got %v", err)
	}
	if s.GetMode().ModeData != 0 {
		t.Fatalf("expected rollback to text mode, got %+v", s.GetMode())
	}
	if s.fbuf != nil {
		t.Fatalf("expected no framebuffer after a failed SetMode")
	}

	if err := s.SetMode(slots[1].ModeData); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if s.GetMode().ModeData != slots[1].ModeData {
		t.Fatalf("expected graphics mode after retry, got %+v", s.GetMode())
	}
}

// Scenario 6 from spec.md §8: exactly two transactions on flush.
func TestSurfaceFlushSequencing(t *testing.T) {
	dev, _, bus := newTestDevice(t, []DisplayInfo{
		{Rect: Rect{Width: 320, Height: 240}, Enabled: true},
	})
	s := NewSurface(dev)
	slots := make([]VideoMode, 4)
	if _, err := s.GetAvailableModes(slots); err != nil {
		t.Fatalf("GetAvailableModes: %v", err)
	}
	if err := s.SetMode(slots[1].ModeData); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	before := bus.NotifyCount
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := bus.NotifyCount - before; got != 2 {
		t.Fatalf("expected exactly 2 transactions, got %d", got)
	}
}

func TestFlushIsNoOpInTextMode(t *testing.T) {
	dev, _, bus := newTestDevice(t, nil)
	s := NewSurface(dev)
	before := bus.NotifyCount
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if bus.NotifyCount != before {
		t.Fatalf("expected no transactions in text mode")
	}
}

func TestTextSetCharRoundTripsThroughModeSwitch(t *testing.T) {
	dev, _, _ := newTestDevice(t, []DisplayInfo{
		{Rect: Rect{Width: 320, Height: 240}, Enabled: true},
	})
	s := NewSurface(dev)

	if err := s.TextSetChar(0, 0, 'A', 0x07); err != nil {
		t.Fatalf("TextSetChar: %v", err)
	}
	if err := s.TextSetChar(80, 0, 'B', 0x07); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for out-of-range column, got %v", err)
	}

	slots := make([]VideoMode, 4)
	if _, err := s.GetAvailableModes(slots); err != nil {
		t.Fatalf("GetAvailableModes: %v", err)
	}
	if err := s.SetMode(slots[1].ModeData); err != nil {
		t.Fatalf("SetMode(graphics): %v", err)
	}
	if err := s.TextSetChar(0, 0, 'C', 0x07); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported while in graphics mode, got %v", err)
	}

	if err := s.SetMode(0); err != nil {
		t.Fatalf("SetMode(text): %v", err)
	}
	if s.textScreen[0] != 'A' || s.textScreen[1] != 0x07 {
		t.Fatalf("expected the text snapshot to survive the round trip, got %v", s.textScreen[:2])
	}
}

func TestGraphicsOpsFailInTextMode(t *testing.T) {
	dev, _, _ := newTestDevice(t, nil)
	s := NewSurface(dev)

	if err := s.GraphicsDrawPixel(fb.Point{}, [4]byte{}); err != ErrWrongMode {
		t.Fatalf("expected ErrWrongMode, got %v", err)
	}
	if err := s.GraphicsSetClippingBox(nil); err != ErrWrongMode {
		t.Fatalf("expected ErrWrongMode, got %v", err)
	}
}

func TestReservedOpsAreUnsupported(t *testing.T) {
	s := setUpGraphicsSurface(t, 64, 64)
	if err := s.GraphicsDrawText(fb.Point{}, "hi", [4]byte{}); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := s.GraphicsSetCursorBitmap(nil); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := s.GraphicsSetCursor(fb.Point{}, true); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := s.GraphicsSetClippingRegion([]fb.Point{{X: 0, Y: 0}}); err != fb.ErrUnsupportedClipRegion {
		t.Fatalf("expected fb.ErrUnsupportedClipRegion, got %v", err)
	}
}

func TestSetModeIdempotentOnSameMode(t *testing.T) {
	dev, _, _ := newTestDevice(t, nil)
	s := NewSurface(dev)
	if err := s.SetMode(0); err != nil {
		t.Fatalf("first SetMode(0): %v", err)
	}
	if err := s.SetMode(0); err != nil {
		t.Fatalf("second SetMode(0): %v", err)
	}
	if s.GetMode().ModeData != 0 {
		t.Fatalf("expected to remain in text mode")
	}
}

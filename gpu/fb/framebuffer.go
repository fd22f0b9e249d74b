// Package fb is the in-memory framebuffer and clipped drawing engine that
// sits behind a virtio-gpu resource's backing memory: a row-major RGBA8
// pixel buffer, a clipping box that always stays inside the frame's bounds,
// and the blit/primitive operations that draw into it.
//
// Pixel addressing and the bounds-checked write path are grounded on
// src/go/mazarin/framebuffer_text.go's WritePixel/WritePixelAlpha; the
// clipping-box model and the multi-op blit are this driver's own addition
// over that (the source it's grounded on only ever copies with alpha
// blending), built in the same no-fmt, bounds-checked style.
package fb

import "errors"

var (
	// ErrClipOutOfBounds is returned when SetClippingBox is asked for a box
	// that is not fully contained in the frame's bounding box.
	ErrClipOutOfBounds = errors.New("fb: clipping box must be contained in the frame box")

	// ErrUnsupportedClipRegion is returned by SetClippingRegion: this engine
	// only ever clips to an axis-aligned box, never an arbitrary region.
	ErrUnsupportedClipRegion = errors.New("fb: non-rectangular clipping regions are not supported")
)

// Rect is an axis-aligned rectangle in framebuffer pixel coordinates.
type Rect struct {
	X, Y, W, H uint32
}

// Contains reports whether other is fully inside r.
func (r Rect) Contains(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.X+other.W <= r.X+r.W && other.Y+other.H <= r.Y+r.H
}

// ContainsPoint reports whether (x, y) is inside r.
func (r Rect) ContainsPoint(x, y uint32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Point is a pixel coordinate.
type Point struct {
	X, Y uint32
}

// Framebuffer is a row-major RGBA8 pixel buffer with a clipping box. Buf
// must be exactly width*height*4 bytes, matching the backing memory a
// RESOURCE_CREATE_2D/RESOURCE_ATTACH_BACKING pair binds on the device side.
type Framebuffer struct {
	Buf           []byte
	Width, Height uint32
	clip          Rect
}

// New wraps buf as a width x height framebuffer. The clipping box starts
// equal to the full frame box.
func New(width, height uint32, buf []byte) *Framebuffer {
	return &Framebuffer{
		Buf:    buf,
		Width:  width,
		Height: height,
		clip:   Rect{0, 0, width, height},
	}
}

// FrameBox returns the framebuffer's full bounding box.
func (f *Framebuffer) FrameBox() Rect {
	return Rect{0, 0, f.Width, f.Height}
}

// ClippingBox returns the current clipping box.
func (f *Framebuffer) ClippingBox() Rect {
	return f.clip
}

// SetClippingBox narrows (or resets) the clipping box. It must stay inside
// the frame box; ErrClipOutOfBounds otherwise, leaving the prior clip in
// place.
func (f *Framebuffer) SetClippingBox(r Rect) error {
	if !f.FrameBox().Contains(r) {
		return ErrClipOutOfBounds
	}
	f.clip = r
	return nil
}

// SetClippingRegion would install an arbitrary (non-rectangular) clip
// region. This engine's clipping model is box-only, so this always fails;
// it exists as a named, documented non-goal rather than a silently-ignored
// call.
func (f *Framebuffer) SetClippingRegion(points []Point) error {
	return ErrUnsupportedClipRegion
}

// Ptr returns the byte offset of pixel (x, y) in Buf. Grounded on
// src/go/mazarin/framebuffer_text.go's WritePixel offset arithmetic.
func (f *Framebuffer) Ptr(x, y uint32) int {
	return int((y*f.Width + x) * 4)
}

// InClip reports whether (x, y) is inside both the clipping box and the
// frame's own bounds.
func (f *Framebuffer) InClip(x, y uint32) bool {
	return f.clip.ContainsPoint(x, y) && f.FrameBox().ContainsPoint(x, y)
}

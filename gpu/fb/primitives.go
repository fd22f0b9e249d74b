package fb

// DrawPixel blits color into (x, y) if it is inside the clipping box;
// points outside are silently skipped rather than erroring, since every
// other primitive here is built out of many individual pixel writes and a
// clipped line or polygon is expected to cross the clip edge routinely.
func (f *Framebuffer) DrawPixel(x, y uint32, color [4]byte, op Op) {
	if !f.InClip(x, y) {
		return
	}
	BlitPixel(f.Buf, f.Ptr(x, y), color, op)
}

// DrawLine draws a clipped line from (x0, y0) to (x1, y1) using Bresenham's
// algorithm, grounded on the integer-only, no-floating-point style
// src/go/mazarin's bare-metal drawing code uses throughout.
func (f *Framebuffer) DrawLine(x0, y0, x1, y1 int32, color [4]byte, op Op) {
	dx := abs32(x1 - x0)
	dy := -abs32(y1 - y0)
	sx := int32(1)
	if x0 > x1 {
		sx = -1
	}
	sy := int32(1)
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for {
		if x >= 0 && y >= 0 {
			f.DrawPixel(uint32(x), uint32(y), color, op)
		}
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// DrawPoly draws a closed polygon: a line between each consecutive pair of
// points, plus a closing segment from the last point back to the first.
// Fewer than 2 points draws nothing.
func (f *Framebuffer) DrawPoly(points []Point, color [4]byte, op Op) {
	if len(points) < 2 {
		return
	}
	for i := 0; i < len(points); i++ {
		a := points[i]
		b := points[(i+1)%len(points)]
		f.DrawLine(int32(a.X), int32(a.Y), int32(b.X), int32(b.Y), color, op)
	}
}

// FillBoxWithPixel blits color into every point of rect that is inside the
// clipping box.
func (f *Framebuffer) FillBoxWithPixel(rect Rect, color [4]byte, op Op) {
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			f.DrawPixel(x, y, color, op)
		}
	}
}

// FillBoxWithBitmap tiles an RGBA8 bitmap of tileW x tileH pixels across
// rect, wrapping the tile at its own edges, clipped the same as any other
// primitive.
func (f *Framebuffer) FillBoxWithBitmap(rect Rect, bitmap []byte, tileW, tileH uint32, op Op) {
	if tileW == 0 || tileH == 0 {
		return
	}
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		ty := (y - rect.Y) % tileH
		for x := rect.X; x < rect.X+rect.W; x++ {
			tx := (x - rect.X) % tileW
			idx := int((ty*tileW + tx) * 4)
			var px [4]byte
			copy(px[:], bitmap[idx:idx+4])
			f.DrawPixel(x, y, px, op)
		}
	}
}

// CopyBox copies srcRect onto dstRect, both within this framebuffer. It
// iterates dstRect and tiles srcRect via modulo wherever the two rects
// differ in size, matching fill_box_with_bitmap's tiling convention. It
// copies row by row in ascending (x, y) order and is not safe against
// overlapping source and destination rects where the destination is ahead
// of the source in scan order (see DESIGN.md's Open Question decision) —
// callers that need an overlap-safe copy must stage through a second buffer
// themselves.
func (f *Framebuffer) CopyBox(srcRect, dstRect Rect, op Op) {
	if srcRect.W == 0 || srcRect.H == 0 {
		return
	}
	for row := uint32(0); row < dstRect.H; row++ {
		sy := srcRect.Y + row%srcRect.H
		dy := dstRect.Y + row
		for col := uint32(0); col < dstRect.W; col++ {
			sx := srcRect.X + col%srcRect.W
			dx := dstRect.X + col
			if !f.FrameBox().ContainsPoint(sx, sy) {
				continue
			}
			sIdx := f.Ptr(sx, sy)
			var px [4]byte
			copy(px[:], f.Buf[sIdx:sIdx+4])
			f.DrawPixel(dx, dy, px, op)
		}
	}
}

package fb

// Text-mode geometry: an 80x25 character grid, 2 bytes per cell (character
// code + attribute byte), the VGA text-mode convention this driver's text
// state models.
const (
	TextCols     = 80
	TextRows     = 25
	textCellSize = 2
	TextBufSize  = TextCols * TextRows * textCellSize
)

// TextSnapshot holds a saved copy of the text-mode screen buffer, taken
// before switching into a graphics mode and restored when switching back to
// text mode, so returning to text mode does not lose whatever was on screen.
type TextSnapshot struct {
	cells [TextBufSize]byte
	saved bool
}

// Save copies src (which must be exactly TextBufSize bytes) into the
// snapshot.
func (s *TextSnapshot) Save(src []byte) {
	copy(s.cells[:], src)
	s.saved = true
}

// Restore copies the snapshot into dst (which must be exactly TextBufSize
// bytes). It is a no-op if nothing has been saved yet.
func (s *TextSnapshot) Restore(dst []byte) {
	if !s.saved {
		return
	}
	copy(dst, s.cells[:])
}

// HasSnapshot reports whether Save has been called at least once.
func (s *TextSnapshot) HasSnapshot() bool {
	return s.saved
}

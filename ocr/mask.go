package ocr

// Mask is a page-sized grid of 1-point cells used to track which regions of
// a page still carry potentially-visible text. A cell is 1 if the page has
// text there that must be left alone (OCR must not write over it and the
// aggressive cleaner must not treat it as removable); 0 means the region is
// free for OCR.
//
// Grounded directly on the Python implementation's numpy-backed Mask: rect
// bounds are rounded to the nearest integer and the upper bound is
// inclusive (mirrors `self.mask[round(x0):round(x1)+1, round(y0):round(y1)+1]`),
// so a rectangle that lands exactly on a cell boundary still marks that
// boundary cell.
type Mask struct {
	width, height int
	cells         [][]bool // cells[x][y]
}

// NewMask allocates a mask sized to the given page rectangle (its origin is
// assumed to be (0,0); width/height are rounded to the nearest integer).
func NewMask(pageRect Rectangle) *Mask {
	w := roundInt(pageRect.Width())
	h := roundInt(pageRect.Height())
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	cells := make([][]bool, w)
	for i := range cells {
		cells[i] = make([]bool, h)
	}
	return &Mask{width: w, height: h, cells: cells}
}

func roundInt(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

// bounds clamps a rectangle's rounded, +1-inclusive span to the mask grid.
func (m *Mask) bounds(r Rectangle) (x0, x1, y0, y1 int) {
	x0 = roundInt(r.X0)
	x1 = roundInt(r.X1) + 1
	y0 = roundInt(r.Y0)
	y1 = roundInt(r.Y1) + 1
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > m.width {
		x1 = m.width
	}
	if y1 > m.height {
		y1 = m.height
	}
	return x0, x1, y0, y1
}

// AddRect marks every cell under rect as occupied.
func (m *Mask) AddRect(rect Rectangle) {
	x0, x1, y0, y1 := m.bounds(rect)
	for x := x0; x < x1; x++ {
		for y := y0; y < y1; y++ {
			m.cells[x][y] = true
		}
	}
}

// RemoveRect clears every cell under rect.
func (m *Mask) RemoveRect(rect Rectangle) {
	x0, x1, y0, y1 := m.bounds(rect)
	for x := x0; x < x1; x++ {
		for y := y0; y < y1; y++ {
			m.cells[x][y] = false
		}
	}
}

// Intersects reports whether any cell under rect is occupied.
func (m *Mask) Intersects(rect Rectangle) bool {
	x0, x1, y0, y1 := m.bounds(rect)
	for x := x0; x < x1; x++ {
		for y := y0; y < y1; y++ {
			if m.cells[x][y] {
				return true
			}
		}
	}
	return false
}

// CoverageRatio returns the fraction of rect's cells that are occupied, in
// [0,1]. A rect entirely outside the mask bounds has ratio 0.
func (m *Mask) CoverageRatio(rect Rectangle) float64 {
	x0, x1, y0, y1 := m.bounds(rect)
	total := (x1 - x0) * (y1 - y0)
	if total <= 0 {
		return 0
	}
	occupied := 0
	for x := x0; x < x1; x++ {
		for y := y0; y < y1; y++ {
			if m.cells[x][y] {
				occupied++
			}
		}
	}
	return float64(occupied) / float64(total)
}

// Width returns the mask's grid width in cells (one per page point).
func (m *Mask) Width() int { return m.width }

// Height returns the mask's grid height in cells (one per page point).
func (m *Mask) Height() int { return m.height }

// Package cliptile splits an oversized page into overlapping OCR-sized tiles
// and de-duplicates lines recovered from separate tiles. Grounded on
// original_source/ocr/textract.py's clip_rects/combine_text_lines, per
// spec.md §4.8-4.9.
package cliptile

import (
	"github.com/geopdf/scanocr/ocr"
)

// MaxDimensionPoints is the per-axis size above which a page must be tiled
// for OCR submission.
const MaxDimensionPoints = 2000

// overlap is MAX_DIMENSION_POINTS / 5, the required minimum overlap between
// adjacent tiles.
const overlap = MaxDimensionPoints / 5

// overlapCoverageThreshold is the Line De-duplication coverage fraction: a
// line from one tile is dropped if another tile's line covers ≥ this much of
// its area.
const overlapCoverageThreshold = 0.6

// Plan returns the list of clip rects to submit for OCR: just mainRect if it
// fits within MaxDimensionPoints on both axes, otherwise mainRect followed by
// overlapping MaxDimensionPoints-square tiles (each intersected with
// mainRect), per spec.md §4.8's Testable Property 4 (first element is the
// full rect; every subsequent tile is contained in it; overlap ≥ MAX/5).
func Plan(mainRect ocr.Rectangle) []ocr.Rectangle {
	if mainRect.Width() <= MaxDimensionPoints && mainRect.Height() <= MaxDimensionPoints {
		return []ocr.Rectangle{mainRect}
	}

	step := MaxDimensionPoints - overlap
	xStarts := starts(mainRect.Width(), step)
	yStarts := starts(mainRect.Height(), step)

	rects := []ocr.Rectangle{mainRect}
	for _, x0 := range xStarts {
		for _, y0 := range yStarts {
			tile := ocr.NewRectangle(
				mainRect.X0+x0, mainRect.Y0+y0,
				mainRect.X0+x0+MaxDimensionPoints, mainRect.Y0+y0+MaxDimensionPoints,
			)
			rects = append(rects, mainRect.Intersection(tile))
		}
	}
	return rects
}

// starts returns 0, step, 2*step, ... while strictly less than extent-overlap,
// matching Python's range(0, int(extent - overlap), step).
func starts(extent float64, step int) []int {
	limit := int(extent) - overlap
	var out []int
	for x := 0; x < limit; x += step {
		out = append(out, x)
	}
	return out
}

// Combine merges lines recovered from two tiles (a's survivors come first in
// the result, per spec.md §5's "tile 0 takes priority" ordering guarantee):
// a line of a survives unless ≥60% of its area is covered by some line of b;
// a line of b survives unless ≥60% of its area is covered by a surviving
// line of a. Grounded on combine_text_lines/not_covered_in.
func Combine(a, b []ocr.TextLine) []ocr.TextLine {
	kept := make([]ocr.TextLine, 0, len(a)+len(b))
	for _, line := range a {
		if !coveredBy(line, b) {
			kept = append(kept, line)
		}
	}
	for _, line := range b {
		if !coveredBy(line, kept) {
			kept = append(kept, line)
		}
	}
	return kept
}

func coveredBy(line ocr.TextLine, others []ocr.TextLine) bool {
	area := line.Rect.Area()
	if area <= 0 {
		return false
	}
	for _, other := range others {
		if other.Rect.Intersection(line.Rect).Area() >= overlapCoverageThreshold*area {
			return true
		}
	}
	return false
}

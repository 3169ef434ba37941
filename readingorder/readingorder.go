// Package readingorder assigns OCR-detected lines to reading-order blocks
// and orders them, implementing spec.md §4.10's column-tracking algorithm
// directly (not a topological sort: needsToComeBefore is irreflexive but not
// a strict partial order, and the algorithm is a local greedy loop that must
// terminate even when the relation cycles among the remaining candidates —
// see pickHead's shrinking-candidate-set loop and Testable Property 6).
package readingorder

import "github.com/geopdf/scanocr/ocr"

const (
	// columnPaddingFraction is the horizontal tolerance (as a fraction of
	// column width) a column-extending candidate may spill outside the
	// column's current rect.
	columnPaddingFraction = 0.10
	// columnOverlapFraction is the minimum fraction of a candidate line's
	// width that must overlap the column horizontally for it to extend it.
	columnOverlapFraction = 0.80
	// extensionWidthFraction is the minimum fraction of the column's current
	// width an earlier block line must overlap to remain folded into the
	// column when computing it backward from the block's last line.
	extensionWidthFraction = 0.80
	// distanceAfterThreshold is the corner-distance cutoff (in points) for
	// the non-column "close enough" continuation fallback.
	distanceAfterThreshold = 20.0
)

// Sort groups lines into ReadingOrderBlock values and orders them, per
// spec.md §4.10.
func Sort(lines []ocr.TextLine) []ocr.ReadingOrderBlock {
	isUnassigned := make([]bool, len(lines))
	for i := range isUnassigned {
		isUnassigned[i] = true
	}

	var blocks []ocr.ReadingOrderBlock
	for hasUnassigned(isUnassigned) {
		blockIdx := []int{pickHead(lines, isUnassigned)}
		isUnassigned[blockIdx[0]] = false

		for {
			column := computeColumn(lines, blockIdx, isUnassigned)
			next, ok := pickColumnExtender(lines, isUnassigned, column)
			if !ok {
				next, ok = pickByDistance(lines, isUnassigned, lines[blockIdx[len(blockIdx)-1]])
			}
			if !ok {
				break
			}
			if anyMustComeBefore(lines, isUnassigned, next, lines[next]) {
				// Step 5: some other still-unassigned line must precede the
				// candidate next-line; close the block instead of accepting
				// it out of order.
				break
			}
			blockIdx = append(blockIdx, next)
			isUnassigned[next] = false
		}

		blockLines := make([]ocr.TextLine, len(blockIdx))
		for i, idx := range blockIdx {
			blockLines[i] = lines[idx]
		}
		blocks = append(blocks, ocr.NewReadingOrderBlock(blockLines))
	}
	return blocks
}

// needsToComeBefore reports whether a must be read before b, per spec.md
// §4.10's three-clause definition (top-left-of-center, horizontal
// full-rect/half-plane test, and its vertical dual).
func needsToComeBefore(a, b ocr.TextLine) bool {
	ac, bc := a.Rect.Center(), b.Rect.Center()
	if (ac.X < bc.X && ac.Y <= bc.Y) || (ac.X <= bc.X && ac.Y < bc.Y) {
		return true
	}
	if ac.X < b.Rect.X0 && (ac.Y < b.Rect.Y1 || a.Rect.Y0 < bc.Y) {
		return true
	}
	if ac.Y < b.Rect.Y0 && (ac.X < b.Rect.X1 || a.Rect.X0 < bc.X) {
		return true
	}
	return false
}

func pickHead(lines []ocr.TextLine, isUnassigned []bool) int {
	candidates := unassignedIndices(isUnassigned)
	current := argminSortKey(lines, candidates)
	for {
		var preds []int
		for _, i := range candidates {
			if i == current {
				continue
			}
			if needsToComeBefore(lines[i], lines[current]) {
				preds = append(preds, i)
			}
		}
		if len(preds) == 0 {
			return current
		}
		// preds excludes current and is a subset of candidates, so this set
		// strictly shrinks every iteration — the loop terminates even when
		// needs_to_come_before cycles among the remaining lines.
		candidates = preds
		current = argminSortKey(lines, candidates)
	}
}

// computeColumn derives the current column from the block built so far,
// walking backward from the most recently accepted line and folding in
// earlier lines while they still horizontally overlap the column by at
// least extensionWidthFraction and don't trap an unassigned line between
// the tentative new top and the block's last line.
func computeColumn(lines []ocr.TextLine, blockIdx []int, isUnassigned []bool) ocr.Column {
	last := lines[blockIdx[len(blockIdx)-1]]
	col := ocr.Column{
		Rect:              last.Rect,
		BottomOfFirstLine: last.Rect.Y1,
		TopOfLastLine:     last.Rect.Y0,
	}

	for i := len(blockIdx) - 2; i >= 0; i-- {
		cand := lines[blockIdx[i]]
		tentativeRect := col.Rect.Union(cand.Rect)
		tentativeBottomOfFirst := cand.Rect.Y1

		trapped := false
		for j, u := range isUnassigned {
			if !u {
				continue
			}
			other := lines[j]
			if !tentativeRect.Intersects(other.Rect) {
				continue
			}
			cy := other.Rect.Center().Y
			if cy > tentativeBottomOfFirst && cy < col.TopOfLastLine {
				trapped = true
				break
			}
		}
		if trapped {
			break
		}

		overlapWidth := overlapLen(cand.Rect.X0, cand.Rect.X1, col.Rect.X0, col.Rect.X1)
		if overlapWidth < extensionWidthFraction*col.Rect.Width() {
			break
		}

		col.Rect = tentativeRect
		col.BottomOfFirstLine = tentativeBottomOfFirst
	}
	return col
}

// pickColumnExtender implements spec.md §4.10 step 3: find unassigned lines
// that extend the column downward, preferring the topmost, tie-broken
// leftward among those that must precede it.
func pickColumnExtender(lines []ocr.TextLine, isUnassigned []bool, col ocr.Column) (int, bool) {
	columnHeight := col.Rect.Height()
	padding := columnPaddingFraction * col.Rect.Width()

	var candidates []int
	for i, u := range isUnassigned {
		if !u {
			continue
		}
		cand := lines[i]
		cy := cand.Rect.Center().Y
		if cy <= col.TopOfLastLine {
			continue
		}
		if cy-col.TopOfLastLine > columnHeight {
			continue
		}
		if cand.Rect.X0 < col.Rect.X0-padding || cand.Rect.X1 > col.Rect.X1+padding {
			continue
		}
		overlapWidth := overlapLen(cand.Rect.X0, cand.Rect.X1, col.Rect.X0, col.Rect.X1)
		if overlapWidth < columnOverlapFraction*cand.Rect.Width() {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return 0, false
	}

	topmost := argminTop(lines, candidates)
	var mustPrecedeTopmost []int
	for _, i := range candidates {
		if i == topmost {
			continue
		}
		if needsToComeBefore(lines[i], lines[topmost]) {
			mustPrecedeTopmost = append(mustPrecedeTopmost, i)
		}
	}
	if len(mustPrecedeTopmost) > 0 {
		return argminLeft(lines, mustPrecedeTopmost), true
	}
	return topmost, true
}

// pickByDistance implements spec.md §4.10 step 4: the closest-by-corner-
// distance fallback for when no column extender exists.
func pickByDistance(lines []ocr.TextLine, isUnassigned []bool, current ocr.TextLine) (int, bool) {
	var candidates []int
	for i, u := range isUnassigned {
		if !u {
			continue
		}
		if distanceAfter(current, lines[i]) < distanceAfterThreshold {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return argminTop(lines, candidates), true
}

// distanceAfter is the minimum of the three corner-to-corner distances
// (left, center, right) between current's bottom edge and candidate's top
// edge.
func distanceAfter(current, candidate ocr.TextLine) float64 {
	left := current.Rect.BottomLeft().Distance(candidate.Rect.TopLeft())
	center := ocr.Point{X: (current.Rect.X0 + current.Rect.X1) / 2, Y: current.Rect.Y1}.
		Distance(ocr.Point{X: (candidate.Rect.X0 + candidate.Rect.X1) / 2, Y: candidate.Rect.Y0})
	right := current.Rect.BottomRight().Distance(candidate.Rect.TopRight())
	return minOf3(left, center, right)
}

func anyMustComeBefore(lines []ocr.TextLine, isUnassigned []bool, exclude int, target ocr.TextLine) bool {
	for i, u := range isUnassigned {
		if !u || i == exclude {
			continue
		}
		if needsToComeBefore(lines[i], target) {
			return true
		}
	}
	return false
}

func overlapLen(a0, a1, b0, b1 float64) float64 {
	lo := a0
	if b0 > lo {
		lo = b0
	}
	hi := a1
	if b1 < hi {
		hi = b1
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func minOf3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func hasUnassigned(isUnassigned []bool) bool {
	for _, u := range isUnassigned {
		if u {
			return true
		}
	}
	return false
}

func unassignedIndices(isUnassigned []bool) []int {
	var out []int
	for i, u := range isUnassigned {
		if u {
			out = append(out, i)
		}
	}
	return out
}

func argminSortKey(lines []ocr.TextLine, candidates []int) int {
	best := candidates[0]
	for _, i := range candidates[1:] {
		if lines[i].SortKey() < lines[best].SortKey() {
			best = i
		}
	}
	return best
}

func argminTop(lines []ocr.TextLine, candidates []int) int {
	best := candidates[0]
	for _, i := range candidates[1:] {
		if lines[i].Rect.Y0 < lines[best].Rect.Y0 {
			best = i
		}
	}
	return best
}

func argminLeft(lines []ocr.TextLine, candidates []int) int {
	best := candidates[0]
	for _, i := range candidates[1:] {
		if lines[i].Rect.X0 < lines[best].Rect.X0 {
			best = i
		}
	}
	return best
}

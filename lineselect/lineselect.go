// Package lineselect chooses which OCR-detected lines are drawn onto the
// page overlay, applying spec.md §4.11's per-block confidence policy and an
// optional mask filter. Grounded on
// original_source/ocr/applyocr.py's get_ocr_lines (the confidence-threshold
// halves and the mask-intersection drop rule).
package lineselect

import "github.com/geopdf/scanocr/ocr"

// Select walks reading-order-sorted blocks and returns the lines to draw.
// mask is nil on the standard (non-aggressive) cleaning path, where spec.md
// §4.11 says lines are not mask-filtered — only the ignore-text redactions
// already applied by the cleaner matter there.
func Select(blocks []ocr.ReadingOrderBlock, confidenceThreshold float64, mask *ocr.Mask) []ocr.TextLine {
	var out []ocr.TextLine
	for _, block := range blocks {
		if len(block.Lines) == 0 {
			continue
		}
		threshold := lineConfidenceThreshold(block, confidenceThreshold)
		for _, line := range block.Lines {
			if line.Confidence <= threshold {
				continue
			}
			if mask != nil && mask.Intersects(line.Rect) {
				continue
			}
			out = append(out, line)
		}
	}
	return out
}

// lineConfidenceThreshold implements spec.md §4.11: a block whose average
// line confidence is below the global threshold requires individual lines
// to clear the stricter midpoint between the threshold and 1; otherwise any
// line above half the block's average survives.
func lineConfidenceThreshold(block ocr.ReadingOrderBlock, confidenceThreshold float64) float64 {
	var sum float64
	for _, line := range block.Lines {
		sum += line.Confidence
	}
	avg := sum / float64(len(block.Lines))
	if avg < confidenceThreshold {
		return (1 + confidenceThreshold) / 2
	}
	return avg / 2
}

package pipeline

import (
	"context"
	"fmt"

	"github.com/geopdf/scanocr/internal/xlog"
	"github.com/geopdf/scanocr/ocr"
	"github.com/geopdf/scanocr/ocrprovider"
	"github.com/geopdf/scanocr/pdfdoc"
)

// minVerticalTextRunes is get_ocr_lines' len(text) > 2 threshold for
// considering a height>width line a vertical-text candidate rather than
// noise.
const minVerticalTextRunes = 2

// isVerticalLine mirrors get_ocr_lines' per-line vertical-text detection:
// a derotated box taller than it is wide, with enough text to be real.
func isVerticalLine(l ocr.TextLine) bool {
	r := l.DerotatedRect
	return r.Height() > r.Width() && len([]rune(l.Text)) > minVerticalTextRunes
}

// applyVerticalCheck re-OCRs any vertical-text lines found within region by
// painting the areas of the kept (horizontal) lines white and resubmitting
// the region rotated 90 degrees, then merges the rotated result back in place
// of the original vertical-looking lines. Grounded on OCR.apply_vertical_check.
func applyVerticalCheck(ctx context.Context, client *ocrprovider.Client, reqDoc *pdfdoc.Document, pageRect, region ocr.Rectangle, lines []ocr.TextLine, confidenceThreshold float64) ([]ocr.TextLine, error) {
	var verticalRects []ocr.Rectangle
	var kept []ocr.TextLine
	for _, l := range lines {
		if isVerticalLine(l) {
			verticalRects = append(verticalRects, l.Rect)
			continue
		}
		kept = append(kept, l)
	}
	if len(verticalRects) == 0 {
		return lines, nil
	}
	xlog.Printf("  Vertical text workaround: %d candidate lines", len(verticalRects))

	var keptRects []ocr.Rectangle
	for _, l := range kept {
		keptRects = append(keptRects, l.Rect)
	}
	if err := paintWhite(reqDoc, keptRects); err != nil {
		return nil, err
	}

	rotated, err := ocrRegion(ctx, client, reqDoc, pageRect, region, 90)
	if err != nil {
		return nil, err
	}

	// Drop anything the rotated pass itself still reports as vertical —
	// get_ocr_lines' own loop only accepts the rotated pass's horizontal
	// lines, discarding a second round of false positives rather than
	// recursing.
	for _, l := range rotated {
		if isVerticalLine(l) {
			continue
		}
		if l.Confidence <= confidenceThreshold {
			continue
		}
		kept = append(kept, l)
	}
	return kept, nil
}

// paintWhite overlays opaque white rectangles over rects on reqDoc's single
// page, so a follow-up OCR pass over the same page doesn't see the
// already-consumed (kept horizontal) text again. Grounded on
// OCR.apply_vertical_check's page.draw_rect(fill=white) calls, reusing
// AppendOverlayContent as the raw-content-stream primitive rather than
// inventing a dedicated masking entry point.
func paintWhite(doc *pdfdoc.Document, rects []ocr.Rectangle) error {
	page, err := doc.Page(1)
	if err != nil {
		return err
	}
	var buf []byte
	buf = append(buf, "q 1 1 1 rg\n"...)
	for _, r := range rects {
		buf = append(buf, []byte(fmt.Sprintf("%.2f %.2f %.2f %.2f re f\n", r.X0, r.Y0, r.Width(), r.Height()))...)
	}
	buf = append(buf, "Q\n"...)
	return page.AppendOverlayContent(buf)
}

// Package pipeline wires the per-page pieces (request builder, tiling,
// provider invocation, geometry, reading order, selection, overlay) into
// the document-level OCR Invoker flow of spec.md, and restores the
// double-page/vertical-text supplemented features from
// original_source/ocr/applyocr.py. Named pipeline, not ocr, to avoid
// colliding with the shared geometry/types package.
package pipeline

import (
	"context"

	"github.com/geopdf/scanocr/cliptile"
	"github.com/geopdf/scanocr/geomxform"
	"github.com/geopdf/scanocr/internal/xlog"
	"github.com/geopdf/scanocr/ocr"
	"github.com/geopdf/scanocr/ocrprovider"
	"github.com/geopdf/scanocr/pdfdoc"
)

// ocrClipRect submits one already-tiled clip rect of the request document
// to the provider and converts its response into page-space TextLines.
func ocrClipRect(ctx context.Context, client *ocrprovider.Client, reqDoc *pdfdoc.Document, pageRect ocr.Rectangle, clip ocr.Rectangle, rotateDegrees int) ([]ocr.TextLine, error) {
	respDoc, err := client.Invoke(ctx, reqDoc, clip, rotateDegrees)
	if err != nil {
		return nil, err
	}
	if respDoc == nil || len(respDoc.Pages) == 0 {
		return nil, nil
	}

	transform := geomxform.ClipTransform(clip, float64(rotateDegrees))
	orientation := geomxform.PageOrientation(respDoc)

	var lines []ocr.TextLine
	for _, line := range respDoc.Pages[0].Lines {
		lines = append(lines, geomxform.BuildTextLine(line, orientation, transform, pageRect.Height()))
	}
	return lines, nil
}

// ocrRegion submits clipRect (planned into MaxDimensionPoints-sized tiles as
// needed) and combines the tiles' lines, per spec.md §4.8-4.9. Grounded on
// OCR._ocr_text_lines.
func ocrRegion(ctx context.Context, client *ocrprovider.Client, reqDoc *pdfdoc.Document, pageRect, clipRect ocr.Rectangle, rotateDegrees int) ([]ocr.TextLine, error) {
	var combined []ocr.TextLine
	for _, tile := range cliptile.Plan(clipRect) {
		lines, err := ocrClipRect(ctx, client, reqDoc, pageRect, tile, rotateDegrees)
		if err != nil {
			return nil, err
		}
		combined = cliptile.Combine(combined, lines)
	}
	return combined, nil
}

// maxDimensionForDoublePage mirrors OCR.apply_ocr's own use of
// textract.MAX_DIMENSION_POINTS as the size ceiling under which the
// double-page workaround is considered at all (a page already needing
// tiling is assumed to be a single oversized scan, not two bound pages).
const maxDimensionForDoublePage = cliptile.MaxDimensionPoints

// minLinesForDoublePageCandidate and the "no line crosses the midline
// above confidence" test are OCR.apply_ocr's trigger condition.
const minLinesForDoublePageCandidate = 30

// ApplyOCR runs the OCR Invoker over the whole page, then the
// double-page/vertical-text supplemented features on top of it. Grounded
// on OCR.apply_ocr/apply_vertical_check.
func ApplyOCR(ctx context.Context, client *ocrprovider.Client, reqDoc *pdfdoc.Document, pageRect ocr.Rectangle, confidenceThreshold float64) ([]ocr.TextLine, error) {
	lines, err := ocrRegion(ctx, client, reqDoc, pageRect, pageRect, 0)
	if err != nil {
		return nil, err
	}

	if pageRect.Width() < maxDimensionForDoublePage && pageRect.Height() < maxDimensionForDoublePage &&
		len(lines) > minLinesForDoublePageCandidate &&
		!anyLineCrossesMiddle(lines, pageRect, confidenceThreshold) {
		xlog.Printf("  Double page workaround")

		midX := (pageRect.X0 + pageRect.X1) / 2
		leftRect := ocr.NewRectangle(pageRect.X0, pageRect.Y0, midX, pageRect.Y1)
		rightRect := ocr.NewRectangle(midX, pageRect.Y0, pageRect.X1, pageRect.Y1)

		leftLines, err := ocrRegion(ctx, client, reqDoc, pageRect, leftRect, 0)
		if err != nil {
			return nil, err
		}
		drawLines, err := applyVerticalCheck(ctx, client, reqDoc, pageRect, leftRect, leftLines, confidenceThreshold)
		if err != nil {
			return nil, err
		}

		rightLines, err := ocrRegion(ctx, client, reqDoc, pageRect, rightRect, 0)
		if err != nil {
			return nil, err
		}
		rightDrawLines, err := applyVerticalCheck(ctx, client, reqDoc, pageRect, rightRect, rightLines, confidenceThreshold)
		if err != nil {
			return nil, err
		}
		return append(drawLines, rightDrawLines...), nil
	}

	return applyVerticalCheck(ctx, client, reqDoc, pageRect, pageRect, lines, confidenceThreshold)
}

// anyLineCrossesMiddle mirrors OCR._intersects_middle applied to every
// line: true if some above-confidence line straddles the page's vertical
// midline.
func anyLineCrossesMiddle(lines []ocr.TextLine, pageRect ocr.Rectangle, confidenceThreshold float64) bool {
	mid := (pageRect.X0 + pageRect.X1) / 2
	for _, l := range lines {
		if l.Confidence > confidenceThreshold && !(l.Rect.X0 > mid || l.Rect.X1 < mid) {
			return true
		}
	}
	return false
}

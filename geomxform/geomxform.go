// Package geomxform converts the OCR provider's normalized (0..1) polygons
// and bounding boxes into original-page-space rectangles, and derotates
// near-orthogonal word/line orientations. Grounded on
// original_source/ocr/textract.py's textract_coordinate_transform and
// original_source/ocr/readingorder.py's GeometryDerotator, per spec.md §4.7.
package geomxform

import (
	"math"

	"github.com/geopdf/scanocr/ocr"
	"github.com/geopdf/scanocr/respparse"
)

// snapThresholdDegrees is the spec.md §4.7 tolerance: an orientation within
// this many degrees of a multiple of 90 snaps to that multiple.
const snapThresholdDegrees = 25

// ClipTransform builds the matrix that maps the provider's normalized unit
// square for a clip tile submitted at rotateDegrees back into the original,
// unrotated page's coordinate space. Grounded verbatim on
// textract_coordinate_transform: the clip rect rotated by rotateDegrees
// bounds the page actually sent to the provider; the unit square maps onto
// that bounding rect, then the result is rotated back by -rotateDegrees.
func ClipTransform(clipRect ocr.Rectangle, rotateDegrees float64) ocr.Matrix {
	rotatedClipRect := ocr.RectangleQuad(clipRect).Transform(ocr.Rotate(rotateDegrees)).BoundingRect()
	unitToRotatedClip := ocr.RectToRect(ocr.NewRectangle(0, 0, 1, 1), rotatedClipRect)
	unrotate := ocr.Rotate(-rotateDegrees)
	return unitToRotatedClip.Multiply(unrotate)
}

// PageOrientation computes the page-wide derotation angle as the statistical
// mode of every word's reported rotation angle, rounded to the nearest
// degree. Grounded on the textractor library's add_page_orientation
// postprocessing step that original_source/ocr/textract.py relies on
// (page.custom['PageOrientationBasedOnWords']) — reproduced directly here
// since this pipeline has no equivalent postprocessing dependency.
func PageOrientation(doc *respparse.Document) float64 {
	counts := make(map[int]int)
	order := make(map[int]int)
	n := 0
	for _, page := range doc.Pages {
		for _, line := range page.Lines {
			for _, word := range line.Words {
				if !word.Geometry.HasRotation {
					continue
				}
				deg := int(math.Round(word.Geometry.RotationAngle))
				if _, seen := counts[deg]; !seen {
					order[deg] = n
					n++
				}
				counts[deg]++
			}
		}
	}
	best := 0
	bestCount := -1
	bestOrder := 0
	for deg, count := range counts {
		if count > bestCount || (count == bestCount && order[deg] < bestOrder) {
			best = deg
			bestCount = count
			bestOrder = order[deg]
		}
	}
	return float64(best)
}

// Derotate rotates a quad (four corners in the provider's standardized order
// top-left, top-right, bottom-right, bottom-left) by -orientation about the
// page's bottom-left corner, snapping orientation to the nearest multiple of
// 90 when within snapThresholdDegrees, and straightening the result in that
// case using the word/line's true (pre-derotation) line height. Grounded
// verbatim on GeometryDerotator.derotate.
func Derotate(polygon [4]ocr.Point, orientation float64, transform ocr.Matrix, pageHeight float64) (ocr.Rectangle, float64) {
	topLeft := polygon[0].Transform(transform)
	topRight := polygon[1].Transform(transform)
	bottomRight := polygon[2].Transform(transform)
	bottomLeft := polygon[3].Transform(transform)
	quad := ocr.Quad{TopLeft: topLeft, TopRight: topRight, BottomLeft: bottomLeft, BottomRight: bottomRight}

	closest := math.Round(orientation/90) * 90
	diff := orientation - closest
	snapped := math.Abs(diff) < snapThresholdDegrees
	if snapped {
		orientation = closest
	}

	derotated := quad.MorphAbout(ocr.Point{X: 0, Y: pageHeight}, ocr.Rotate(-orientation)).BoundingRect()

	if snapped {
		middleY := (derotated.Y0 + derotated.Y1) / 2
		leftX := derotated.X0
		rightX := derotated.X1
		lineHeight := topLeft.Distance(bottomLeft)
		derotated = ocr.NewRectangle(leftX, middleY-lineHeight/2, rightX, middleY+lineHeight/2)
	}

	return derotated, orientation
}

// BuildTextLine converts one parsed provider Line into the pipeline's
// ocr.TextLine, applying ClipTransform/Derotate to the line and every word.
// Grounded on TextLine.from_textract/TextWord.from_textract.
func BuildTextLine(line respparse.Line, pageOrientation float64, transform ocr.Matrix, pageHeight float64) ocr.TextLine {
	derotatedRect, orientation := Derotate(line.Geometry.Polygon, pageOrientation, transform, pageHeight)
	rect := line.Geometry.BoundingBox.Transform(transform)

	words := make([]ocr.TextWord, 0, len(line.Words))
	for _, w := range line.Words {
		wordDerotated, wordOrientation := Derotate(w.Geometry.Polygon, pageOrientation, transform, pageHeight)
		words = append(words, ocr.TextWord{
			Text:          w.Text,
			DerotatedRect: wordDerotated,
			Orientation:   wordOrientation,
		})
	}

	return ocr.TextLine{
		Text:          line.Text,
		Orientation:   orientation,
		DerotatedRect: derotatedRect,
		Rect:          rect,
		Confidence:    line.Confidence,
		Words:         words,
	}
}

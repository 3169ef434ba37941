// Package bbox interprets a page's content-stream drawing operators into the
// semantic bbox-log entries spec.md §4.1 classifies against: fill-text,
// stroke-text, fill-path, fill-image, ignore-text. pdfcpu does not expose
// this log directly, so this package walks the raw content stream operators
// itself via unipdf's content-stream parser.
package bbox

import (
	"github.com/pkg/errors"
	"github.com/unidoc/unipdf/v3/contentstream"
	"github.com/unidoc/unipdf/v3/core"

	"github.com/geopdf/scanocr/ocr"
)

// ImagePlacement is one `Do` invocation of an image XObject on the page,
// carrying the CTM in effect at the time of the call (used by pdfdoc to
// recover each image's transform/bbox for the Page Normalizer's crop step).
type ImagePlacement struct {
	Name      string
	Rect      ocr.Rectangle
	Transform ocr.Matrix
}

// graphicsState tracks the small slice of PDF graphics state this walk
// saves and restores with q/Q: the current transform matrix. Text-object,
// render-mode and marked-content state are tracked separately in Classify.
type graphicsState struct {
	ctm ocr.Matrix
}

// Classify walks a page's content stream and returns the bbox-log entries
// plus the image placements found, in operator order.
func Classify(content []byte) ([]ocr.BboxEntry, []ImagePlacement, error) {
	parser := contentstream.NewContentStreamParser(string(content))
	ops, err := parser.Parse()
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse content stream")
	}

	var entries []ocr.BboxEntry
	var images []ImagePlacement

	stack := []graphicsState{{ctm: ocr.Identity()}}
	cur := func() *graphicsState { return &stack[len(stack)-1] }

	inText := false
	textRenderMode := 0
	var ignoreMCDepth int
	var pendingTextRect ocr.Rectangle
	havePendingTextRect := false

	flushTextRect := func(kind ocr.BboxKind) {
		if havePendingTextRect {
			entries = append(entries, ocr.BboxEntry{Kind: kind, Rect: pendingTextRect})
			havePendingTextRect = false
		}
	}

	for _, op := range ops.Operations() {
		switch op.Operand {
		case "q":
			top := *cur()
			stack = append(stack, top)
		case "Q":
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case "cm":
			m, ok := matrixFromOperands(op.Params)
			if ok {
				cur().ctm = m.Multiply(cur().ctm)
			}
		case "BT":
			inText = true
			textRenderMode = 0
		case "ET":
			kind := ocr.KindFillText
			if textRenderMode == 3 || ignoreMCDepth > 0 {
				kind = ocr.KindIgnoreText
			} else if textRenderMode == 1 || textRenderMode == 2 {
				kind = ocr.KindStrokeText
			}
			flushTextRect(kind)
			inText = false
		case "Tr":
			if len(op.Params) == 1 {
				if n, ok := intOperand(op.Params[0]); ok {
					textRenderMode = n
				}
			}
		case "Tj", "TJ", "'", "\"":
			if inText {
				// Approximate the glyph run's rect as the current text
				// space origin expanded by a nominal 1x1 unit box under the
				// CTM; real width isn't recoverable without full font
				// metrics, and the classifier only needs presence/position
				// for redaction and masking, not precise glyph extents.
				origin := ocr.Point{}.Transform(cur().ctm)
				r := ocr.NewRectangle(origin.X, origin.Y, origin.X+1, origin.Y+1)
				if havePendingTextRect {
					pendingTextRect = pendingTextRect.Union(r)
				} else {
					pendingTextRect = r
					havePendingTextRect = true
				}
			}
		case "re":
			if r, ok := rectFromOperands(op.Params); ok {
				entries = append(entries, ocr.BboxEntry{Kind: ocr.KindFillPath, Rect: r.Transform(cur().ctm)})
			}
		case "f", "F", "f*", "S", "s", "B", "B*", "b", "b*":
			// path-painting operators close out any `re`-defined path; the
			// rect was already recorded at `re` time above, matching the
			// toolkit's own bbox-log granularity (one entry per filled
			// rectangle, not per painting operator).
		case "Do":
			if len(op.Params) == 1 {
				name, ok := nameOperand(op.Params[0])
				if ok {
					unit := ocr.NewRectangle(0, 0, 1, 1).Transform(cur().ctm)
					images = append(images, ImagePlacement{Name: name, Rect: unit, Transform: cur().ctm})
					entries = append(entries, ocr.BboxEntry{Kind: ocr.KindFillImage, Rect: unit})
				}
			}
		case "BMC", "BDC":
			if len(op.Params) >= 1 {
				if tag, ok := nameOperand(op.Params[0]); ok && tag == "OC" {
					ignoreMCDepth++
				}
			}
		case "EMC":
			if ignoreMCDepth > 0 {
				ignoreMCDepth--
			}
		}
	}

	return entries, images, nil
}

func matrixFromOperands(params []core.PdfObject) (ocr.Matrix, bool) {
	if len(params) != 6 {
		return ocr.Matrix{}, false
	}
	vals := make([]float64, 6)
	for i, p := range params {
		f, ok := floatOperand(p)
		if !ok {
			return ocr.Matrix{}, false
		}
		vals[i] = f
	}
	return ocr.Matrix{A: vals[0], B: vals[1], C: vals[2], D: vals[3], E: vals[4], F: vals[5]}, true
}

func rectFromOperands(params []core.PdfObject) (ocr.Rectangle, bool) {
	if len(params) != 4 {
		return ocr.Rectangle{}, false
	}
	x, ok1 := floatOperand(params[0])
	y, ok2 := floatOperand(params[1])
	w, ok3 := floatOperand(params[2])
	h, ok4 := floatOperand(params[3])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return ocr.Rectangle{}, false
	}
	return ocr.NewRectangle(x, y, x+w, y+h), true
}

func floatOperand(o core.PdfObject) (float64, bool) {
	switch v := o.(type) {
	case *core.PdfObjectFloat:
		return float64(*v), true
	case *core.PdfObjectInteger:
		return float64(*v), true
	default:
		return 0, false
	}
}

func intOperand(o core.PdfObject) (int, bool) {
	if v, ok := o.(*core.PdfObjectInteger); ok {
		return int(*v), true
	}
	return 0, false
}

func nameOperand(o core.PdfObject) (string, bool) {
	if v, ok := o.(*core.PdfObjectName); ok {
		return string(*v), true
	}
	return "", false
}

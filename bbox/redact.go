package bbox

import (
	"github.com/pkg/errors"
	"github.com/unidoc/unipdf/v3/contentstream"

	"github.com/geopdf/scanocr/ocr"
)

// RedactText rewrites content, dropping every BT..ET text-painting run whose
// rect intersects any of the given rects, and returns the rewritten stream
// plus the number of runs removed. Non-text operators (image placement,
// path painting, graphics state) pass through unchanged — this pipeline
// never redacts image content, matching
// original_source/ocr/clean.py's `images=PDF_REDACT_IMAGE_NONE`.
func RedactText(content []byte, rects []ocr.Rectangle) ([]byte, int, error) {
	if len(rects) == 0 {
		return content, 0, nil
	}

	parser := contentstream.NewContentStreamParser(string(content))
	ops, err := parser.Parse()
	if err != nil {
		return nil, 0, errors.Wrap(err, "parse content stream")
	}

	out := contentstream.ContentStreamOperations{}
	stack := []ocr.Matrix{ocr.Identity()}
	cur := func() ocr.Matrix { return stack[len(stack)-1] }

	var run contentstream.ContentStreamOperations
	inText := false
	var runRect ocr.Rectangle
	haveRunRect := false
	removed := 0

	flush := func() {
		if inText {
			redacted := haveRunRect && intersectsAny(runRect, rects)
			if !redacted {
				out = append(out, run...)
			} else {
				removed++
			}
			run = nil
			haveRunRect = false
		}
	}

	for _, op := range ops {
		switch op.Operand {
		case "q":
			stack = append(stack, cur())
		case "Q":
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case "cm":
			if m, ok := matrixFromOperands(op.Params); ok {
				stack[len(stack)-1] = m.Multiply(cur())
			}
		case "BT":
			inText = true
			run = contentstream.ContentStreamOperations{op}
			continue
		case "ET":
			run = append(run, op)
			flush()
			inText = false
			continue
		case "Tj", "TJ", "'", "\"":
			if inText {
				origin := ocr.Point{}.Transform(cur())
				r := ocr.NewRectangle(origin.X, origin.Y, origin.X+1, origin.Y+1)
				if haveRunRect {
					runRect = runRect.Union(r)
				} else {
					runRect = r
					haveRunRect = true
				}
			}
		}

		if inText {
			run = append(run, op)
		} else {
			out = append(out, op)
		}
	}
	// Any unterminated run (malformed stream) is kept verbatim rather than
	// silently dropped.
	out = append(out, run...)

	return out.Bytes(), removed, nil
}

func intersectsAny(r ocr.Rectangle, rects []ocr.Rectangle) bool {
	for _, o := range rects {
		if r.Intersects(o) {
			return true
		}
	}
	return false
}

package pipeline

import "github.com/geopdf/scanocr/ocr"

// IsDigitallyBorn reports whether a page already carries real (not
// OCR-injected) text: it has at least one non-empty fill-text/stroke-text
// drawing operator, and that text is not entirely covered by a single
// embedded image. A page with text and no image at all is always digitally
// born; a page without text never is. Grounded verbatim on
// original_source/ocr/util.py's is_digitally_born.
func IsDigitallyBorn(entries []ocr.BboxEntry) bool {
	var textUnion ocr.Rectangle
	haveText := false
	allTextCovered := false
	hasImage := false

	for _, e := range entries {
		if (e.Kind == ocr.KindFillText || e.Kind == ocr.KindStrokeText) && !e.Rect.IsEmpty() {
			allTextCovered = false
			if !haveText {
				textUnion = e.Rect
				haveText = true
			} else {
				textUnion = textUnion.Union(e.Rect)
			}
		}
		if e.Kind == ocr.KindFillImage {
			hasImage = true
			if haveText && e.Rect.Contains(textUnion) {
				allTextCovered = true
			}
		}
	}

	return haveText && !(hasImage && allTextCovered)
}

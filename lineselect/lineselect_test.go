package lineselect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geopdf/scanocr/ocr"
)

func block(lines ...ocr.TextLine) ocr.ReadingOrderBlock {
	return ocr.NewReadingOrderBlock(lines)
}

func tl(rect ocr.Rectangle, confidence float64, text string) ocr.TextLine {
	return ocr.TextLine{Text: text, Rect: rect, DerotatedRect: rect, Confidence: confidence}
}

func TestSelectDropsLinesBelowHalvedBlockAverage(t *testing.T) {
	r := ocr.NewRectangle(0, 0, 100, 20)
	// Block average confidence 0.55 (>= global threshold 0.5), so the
	// per-line bar is avg/2 = 0.275.
	b := block(tl(r, 0.9, "strong"), tl(r, 0.2, "weak"))

	out := Select([]ocr.ReadingOrderBlock{b}, 0.5, nil)
	var texts []string
	for _, l := range out {
		texts = append(texts, l.Text)
	}
	assert.Equal(t, []string{"strong"}, texts)
}

func TestSelectUsesStricterThresholdForLowConfidenceBlock(t *testing.T) {
	r := ocr.NewRectangle(0, 0, 100, 20)
	// Block average confidence 0.3 (< global threshold 0.5), so the
	// per-line bar becomes (1+0.5)/2 = 0.75 — a much stricter bar.
	b := block(tl(r, 0.3, "a"), tl(r, 0.3, "b"))

	out := Select([]ocr.ReadingOrderBlock{b}, 0.5, nil)
	assert.Empty(t, out, "no line in a low-confidence block clears the halfway-to-1 bar")
}

func TestSelectSkipsLinesCoveredByMask(t *testing.T) {
	r := ocr.NewRectangle(0, 0, 100, 20)
	b := block(tl(r, 0.95, "visible text here"))

	mask := ocr.NewMask(ocr.NewRectangle(0, 0, 1000, 1000))
	mask.AddRect(r)

	out := Select([]ocr.ReadingOrderBlock{b}, 0.5, mask)
	assert.Empty(t, out, "a line under already-visible text is dropped when a mask is supplied")
}

func TestSelectIgnoresMaskWhenNil(t *testing.T) {
	r := ocr.NewRectangle(0, 0, 100, 20)
	b := block(tl(r, 0.95, "keep me"))

	out := Select([]ocr.ReadingOrderBlock{b}, 0.5, nil)
	assert.Len(t, out, 1)
}

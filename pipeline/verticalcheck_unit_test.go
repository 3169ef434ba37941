package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geopdf/scanocr/ocr"
)

func textLine(rect ocr.Rectangle, text string, confidence float64) ocr.TextLine {
	return ocr.TextLine{
		Text:          text,
		DerotatedRect: rect,
		Rect:          rect,
		Confidence:    confidence,
	}
}

func TestIsVerticalLineTallNarrowWithText(t *testing.T) {
	l := textLine(ocr.NewRectangle(0, 0, 10, 100), "hello", 0.9)
	assert.True(t, isVerticalLine(l))
}

func TestIsVerticalLineWideShortIsNotVertical(t *testing.T) {
	l := textLine(ocr.NewRectangle(0, 0, 100, 10), "hello", 0.9)
	assert.False(t, isVerticalLine(l))
}

func TestIsVerticalLineTallButTooShortTextIgnored(t *testing.T) {
	l := textLine(ocr.NewRectangle(0, 0, 10, 100), "a", 0.9)
	assert.False(t, isVerticalLine(l), "get_ocr_lines only treats tall boxes with more than two characters as vertical candidates")
}

func TestAnyLineCrossesMiddleTrueWhenStraddlingAboveConfidence(t *testing.T) {
	pageRect := ocr.NewRectangle(0, 0, 200, 400)
	lines := []ocr.TextLine{
		textLine(ocr.NewRectangle(90, 0, 110, 20), "straddle", 0.8),
	}
	assert.True(t, anyLineCrossesMiddle(lines, pageRect, 0.5))
}

func TestAnyLineCrossesMiddleFalseWhenBelowConfidence(t *testing.T) {
	pageRect := ocr.NewRectangle(0, 0, 200, 400)
	lines := []ocr.TextLine{
		textLine(ocr.NewRectangle(90, 0, 110, 20), "straddle", 0.1),
	}
	assert.False(t, anyLineCrossesMiddle(lines, pageRect, 0.5))
}

func TestAnyLineCrossesMiddleFalseWhenEntirelyOneSide(t *testing.T) {
	pageRect := ocr.NewRectangle(0, 0, 200, 400)
	lines := []ocr.TextLine{
		textLine(ocr.NewRectangle(0, 0, 50, 20), "left column", 0.9),
		textLine(ocr.NewRectangle(150, 0, 199, 20), "right column", 0.9),
	}
	assert.False(t, anyLineCrossesMiddle(lines, pageRect, 0.5))
}

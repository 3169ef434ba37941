package overlay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geopdf/scanocr/ocr"
)

func TestEscapeTextEscapesParensAndBackslash(t *testing.T) {
	assert.Equal(t, `a \(b\) \\ c`, escapeText(`a (b) \ c`))
}

func word(x0, y0, x1, y1 float64, text string) ocr.TextWord {
	return ocr.TextWord{Text: text, DerotatedRect: ocr.NewRectangle(x0, y0, x1, y1)}
}

func TestWordPlacementInBandWordUsesLineBaseline(t *testing.T) {
	line := ocr.TextLine{
		DerotatedRect: ocr.NewRectangle(0, 0, 100, 20),
		Words:         []ocr.TextWord{word(0, 5, 40, 15, "hi")},
	}
	w := line.Words[0]

	text, x, y, scale := wordPlacement(w, nil, line, 2, 800, 1, 12, 777)
	assert.Equal(t, "hi", text)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 777.0, y, "a word within the padded band uses the shared lineTextY baseline")
	assert.Greater(t, scale, 0.0)
}

func TestWordPlacementAddsTrailingSpaceBeforeGapToNextWord(t *testing.T) {
	line := ocr.TextLine{
		DerotatedRect: ocr.NewRectangle(0, 0, 100, 20),
		Words: []ocr.TextWord{
			word(0, 5, 40, 15, "hi"),
			word(60, 5, 90, 15, "there"),
		},
	}
	first := line.Words[0]
	next := line.Words[1]

	text, _, _, _ := wordPlacement(first, &next, line, 2, 800, 1, 12, 777)
	assert.Equal(t, "hi ", text, "a gap before the next word gets an explicit trailing space to avoid copy-merging")
}

func TestWordPlacementOutOfBandWordGetsOwnBaseline(t *testing.T) {
	line := ocr.TextLine{
		DerotatedRect: ocr.NewRectangle(0, 0, 100, 20),
		Words:         []ocr.TextWord{word(0, 100, 40, 120, "stray")},
	}
	w := line.Words[0]

	_, _, y, _ := wordPlacement(w, nil, line, 2, 800, 1, 12, 777)
	assert.NotEqual(t, 777.0, y, "a word whose vertical center falls outside the line's padded band gets its own baseline")
}

func TestBuildContentGroupsLinesByOrientationAndSetsRenderMode(t *testing.T) {
	lines := []ocr.TextLine{
		{Text: "a", Orientation: 0, DerotatedRect: ocr.NewRectangle(0, 0, 50, 12), Words: []ocr.TextWord{word(0, 0, 50, 12, "a")}},
		{Text: "b", Orientation: 90, DerotatedRect: ocr.NewRectangle(0, 0, 50, 12), Words: []ocr.TextWord{word(0, 0, 50, 12, "b")}},
	}

	invisible := string(buildContent(800, lines, false))
	assert.Contains(t, invisible, "3 Tr", "non-visible mode uses render mode 3 (invisible text)")
	assert.Equal(t, 2, strings.Count(invisible, "BT\n"), "each distinct orientation run opens its own text object")

	visible := string(buildContent(800, lines, true))
	assert.Contains(t, visible, "0 Tr", "visible mode uses render mode 0")
}

func TestWriteLineSkipsEmptyText(t *testing.T) {
	content := buildContent(800, []ocr.TextLine{{Text: "", Words: nil}}, false)
	assert.NotContains(t, string(content), "Tj")
}

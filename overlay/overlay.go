// Package overlay implements the Text-Layer Synthesizer: it builds a
// single-page PDF whose content stream draws recognized lines as an
// invisible (or, for debug-page mode, visible) text layer sized and
// positioned to match the underlying scan. Grounded on
// original_source/ocr/draw.py's draw_ocr_text_page/draw_ocr_word, per
// spec.md §4.12.
package overlay

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/geopdf/scanocr/ocr"
	"github.com/geopdf/scanocr/pdfdoc"
)

var helveticaFamily = buildHelveticaFamily()

// buildHelveticaFamily loads a Helvetica-equivalent system font purely for
// width/descent metrics; the glyphs themselves are drawn using the page's
// own standard-14 Helvetica font resource (pdfdoc.PageRef.AppendOverlayContent
// creates it), so no font program needs to be embedded here.
func buildHelveticaFamily() *canvas.FontFamily {
	family := canvas.NewFontFamily("helvetica")
	if err := family.LoadSystemFont("Helvetica", canvas.FontRegular); err != nil {
		_ = family.LoadSystemFont("Arial", canvas.FontRegular)
	}
	return family
}

func face(size float64) *canvas.FontFace {
	return helveticaFamily.Face(size, color.Black, canvas.FontRegular)
}

// stringWidth is the reportlab stringWidth equivalent used to compute a
// line's font size and a word's horizontal scale.
func stringWidth(s string, size float64) float64 {
	if s == "" || size <= 0 {
		return 0
	}
	return face(size).TextWidth(s)
}

// descent returns the (positive) distance below the baseline at the given
// font size, matching the magnitude of reportlab's getDescent (which
// returns the same distance as a negative number, subtracted directly in
// draw_ocr_word/draw_ocr_text_page's `- descent` baseline computation).
func descent(size float64) float64 {
	return math.Abs(face(size).Metrics().Descent)
}

// Synthesize builds a standalone single-page overlay document sized to
// pageRect, rendering lines grouped by orientation. visible draws the text
// normally (debug-page mode); otherwise it uses PDF text render mode 3
// (invisible), matching an OCR text layer meant only for copy/search.
func Synthesize(pageRect ocr.Rectangle, lines []ocr.TextLine, visible bool) (*pdfdoc.Document, error) {
	doc, err := pdfdoc.NewBlankDocument(pageRect.Width(), pageRect.Height())
	if err != nil {
		return nil, err
	}
	page, err := doc.Page(1)
	if err != nil {
		return nil, err
	}
	content := buildContent(pageRect.Height(), lines, visible)
	if err := page.AppendOverlayContent(content); err != nil {
		return nil, err
	}
	return doc, nil
}

func buildContent(pageHeight float64, lines []ocr.TextLine, visible bool) []byte {
	var buf bytes.Buffer
	renderMode := 3
	if visible {
		renderMode = 0
	}

	i := 0
	for i < len(lines) {
		orientation := lines[i].Orientation
		j := i
		for j < len(lines) && lines[j].Orientation == orientation {
			j++
		}
		writeGroup(&buf, pageHeight, lines[i:j], orientation, renderMode)
		i = j
	}
	return buf.Bytes()
}

// writeGroup draws one run of same-orientation lines inside a rotated
// graphics-state block, per draw_ocr_text_page's saveState/rotate/restore
// cycle on every orientation change.
func writeGroup(buf *bytes.Buffer, pageHeight float64, lines []ocr.TextLine, orientation float64, renderMode int) {
	rad := -orientation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	fmt.Fprintf(buf, "q\n%f %f %f %f 0 0 cm\n", cos, sin, -sin, cos)
	fmt.Fprintf(buf, "BT\n%d Tr\n", renderMode)
	for _, line := range lines {
		writeLine(buf, pageHeight, line)
	}
	buf.WriteString("ET\nQ\n")
}

func writeLine(buf *bytes.Buffer, pageHeight float64, line ocr.TextLine) {
	if line.Text == "" || len(line.Words) == 0 {
		return
	}
	// font size = min(derotated.height, derotated.width / string-width(text, size=1))
	fontSize := line.DerotatedRect.Height()
	if unitWidth := stringWidth(line.Text, 1); unitWidth > 0 {
		if byWidth := line.DerotatedRect.Width() / unitWidth; byWidth < fontSize {
			fontSize = byWidth
		}
	}
	if fontSize <= 0 {
		return
	}
	fmt.Fprintf(buf, "/F0 %f Tf\n", fontSize)

	linePadding := (line.DerotatedRect.Height() - fontSize) / 2
	lineDescent := descent(fontSize)
	lineTextY := pageHeight - line.DerotatedRect.Y1 + linePadding - lineDescent

	for idx := range line.Words {
		word := line.Words[idx]
		var next *ocr.TextWord
		if idx+1 < len(line.Words) {
			next = &line.Words[idx+1]
		}
		text, x, y, scale := wordPlacement(word, next, line, linePadding, pageHeight, lineDescent, fontSize, lineTextY)
		if text == "" {
			continue
		}
		fmt.Fprintf(buf, "%f Tz\n", scale)
		fmt.Fprintf(buf, "1 0 0 1 %f %f Tm\n", x, y)
		fmt.Fprintf(buf, "(%s) Tj\n", escapeText(text))
	}
}

// wordPlacement ports draw_ocr_word verbatim: a word whose vertical center
// falls outside the line's padded band gets its own baseline (handles
// words Textract drags onto a "line" that don't actually belong to it);
// otherwise, when the next word starts clear of this one, an explicit
// trailing space is rendered and horizontally scaled to bridge the gap, so
// PDF viewers don't merge the words on copy.
func wordPlacement(word ocr.TextWord, next *ocr.TextWord, line ocr.TextLine, linePadding, pageHeight, lineDescent, fontSize, lineTextY float64) (text string, x, y, scale float64) {
	text = word.Text
	width := word.DerotatedRect.Width()
	wordYMid := (word.DerotatedRect.Y0 + word.DerotatedRect.Y1) / 2

	inBand := line.DerotatedRect.Y0+linePadding < wordYMid && wordYMid < line.DerotatedRect.Y1-linePadding
	if !inBand {
		wordPadding := (word.DerotatedRect.Height() - fontSize) / 2
		y = pageHeight - word.DerotatedRect.Y1 + wordPadding - lineDescent
	} else {
		if next != nil && next.DerotatedRect.X0 > word.DerotatedRect.X1 {
			text = word.Text + " "
			width = next.DerotatedRect.X0 - word.DerotatedRect.X0
		}
		y = lineTextY
	}
	x = word.DerotatedRect.X0

	scale = 100
	if tw := stringWidth(text, fontSize); tw > 0 {
		scale = 100 * width / tw
	}
	return text, x, y, scale
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

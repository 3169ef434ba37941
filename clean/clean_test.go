package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geopdf/scanocr/ocr"
)

type fakePage struct {
	entries    []ocr.BboxEntry
	rect       ocr.Rectangle
	redacted   []ocr.Rectangle
	applyErr   error
	applyCalls int
}

func (p *fakePage) BboxLog() ([]ocr.BboxEntry, error) { return p.entries, nil }
func (p *fakePage) Rect() (ocr.Rectangle, error)       { return p.rect, nil }
func (p *fakePage) AddRedactAnnotation(rect ocr.Rectangle) {
	p.redacted = append(p.redacted, rect)
}
func (p *fakePage) ApplyRedactions() (int, error) {
	p.applyCalls++
	return len(p.redacted), p.applyErr
}

func TestStandardRedactsOnlyIgnoreText(t *testing.T) {
	ignore := ocr.NewRectangle(0, 0, 10, 10)
	visible := ocr.NewRectangle(20, 20, 30, 30)
	p := &fakePage{entries: []ocr.BboxEntry{
		{Kind: ocr.KindIgnoreText, Rect: ignore},
		{Kind: ocr.KindFillText, Rect: visible},
	}}

	require.NoError(t, Standard(p))
	require.Len(t, p.redacted, 1)
	assert.Equal(t, ignore, p.redacted[0])
	assert.Equal(t, 1, p.applyCalls)
}

func TestStandardNoOpWhenNothingToRedact(t *testing.T) {
	p := &fakePage{entries: []ocr.BboxEntry{{Kind: ocr.KindFillText, Rect: ocr.NewRectangle(0, 0, 10, 10)}}}
	require.NoError(t, Standard(p))
	assert.Equal(t, 0, p.applyCalls)
}

func TestAggressiveKeepsVisibleTextOutOfRedaction(t *testing.T) {
	pageRect := ocr.NewRectangle(0, 0, 1000, 1000)
	visible := ocr.NewRectangle(0, 0, 100, 20)
	p := &fakePage{rect: pageRect, entries: []ocr.BboxEntry{
		{Kind: ocr.KindFillText, Rect: visible},
	}}

	mask, err := Aggressive(p)
	require.NoError(t, err)
	assert.Empty(t, p.redacted)
	assert.True(t, mask.Intersects(visible))
}

func TestAggressiveRedactsIgnoreTextNotCoveredByMask(t *testing.T) {
	pageRect := ocr.NewRectangle(0, 0, 1000, 1000)
	ignore := ocr.NewRectangle(500, 500, 600, 520)
	p := &fakePage{rect: pageRect, entries: []ocr.BboxEntry{
		{Kind: ocr.KindIgnoreText, Rect: ignore},
	}}

	_, err := Aggressive(p)
	require.NoError(t, err)
	require.Len(t, p.redacted, 1)
	assert.Equal(t, ignore, p.redacted[0])
}

func TestAggressiveImageOverPossiblyVisibleTextMarksItInvisible(t *testing.T) {
	pageRect := ocr.NewRectangle(0, 0, 1000, 1000)
	text := ocr.NewRectangle(10, 10, 90, 30)
	image := ocr.NewRectangle(0, 0, 100, 100)
	p := &fakePage{rect: pageRect, entries: []ocr.BboxEntry{
		{Kind: ocr.KindFillText, Rect: text},
		{Kind: ocr.KindFillImage, Rect: image},
	}}

	_, err := Aggressive(p)
	require.NoError(t, err)
	require.Len(t, p.redacted, 1, "text fully covered by a later image is old OCR, not real visible text")
	assert.Equal(t, text, p.redacted[0])
}

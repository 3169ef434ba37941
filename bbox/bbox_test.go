package bbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geopdf/scanocr/ocr"
)

func TestClassifyFillTextVisible(t *testing.T) {
	content := []byte(`BT /F0 12 Tf 10 10 Td (hi) Tj ET`)
	entries, _, err := Classify(content)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ocr.KindFillText, entries[0].Kind)
}

func TestClassifyInvisibleTextIsIgnoreText(t *testing.T) {
	content := []byte(`BT 3 Tr /F0 12 Tf 10 10 Td (hi) Tj ET`)
	entries, _, err := Classify(content)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ocr.KindIgnoreText, entries[0].Kind)
}

func TestClassifyStrokeText(t *testing.T) {
	content := []byte(`BT 1 Tr /F0 12 Tf 10 10 Td (hi) Tj ET`)
	entries, _, err := Classify(content)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ocr.KindStrokeText, entries[0].Kind)
}

func TestClassifyFillPathRectangle(t *testing.T) {
	content := []byte(`0 0 100 50 re f`)
	entries, _, err := Classify(content)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ocr.KindFillPath, entries[0].Kind)
	assert.Equal(t, ocr.NewRectangle(0, 0, 100, 50), entries[0].Rect)
}

func TestClassifyImageXObject(t *testing.T) {
	content := []byte(`q 1 0 0 1 0 0 cm /Im0 Do Q`)
	entries, images, err := Classify(content)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ocr.KindFillImage, entries[0].Kind)
	require.Len(t, images, 1)
	assert.Equal(t, "Im0", images[0].Name)
}

func TestClassifyOptionalContentMarksTextAsIgnored(t *testing.T) {
	content := []byte(`/OC /MC0 BDC BT /F0 12 Tf 10 10 Td (hi) Tj ET EMC`)
	entries, _, err := Classify(content)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ocr.KindIgnoreText, entries[0].Kind)
}

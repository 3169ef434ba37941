package respparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "Blocks": [
    {"Id": "page1", "BlockType": "PAGE", "Relationships": [{"Type": "CHILD", "Ids": ["line1"]}]},
    {"Id": "line1", "BlockType": "LINE", "Text": "hello world", "Confidence": 95.5,
     "Geometry": {"BoundingBox": {"Width": 0.2, "Height": 0.05, "Left": 0.1, "Top": 0.2}, "Polygon": [], "RotationAngle": 1.5},
     "Relationships": [{"Type": "CHILD", "Ids": ["word1", "word2"]}]},
    {"Id": "word1", "BlockType": "WORD", "Text": "hello", "Confidence": 99,
     "Geometry": {"BoundingBox": {"Width": 0.1, "Height": 0.05, "Left": 0.1, "Top": 0.2}, "Polygon": []}},
    {"Id": "word2", "BlockType": "WORD", "Text": "world", "Confidence": 91}
  ]
}`

func TestParseBuildsPageLineWordTree(t *testing.T) {
	doc, err := Parse([]byte(sampleResponse))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	require.Len(t, doc.Pages[0].Lines, 1)

	line := doc.Pages[0].Lines[0]
	assert.Equal(t, "hello world", line.Text)
	assert.InDelta(t, 0.955, line.Confidence, 1e-9)
	assert.True(t, line.Geometry.HasRotation)
	assert.InDelta(t, 1.5, line.Geometry.RotationAngle, 1e-9)

	require.Len(t, line.Words, 2)
	assert.Equal(t, "hello", line.Words[0].Text)
	assert.InDelta(t, 0.99, line.Words[0].Confidence, 1e-9)
	assert.Equal(t, "world", line.Words[1].Text)
}

func TestParseIgnoresUnknownBlockTypesAndMissingConfidence(t *testing.T) {
	const resp = `{"Blocks": [
      {"Id": "p", "BlockType": "PAGE", "Relationships": [{"Type": "CHILD", "Ids": ["l", "weird"]}]},
      {"Id": "l", "BlockType": "LINE", "Text": "x", "Relationships": [{"Type": "CHILD", "Ids": ["w"]}]},
      {"Id": "w", "BlockType": "WORD", "Text": "x"},
      {"Id": "weird", "BlockType": "SOMETHING_NEW"}
    ]}`
	doc, err := Parse([]byte(resp))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	require.Len(t, doc.Pages[0].Lines, 1)
	assert.Equal(t, 0.0, doc.Pages[0].Lines[0].Confidence)
}

func TestParseNoPagesReturnsEmptyDocument(t *testing.T) {
	doc, err := Parse([]byte(`{"Blocks": []}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Pages)
}

func TestParseInvalidJSONErrors(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.Error(t, err)
}

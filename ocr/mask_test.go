package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMaskSizesGridToPageRect(t *testing.T) {
	m := NewMask(NewRectangle(0, 0, 100, 200))
	assert.Equal(t, 100, m.Width())
	assert.Equal(t, 200, m.Height())
}

func TestMaskAddRectThenIntersects(t *testing.T) {
	m := NewMask(NewRectangle(0, 0, 100, 100))
	require.False(t, m.Intersects(NewRectangle(10, 10, 20, 20)))

	m.AddRect(NewRectangle(10, 10, 20, 20))
	assert.True(t, m.Intersects(NewRectangle(10, 10, 20, 20)))
	assert.False(t, m.Intersects(NewRectangle(50, 50, 60, 60)))
}

func TestMaskRemoveRectClearsCells(t *testing.T) {
	m := NewMask(NewRectangle(0, 0, 100, 100))
	m.AddRect(NewRectangle(0, 0, 50, 50))
	m.RemoveRect(NewRectangle(0, 0, 50, 50))
	assert.False(t, m.Intersects(NewRectangle(0, 0, 50, 50)))
}

func TestMaskCoverageRatio(t *testing.T) {
	m := NewMask(NewRectangle(0, 0, 100, 100))
	m.AddRect(NewRectangle(0, 0, 10, 10))

	// The fully-covered rect reports a ratio of 1.
	assert.Equal(t, 1.0, m.CoverageRatio(NewRectangle(0, 0, 10, 10)))

	// A rect half inside, half outside the occupied region is partially covered.
	partial := m.CoverageRatio(NewRectangle(0, 0, 20, 10))
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}

func TestMaskCoverageRatioOutsideBoundsIsZero(t *testing.T) {
	m := NewMask(NewRectangle(0, 0, 10, 10))
	assert.Equal(t, 0.0, m.CoverageRatio(NewRectangle(1000, 1000, 1010, 1010)))
}

func TestMaskBoundsClampsToGrid(t *testing.T) {
	m := NewMask(NewRectangle(0, 0, 10, 10))
	// A rect extending beyond the mask must not panic and should still mark
	// whatever overlaps the grid.
	assert.NotPanics(t, func() { m.AddRect(NewRectangle(-5, -5, 5, 5)) })
	assert.True(t, m.Intersects(NewRectangle(0, 0, 1, 1)))
}

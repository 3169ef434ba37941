package normalize

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geopdf/scanocr/ocr"
)

type fakeCarrier struct {
	rect     ocr.Rectangle
	rotation int
	images   []ocr.ImageInfo
	bytes    map[int][]byte
	replaced map[int]string
	deleted  []int
}

func (c *fakeCarrier) Rect() (ocr.Rectangle, error) { return c.rect, nil }
func (c *fakeCarrier) Rotation() int                { return c.rotation }
func (c *fakeCarrier) SetRotation(degrees int)      { c.rotation = degrees }
func (c *fakeCarrier) Images() ([]ocr.ImageInfo, error) {
	return c.images, nil
}
func (c *fakeCarrier) ImageBytes(xref int) ([]byte, error) { return c.bytes[xref], nil }
func (c *fakeCarrier) ReplaceImage(xref int, data []byte, ext string) error {
	if c.replaced == nil {
		c.replaced = make(map[int]string)
	}
	c.replaced[xref] = ext
	c.bytes[xref] = data
	return nil
}
func (c *fakeCarrier) DeleteImage(xref int) error { c.deleted = append(c.deleted, xref); return nil }
func (c *fakeCarrier) InsertImage(data []byte, ext string, width, height int) (int, error) {
	return 0, nil
}

type fakeDocument struct {
	replacedPageNr int
	replacedScale  float64
	resetRotation  bool
}

func (d *fakeDocument) RenderPageAsImage(pageNr int, scale float64) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}
func (d *fakeDocument) ReplacePageWithScaledCopy(pageNr int, scale float64, resetRotation bool) error {
	d.replacedPageNr = pageNr
	d.replacedScale = scale
	d.resetRotation = resetRotation
	return nil
}

func jpegBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestResizeNoOpWhenWideEnoughAndUnrotated(t *testing.T) {
	p := &fakeCarrier{rect: ocr.NewRectangle(0, 0, 500, 700)}
	d := &fakeDocument{}

	replaced, err := Resize(d, p, 1)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, 0, d.replacedPageNr)
}

func TestResizeEnlargesTinyPage(t *testing.T) {
	p := &fakeCarrier{rect: ocr.NewRectangle(0, 0, 50, 70)}
	d := &fakeDocument{}

	replaced, err := Resize(d, p, 3)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, 3, d.replacedPageNr)
	assert.Equal(t, float64(enlargeFactor), d.replacedScale)
	assert.True(t, d.resetRotation)
}

func TestResizeResetsRotationWithoutEnlarging(t *testing.T) {
	p := &fakeCarrier{rect: ocr.NewRectangle(0, 0, 500, 700), rotation: 90}
	d := &fakeDocument{}

	replaced, err := Resize(d, p, 1)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, float64(resetRotationFactor), d.replacedScale)
}

func TestReplaceJPXLeavesJPXImagesUntouchedWithoutADecoder(t *testing.T) {
	jpx := jpegBytes(t, 4, 4, color.White)
	other := jpegBytes(t, 4, 4, color.Black)
	p := &fakeCarrier{
		images: []ocr.ImageInfo{
			{Xref: 1, Ext: "jpx"},
			{Xref: 2, Ext: "png"},
		},
		bytes: map[int][]byte{1: jpx, 2: other},
	}

	require.NoError(t, ReplaceJPX(p))
	assert.Empty(t, p.replaced, "no JPEG-2000 decoder is available, so jpx images are skipped rather than mis-decoded")
}

func TestDecodeBytesReturnsExplicitErrorForJPX(t *testing.T) {
	_, err := DecodeBytes([]byte("not a real jp2 codestream"), "jpx")
	require.Error(t, err)
}

func TestCropSkipsWhenPageRotated(t *testing.T) {
	p := &fakeCarrier{rect: ocr.NewRectangle(0, 0, 100, 100), rotation: 90}
	require.NoError(t, Crop(p))
	assert.Empty(t, p.replaced)
}

func TestCropSkipsWhenMultipleImages(t *testing.T) {
	p := &fakeCarrier{
		rect:   ocr.NewRectangle(0, 0, 100, 100),
		images: []ocr.ImageInfo{{Xref: 1}, {Xref: 2}},
	}
	require.NoError(t, Crop(p))
	assert.Empty(t, p.replaced)
}

func TestCropSkipsSentinelOnePixelImage(t *testing.T) {
	p := &fakeCarrier{
		rect:   ocr.NewRectangle(0, 0, 100, 100),
		images: []ocr.ImageInfo{{Xref: 1, Width: 1, Height: 1}},
	}
	require.NoError(t, Crop(p))
	assert.Empty(t, p.replaced)
}

func TestCropSkipsJBIG2(t *testing.T) {
	p := &fakeCarrier{
		rect:   ocr.NewRectangle(0, 0, 100, 100),
		images: []ocr.ImageInfo{{Xref: 1, Width: 200, Height: 200, Ext: "jb2"}},
	}
	require.NoError(t, Crop(p))
	assert.Empty(t, p.replaced)
}

func TestCropSkipsWhenImageAlreadyTightlyFitsPage(t *testing.T) {
	rect := ocr.NewRectangle(0, 0, 100, 100)
	p := &fakeCarrier{
		rect: rect,
		images: []ocr.ImageInfo{{
			Xref: 1, Width: 200, Height: 200,
			Bbox: ocr.NewRectangle(-1, -1, 101, 101), // within the 10pt margin
		}},
	}
	require.NoError(t, Crop(p))
	assert.Empty(t, p.replaced)
}

func TestCropSkipsWhenImageDoesNotIntersectPage(t *testing.T) {
	rect := ocr.NewRectangle(0, 0, 100, 100)
	p := &fakeCarrier{
		rect: rect,
		images: []ocr.ImageInfo{{
			Xref: 1, Width: 200, Height: 200,
			Bbox: ocr.NewRectangle(1000, 1000, 2000, 2000),
		}},
	}
	require.NoError(t, Crop(p))
	assert.Empty(t, p.replaced)
}

func TestRotationFromTransformAxisAligned(t *testing.T) {
	rot, ok := rotationFromTransform(ocr.Matrix{A: 1, D: 1})
	assert.True(t, ok)
	assert.Equal(t, 0, rot)

	rot, ok = rotationFromTransform(ocr.Matrix{A: -1, D: -1})
	assert.True(t, ok)
	assert.Equal(t, 180, rot)

	rot, ok = rotationFromTransform(ocr.Matrix{B: 1, C: -1})
	assert.True(t, ok)
	assert.Equal(t, 90, rot)

	rot, ok = rotationFromTransform(ocr.Matrix{B: -1, C: 1})
	assert.True(t, ok)
	assert.Equal(t, 270, rot)
}

func TestRotationFromTransformNonAxisAlignedIsNotOK(t *testing.T) {
	_, ok := rotationFromTransform(ocr.Matrix{A: 0.7, B: 0.7, C: -0.7, D: 0.7})
	assert.False(t, ok)
}

func TestDecodeBytesRoundTripsJPEG(t *testing.T) {
	data := jpegBytes(t, 8, 8, color.RGBA{R: 255, A: 255})
	img, err := DecodeBytes(data, "jpeg")
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestEncodeJPEGProducesDecodableBytes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	data, err := EncodeJPEG(img)
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func TestCropImageClampsToBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	cropped := cropImage(img, ocr.NewRectangle(-5, -5, 5, 5))
	assert.Equal(t, 5, cropped.Bounds().Dx())
	assert.Equal(t, 5, cropped.Bounds().Dy())
}

func TestCropImageDegenerateRectReturnsOriginal(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	cropped := cropImage(img, ocr.NewRectangle(5, 5, 5, 5))
	assert.Equal(t, img, cropped)
}

func TestDownscaleHalvesDimensionsAndFloorsAtOne(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 4))
	out := Downscale(img)
	assert.Equal(t, 5, out.Bounds().Dx())
	assert.Equal(t, 2, out.Bounds().Dy())

	tiny := image.NewRGBA(image.Rect(0, 0, 1, 1))
	outTiny := Downscale(tiny)
	assert.Equal(t, 1, outTiny.Bounds().Dx())
	assert.Equal(t, 1, outTiny.Bounds().Dy())
}

// Package normalize implements the Page Normalizer of spec.md §4.2: resizing
// tiny or rotated pages, replacing JPX images with JPEG, and cropping
// oversized images to the page rectangle. Grounded on
// original_source/ocr/resize.py and original_source/ocr/crop.py.
package normalize

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/geopdf/scanocr/internal/xlog"
	"github.com/geopdf/scanocr/ocr"
)

// minWidthPoints is the page width, in points, below which the page is
// enlarged rather than sent to OCR at native (tiny) size.
const minWidthPoints = 144

// enlargeFactor is applied to both axes when a page is too small.
const enlargeFactor = 20

// resetRotationFactor is the (identity) factor used when the page only
// needs its rotation reset, not enlargement.
const resetRotationFactor = 1

// cropMarginPoints is the tolerance added to the page rect before deciding
// an image needs cropping — images only slightly larger than the page are
// left alone, since cropping would not shrink the file meaningfully.
const cropMarginPoints = 10

// cropSizeImprovementThreshold: a crop is only kept if the re-encoded image
// is under this fraction of the original's byte size.
const cropSizeImprovementThreshold = 0.8

// jpegQuality is used for every JPEG re-encode in this package.
const jpegQuality = 85

// pageCarrier is the minimal surface normalize needs to build a scaled
// replacement page; implemented by pdfdoc.Document/PageRef in production,
// and by a fake in tests.
type pageCarrier interface {
	Rect() (ocr.Rectangle, error)
	Rotation() int
	SetRotation(degrees int)
	Images() ([]ocr.ImageInfo, error)
	ImageBytes(xref int) ([]byte, error)
	ReplaceImage(xref int, data []byte, ext string) error
	DeleteImage(xref int) error
	InsertImage(data []byte, ext string, width, height int) (int, error)
}

// document is the minimal document-level surface needed to replace a page
// wholesale via an intermediate carrier page, per spec.md §4.2's "insert new
// page at the same index then delete the old" ordering requirement.
type document interface {
	RenderPageAsImage(pageNr int, scale float64) (image.Image, error)
	ReplacePageWithScaledCopy(pageNr int, scale float64, resetRotation bool) error
}

// Resize re-renders the page if it is tiny or rotated, per
// original_source/ocr/resize.py's resize_page. Returns true if the page was
// replaced (callers must re-fetch their PageRef afterward).
func Resize(doc document, p pageCarrier, pageNr int) (bool, error) {
	rect, err := p.Rect()
	if err != nil {
		return false, err
	}
	rotation := p.Rotation()

	if rect.Width() >= minWidthPoints && rotation == 0 {
		return false, nil
	}

	factor := resetRotationFactor
	if rect.Width() < minWidthPoints {
		xlog.Printf("  Resizing/enlarging page with small dimensions %.2fx%.2f.", rect.Width(), rect.Height())
		factor = enlargeFactor
	} else {
		xlog.Printf("  Resetting page rotation from %d to 0.", rotation)
	}

	if err := doc.ReplacePageWithScaledCopy(pageNr, float64(factor), true); err != nil {
		return false, errors.Wrap(err, "resize page")
	}
	return true, nil
}

// ReplaceJPX re-encodes every jpx image on the page as JPEG, in place.
// Grounded on original_source/ocr/crop.py's replace_jpx_images; unlike the
// Python original (which decodes via pymupdf/openjpeg), no JPEG-2000 decoder
// is available here, so jpx images are left untouched and logged rather than
// silently dropped or mis-decoded.
func ReplaceJPX(p pageCarrier) error {
	images, err := p.Images()
	if err != nil {
		return err
	}
	for _, img := range images {
		if img.Ext != "jpx" {
			continue
		}
		xlog.Printf("  Converting JPX image to JPG (bbox %v).", img.Bbox)
		raw, err := p.ImageBytes(img.Xref)
		if err != nil {
			return errors.Wrap(err, "read image bytes")
		}
		decoded, err := DecodeBytes(raw, img.Ext)
		if err != nil {
			xlog.Printf("  No JPEG-2000 decoder available, leaving image as jpx: %v", err)
			continue
		}
		encoded, err := encodeJPEG(decoded)
		if err != nil {
			return errors.Wrap(err, "encode jpeg")
		}
		if err := p.ReplaceImage(img.Xref, encoded, "jpeg"); err != nil {
			return errors.Wrap(err, "replace jpx image")
		}
	}
	return nil
}

// Crop crops every oversized single image on the page to the page
// rectangle. Grounded on original_source/ocr/crop.py's crop_images,
// including its exact skip conditions (rotated page, more than one image,
// jb2 format, already-tight-fitting image, insufficient size improvement).
func Crop(p pageCarrier) error {
	rect, err := p.Rect()
	if err != nil {
		return err
	}
	if p.Rotation() != 0 {
		xlog.Printf("  Skipping page because rotation is not 0 but %d.", p.Rotation())
		return nil
	}

	images, err := p.Images()
	if err != nil {
		return err
	}
	if len(images) != 1 {
		return nil
	}
	img := images[0]
	if img.Width == 1 && img.Height == 1 {
		return nil
	}
	if img.Ext == "jb2" {
		xlog.Printf("  Skipping JBIG2 image.")
		return nil
	}

	marginRect := ocr.NewRectangle(rect.X0-cropMarginPoints, rect.Y0-cropMarginPoints, rect.X1+cropMarginPoints, rect.Y1+cropMarginPoints)
	if marginRect.Contains(img.Bbox) {
		return nil
	}

	xlog.Printf("  Cropping %s image (bbox %v, page.rect %v).", img.Ext, img.Bbox, rect)

	if !rect.Intersects(img.Bbox) {
		xlog.Printf("  Image does not intersect the visible part of the page. Skipping image.")
		return nil
	}

	rotation, ok := rotationFromTransform(img.Transform)
	if !ok {
		xlog.Printf("  Image rotation could not be computed from transform matrix. Skipping image.")
		return nil
	}

	// crop = page.rect * transform^-1 * diag(width,height), per crop.py's
	// comment: "bbox / transform == Rect(0,0,1,1)", so page.rect in the
	// image's unit square, scaled to pixel dimensions, is the visible crop
	// window in pixel space.
	unitSquare := rect.Transform(img.Transform.Inverse())
	pixelScale := ocr.Scale(float64(img.Width), float64(img.Height))
	cropPixels := unitSquare.Transform(pixelScale)

	raw, err := p.ImageBytes(img.Xref)
	if err != nil {
		return errors.Wrap(err, "read image bytes")
	}
	decoded, err := DecodeBytes(raw, img.Ext)
	if err != nil {
		xlog.Printf("  Unsupported image format. Skipping image.")
		return nil
	}
	cropped := cropImage(decoded, cropPixels)

	encoded, err := encodeForExt(cropped, img.Ext)
	if err != nil {
		return errors.Wrap(err, "encode cropped image")
	}
	if float64(len(encoded)) >= cropSizeImprovementThreshold*float64(img.Size) {
		xlog.Printf("  Skipping crop as new image is not significantly smaller.")
		return nil
	}

	// Replace the image bytes in place (same object number, same `Do`
	// placement already in the content stream). The rotation recovered
	// above serves only as the skip check: its value is not used, the
	// cropped pixel window comes from the inverse transform alone, and the
	// placement transform on the page is untouched.
	_ = rotation
	if err := p.ReplaceImage(img.Xref, encoded, "jpeg"); err != nil {
		return errors.Wrap(err, "replace cropped image")
	}
	return nil
}

// rotationFromTransform determines the image's axis-aligned rotation
// (0/90/180/270) from the signs of its transform matrix entries, or ok=false
// if no axis-aligned rotation matches. Grounded verbatim on
// original_source/ocr/crop.py's rotation_from_transform_matrix.
func rotationFromTransform(m ocr.Matrix) (int, bool) {
	const epsilon = 1e-5
	near := func(v float64) bool { return v > -epsilon && v < epsilon }

	if near(m.B) && near(m.C) {
		if !near(m.A) && !near(m.D) {
			if m.A > 0 && m.D > 0 {
				return 0, true
			}
			if m.A < 0 && m.D < 0 {
				return 180, true
			}
		}
	}
	if near(m.A) && near(m.D) {
		if !near(m.B) && !near(m.C) {
			if m.B > 0 && m.C < 0 {
				return 90, true
			}
			if m.B < 0 && m.C > 0 {
				return 270, true
			}
		}
	}
	return 0, false
}

// errNoJPXDecoder is returned by DecodeBytes for ext "jpx". The original
// Python pipeline gets JPEG-2000 decoding for free from pymupdf, which links
// openjpeg; nothing in this module's dependency graph decodes a raw JP2
// codestream (golang.org/x/image's codecs are bmp/tiff/vp8/webp/etc, none of
// them JPEG-2000), so callers must treat jpx as unsupported rather than be
// handed a wrong decode.
var errNoJPXDecoder = errors.New("no JPEG-2000 decoder available for ext \"jpx\"")

// DecodeBytes decodes raw encoded image bytes according to ext.
// ocr.ImageInfo carries only metadata, not the raw bytes — pageCarrier's
// ImageBytes supplies them out of band.
func DecodeBytes(data []byte, ext string) (image.Image, error) {
	switch ext {
	case "jpeg":
		return jpeg.Decode(bytes.NewReader(data))
	case "jpx":
		return nil, errNoJPXDecoder
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		return img, err
	}
}

func encodeJPEG(img image.Image) ([]byte, error) {
	return EncodeJPEG(img)
}

// EncodeJPEG re-encodes img at the pipeline's standard quality (85, per
// spec.md §4.2/§4.4's "re-encode as JPEG quality 85"/"re-encode other
// formats as JPEG"), shared by Crop/ReplaceJPX and the OCR Request
// Builder's byte-budget downscale loop.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeForExt(img image.Image, ext string) ([]byte, error) {
	// Every non-JBIG2 re-encode in this package targets JPEG, matching
	// original_source/ocr/crop.py's cropped_image.tobytes(extension,
	// jpg_quality=85) — extension is passed through metadata but the pack's
	// PDF tooling (pdfcpu/unipdf) has first-class JPEG support, so crops are
	// normalized to JPEG regardless of source format (jb2 is filtered out
	// before reaching here).
	return encodeJPEG(img)
}

func cropImage(img image.Image, crop ocr.Rectangle) image.Image {
	b := img.Bounds()
	x0 := clampInt(int(crop.X0), b.Min.X, b.Max.X)
	y0 := clampInt(int(crop.Y0), b.Min.Y, b.Max.Y)
	x1 := clampInt(int(crop.X1), b.Min.X, b.Max.X)
	y1 := clampInt(int(crop.Y1), b.Min.Y, b.Max.Y)
	if x1 <= x0 || y1 <= y0 {
		return img
	}
	sub := image.Rect(0, 0, x1-x0, y1-y0)
	out := image.NewRGBA(sub)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			out.Set(x-x0, y-y0, img.At(x, y))
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Downscale shrinks img by one octave (factor 2 in each dimension), the
// resize step reused by the OCR Request Builder's byte-budget loop.
// Grounded on original_source/ocr/crop.py's downscale_images_x2
// (`img.shrink(1)`).
func Downscale(img image.Image) image.Image {
	b := img.Bounds()
	w := b.Dx() / 2
	h := b.Dy() / 2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
}

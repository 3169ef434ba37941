// Package reqbuild implements the OCR Request Builder: it carves a single
// page out of the working document and iteratively downscales its embedded
// images until the saved file clears the provider's byte budget. Grounded
// on original_source/ocr/applyocr.py's OCR.__init__ (the
// textract_doc_path single-page PDF the rest of the OCR flow operates
// against) and original_source/ocr/crop.py's downscale_images_x2 loop, per
// spec.md §4.4.
package reqbuild

import (
	"os"

	"github.com/pkg/errors"

	"github.com/geopdf/scanocr/normalize"
	"github.com/geopdf/scanocr/pdfdoc"
)

// MaxBytes is the OCR provider's per-request size budget.
const MaxBytes = 10 * 1024 * 1024

// MaxAttempts bounds the downscale-and-resave loop.
const MaxAttempts = 10

// Result is a built single-page request document, saved to Path under
// MaxBytes. Close must be called to remove the backing temporary file.
type Result struct {
	Doc  *pdfdoc.Document
	Path string
}

// Close removes the temporary file backing r.
func (r *Result) Close() {
	if r == nil {
		return
	}
	pdfdoc.RemoveExtractedPage(r.Path)
}

// Build extracts pageNr from doc and repeatedly halves its embedded image
// dimensions (re-encoding every format as JPEG) and re-saves until the file
// is under MaxBytes, up to MaxAttempts attempts. ok is false if the budget
// could not be met, or a downscale attempt made no progress — per spec.md
// §4.4, the caller should then skip the page (treat it as having an empty
// line set).
func Build(doc *pdfdoc.Document, pageNr int) (result *Result, ok bool, err error) {
	single, path, err := pdfdoc.ExtractSinglePage(doc, pageNr)
	if err != nil {
		return nil, false, err
	}
	// Re-save with deflate + garbage-collect-3 + object streams, per
	// spec.md §4.4 ("saved with deflate + garbage-collect-3 + object
	// streams"), rather than relying on extractSinglePage's internal
	// RemovePagesFile write.
	if err := single.Save(path); err != nil {
		pdfdoc.RemoveExtractedPage(path)
		return nil, false, errors.Wrap(err, "save request document")
	}

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		size, err := fileSize(path)
		if err != nil {
			pdfdoc.RemoveExtractedPage(path)
			return nil, false, err
		}
		if size < MaxBytes {
			return &Result{Doc: single, Path: path}, true, nil
		}

		progressed, err := downscaleImages(single)
		if err != nil {
			pdfdoc.RemoveExtractedPage(path)
			return nil, false, err
		}
		if !progressed {
			pdfdoc.RemoveExtractedPage(path)
			return nil, false, nil
		}
		if err := single.Save(path); err != nil {
			pdfdoc.RemoveExtractedPage(path)
			return nil, false, errors.Wrap(err, "save request document")
		}
	}

	size, err := fileSize(path)
	if err != nil {
		pdfdoc.RemoveExtractedPage(path)
		return nil, false, err
	}
	if size < MaxBytes {
		return &Result{Doc: single, Path: path}, true, nil
	}
	pdfdoc.RemoveExtractedPage(path)
	return nil, false, nil
}

// downscaleImages halves every embedded image's pixel dimensions in place,
// re-encoding as JPEG regardless of source format. Images one pixel wide or
// high cannot be shrunk further and are skipped, as are images DecodeBytes
// cannot decode; progress is reported false only when every image on the
// page was skipped (the condition spec.md §4.4 calls "a downscale step
// reports no progress").
func downscaleImages(doc *pdfdoc.Document) (bool, error) {
	page, err := doc.Page(1)
	if err != nil {
		return false, err
	}
	images, err := page.Images()
	if err != nil {
		return false, err
	}

	progressed := false
	for _, info := range images {
		if info.Width <= 1 || info.Height <= 1 {
			continue
		}
		raw, err := page.ImageBytes(info.Xref)
		if err != nil {
			return false, err
		}
		img, err := normalize.DecodeBytes(raw, info.Ext)
		if err != nil {
			// Undecodable embedded stream (e.g. a format this pipeline has
			// no decoder for): leave it as-is rather than fail the whole
			// request build.
			continue
		}
		small := normalize.Downscale(img)
		data, err := normalize.EncodeJPEG(small)
		if err != nil {
			return false, err
		}
		if err := page.ReplaceImage(info.Xref, data, "jpeg"); err != nil {
			return false, err
		}
		progressed = true
	}
	return progressed, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrapf(err, "stat %q", path)
	}
	return info.Size(), nil
}

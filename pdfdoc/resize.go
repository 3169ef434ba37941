package pdfdoc

import (
	"fmt"
	"image"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
)

// ReplacePageWithScaledCopy replaces the page at pageNr with a new page
// scaled by factor in both axes, stamping the original page's content onto
// it via ShowOverlayPage. If resetRotation is true the copy's rotation is
// forced to 0 and the stamped content is rotated by the original rotation's
// negation, matching original_source/ocr/resize.py's
// `new_page.show_pdf_page(new_page.rect, in_doc, page_index,
// rotate=-src_page_rotation)`.
//
// Grounded on spec.md §4.2's explicit ordering requirement (insert before
// delete) via InsertCarrierPage/DeletePage.
func (d *Document) ReplacePageWithScaledCopy(pageNr int, factor float64, resetRotation bool) error {
	p, err := d.Page(pageNr)
	if err != nil {
		return err
	}
	rect, err := p.Rect()
	if err != nil {
		return err
	}
	rotation := p.Rotation()

	carrier, err := NewBlankDocument(rect.Width()*factor, rect.Height()*factor)
	if err != nil {
		return err
	}

	source, sourcePath, err := extractSinglePage(d, pageNr)
	if err != nil {
		return err
	}
	defer removeTempFile(sourcePath)

	rotate := 0
	if resetRotation {
		rotate = -rotation
	}
	if err := ShowOverlayPage(carrier, 1, source, rotate); err != nil {
		return err
	}

	if err := d.InsertCarrierPage(carrier, pageNr); err != nil {
		return err
	}
	// After insertion the carrier's page occupies pageNr and the original
	// page has shifted to pageNr+1; delete the original last, never the
	// reverse (spec.md §4.2).
	return d.DeletePage(pageNr + 1)
}

// ExtractSinglePage returns a standalone Document containing only pageNr of
// d, backed by its own temporary file. Callers must remove it via
// RemoveExtractedPage once done (e.g. the OCR Request Builder's scratch
// single-page PDF, per spec.md §4.4).
func ExtractSinglePage(d *Document, pageNr int) (*Document, string, error) {
	return extractSinglePage(d, pageNr)
}

// RemoveExtractedPage deletes the temporary file backing a Document returned
// by ExtractSinglePage.
func RemoveExtractedPage(path string) {
	removeTempFile(path)
}

// extractSinglePage copies page pageNr of d out into its own single-page
// document, via the same RemovePagesFile primitive DeletePage uses (applied
// here to every page except the one being kept).
func extractSinglePage(d *Document, pageNr int) (*Document, string, error) {
	tmp, err := writeTempFile(d)
	if err != nil {
		return nil, "", err
	}
	var drop []string
	for i := 1; i <= d.PageCount(); i++ {
		if i != pageNr {
			drop = append(drop, fmt.Sprintf("%d", i))
		}
	}
	if len(drop) > 0 {
		if err := api.RemovePagesFile(tmp, tmp, drop, nil); err != nil {
			removeTempFile(tmp)
			return nil, "", errors.Wrap(err, "extract source page")
		}
	}
	doc, err := Open(tmp)
	if err != nil {
		removeTempFile(tmp)
		return nil, "", err
	}
	return doc, tmp, nil
}

// RenderPageAsImage is not used by the normalizer's current resize path
// (which stamps PDF content directly rather than rasterizing), but is kept
// as the document-level hook the normalize package's interface expects for
// future debug tooling (e.g. dumping a page preview alongside a processed
// document for manual QA).
func (d *Document) RenderPageAsImage(pageNr int, scale float64) (image.Image, error) {
	return nil, errors.New("RenderPageAsImage not implemented: page previews are out of scope for the OCR pipeline")
}

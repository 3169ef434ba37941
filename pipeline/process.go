package pipeline

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/geopdf/scanocr/clean"
	"github.com/geopdf/scanocr/ghostscript"
	"github.com/geopdf/scanocr/internal/xlog"
	"github.com/geopdf/scanocr/lineselect"
	"github.com/geopdf/scanocr/normalize"
	"github.com/geopdf/scanocr/ocr"
	"github.com/geopdf/scanocr/ocrprovider"
	"github.com/geopdf/scanocr/overlay"
	"github.com/geopdf/scanocr/pdfdoc"
	"github.com/geopdf/scanocr/readingorder"
	"github.com/geopdf/scanocr/reqbuild"
)

// Options configures a Process run, mirroring process_pdf's
// confidence_threshold/use_aggressive_strategy parameters.
type Options struct {
	ConfidenceThreshold   float64
	UseAggressiveStrategy bool
	DebugPage             int // 1-based; 0 means "all pages"
	Visible               bool
}

// processPage runs the full per-page flow against outDoc's page pageNr:
// normalize (if not digitally born) -> clean -> OCR -> reading order ->
// selection -> text-layer overlay. Grounded on process_pdf's per-page loop
// body in original_source/ocr/__init__.py.
func processPage(ctx context.Context, client *ocrprovider.Client, outDoc *pdfdoc.Document, pageNr int, opts Options) error {
	page, err := outDoc.Page(pageNr)
	if err != nil {
		return err
	}

	entries, err := page.BboxLog()
	if err != nil {
		return err
	}
	digitallyBorn := IsDigitallyBorn(entries)

	if !digitallyBorn {
		replaced, err := normalize.Resize(outDoc, page, pageNr)
		if err != nil {
			return errors.Wrap(err, "resize page")
		}
		if replaced {
			page, err = outDoc.Page(pageNr)
			if err != nil {
				return err
			}
		}
		if err := normalize.ReplaceJPX(page); err != nil {
			return errors.Wrap(err, "replace JPX images")
		}
		if err := normalize.Crop(page); err != nil {
			return errors.Wrap(err, "crop images")
		}
	}

	var mask *ocr.Mask
	switch {
	case opts.UseAggressiveStrategy:
		mask, err = clean.Aggressive(page)
		if err != nil {
			return errors.Wrap(err, "clean aggressive")
		}
	case !digitallyBorn:
		if err := clean.Standard(page); err != nil {
			return errors.Wrap(err, "clean standard")
		}
	default:
		xlog.Printf("  Skipping digitally-born page.")
		return nil
	}

	pageRect, err := page.Rect()
	if err != nil {
		return err
	}

	req, ok, err := reqbuild.Build(outDoc, pageNr)
	if err != nil {
		return errors.Wrap(err, "build OCR request")
	}
	if !ok {
		return nil
	}
	defer req.Close()

	lines, err := ApplyOCR(ctx, client, req.Doc, pageRect, opts.ConfidenceThreshold)
	if err != nil {
		return errors.Wrap(err, "OCR page")
	}

	blocks := readingorder.Sort(lines)
	drawLines := lineselect.Select(blocks, opts.ConfidenceThreshold, mask)

	overlayDoc, err := overlay.Synthesize(pageRect, drawLines, opts.Visible)
	if err != nil {
		return errors.Wrap(err, "build text layer")
	}

	// ShowOverlayPage stamps outDoc's backing file and reopens it, so the
	// page's in-memory changes (clean-up, rotation reset) are saved first and
	// the rotation is restored on the reopened page.
	rotation := page.Rotation()
	page.SetRotation(0)
	if err := outDoc.IncrementalSave(); err != nil {
		return errors.Wrap(err, "save before text layer")
	}
	if err := pdfdoc.ShowOverlayPage(outDoc, pageNr, overlayDoc, rotation); err != nil {
		return errors.Wrap(err, "apply text layer")
	}
	page, err = outDoc.Page(pageNr)
	if err != nil {
		return err
	}
	page.SetRotation(rotation)
	return nil
}

// processDoc runs processPage over every page of outDoc (or just
// opts.DebugPage if set), incrementally saving after each page, matching
// process_pdf's per-page incremental-save loop.
func processDoc(ctx context.Context, client *ocrprovider.Client, outDoc *pdfdoc.Document, opts Options) error {
	pageCount := outDoc.PageCount()
	for pageNr := 1; pageNr <= pageCount; pageNr++ {
		if opts.DebugPage != 0 && pageNr != opts.DebugPage {
			continue
		}
		xlog.Printf("Processing page %d/%d", pageNr, pageCount)
		if err := processPage(ctx, client, outDoc, pageNr, opts); err != nil {
			return errors.Wrapf(err, "page %d", pageNr)
		}
		if err := outDoc.IncrementalSave(); err != nil {
			return errors.Wrapf(err, "incremental save after page %d", pageNr)
		}
	}
	return nil
}

// process opens inPath, runs processDoc over a private scratch copy of it
// (IncrementalSave rewrites its own backing file in place between pages, so
// the working copy must never be inPath itself), and writes the final
// result to outPath, asserting the page count is unchanged — mirroring
// process_pdf's tmp_out_path incremental-save scratch file and its final
// garbage=3+deflate+object-streams save plus in/out page-count assertion.
func process(ctx context.Context, client *ocrprovider.Client, inPath, outPath string, opts Options) error {
	inDoc, err := pdfdoc.Open(inPath)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	inPageCount := inDoc.PageCount()

	workPath := outPath + ".incremental.pdf"
	if err := copyFile(inPath, workPath); err != nil {
		return errors.Wrap(err, "create incremental working copy")
	}
	defer os.Remove(workPath)

	outDoc, err := pdfdoc.Open(workPath)
	if err != nil {
		return errors.Wrap(err, "open working copy")
	}

	if err := processDoc(ctx, client, outDoc, opts); err != nil {
		return err
	}

	if err := outDoc.Save(outPath); err != nil {
		return errors.Wrap(err, "final save")
	}

	check, err := pdfdoc.Open(outPath)
	if err != nil {
		return errors.Wrap(err, "reopen output for verification")
	}
	if check.PageCount() != inPageCount {
		return errors.Errorf("page count mismatch: input had %d pages, output has %d", inPageCount, check.PageCount())
	}
	return nil
}

// Process runs the full pipeline against inPath, writing the searchable
// result to outPath. If the first attempt fails with any error and
// Ghostscript is available, it retries once after repairing inPath through
// Ghostscript into scratchPath. The error is not classified first, so
// failures unrelated to the document format are retried the same way.
// Mirrors original_source/ocr/__init__.py's process() exception-driven
// Ghostscript fallback.
func Process(ctx context.Context, client *ocrprovider.Client, inPath, outPath, scratchPath string, opts Options) error {
	firstErr := process(ctx, client, inPath, outPath, opts)
	if firstErr == nil {
		return nil
	}
	if !ghostscript.Available() {
		return firstErr
	}

	xlog.Printf("Processing failed (%v); retrying after Ghostscript repair", firstErr)
	repairedPath := scratchPath
	if err := ghostscript.Repair(inPath, repairedPath); err != nil {
		return errors.Wrap(firstErr, "process failed and repair also failed: "+err.Error())
	}
	return process(ctx, client, repairedPath, outPath, opts)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// Package pdfdoc adapts the pdfcpu toolkit into the strongly typed PageRef
// surface the rest of the pipeline is built against, pushing pdfcpu's
// dynamically-typed dictionaries to this one boundary (spec.md §9's "Dynamic
// typing in PDF primitives" design note).
package pdfdoc

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"

	"github.com/geopdf/scanocr/bbox"
	"github.com/geopdf/scanocr/ocr"
)

// Document is an open PDF file, mutated in place per-page by the pipeline
// and written back out by Save.
type Document struct {
	ctx  *model.Context
	path string
}

// Open reads a PDF file into memory, grounded on
// rmconvert/ocr_pdf.go's addOCRTextToPDF use of api.ReadContextFile.
func Open(path string) (*Document, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open pdf %q", path)
	}
	return &Document{ctx: ctx, path: path}, nil
}

// PageCount returns the number of pages currently in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Page returns a PageRef for the given 1-based page number.
func (d *Document) Page(pageNr int) (*PageRef, error) {
	pageDict, pageIndRef, inh, err := d.ctx.XRefTable.PageDict(pageNr, false)
	if err != nil {
		return nil, errors.Wrapf(err, "page dict %d", pageNr)
	}
	return &PageRef{
		doc:     d,
		nr:      pageNr,
		dict:    pageDict,
		indRef:  pageIndRef,
		inh:     inh,
	}, nil
}

// Save writes the document out with deflate + garbage-collect-3 + object
// streams, per spec.md §6's "final save must use deflate + garbage-collect-3
// + object streams."
func (d *Document) Save(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true
	d.ctx.Configuration = conf
	if err := api.WriteContextFile(d.ctx, path); err != nil {
		return errors.Wrapf(err, "write pdf %q", path)
	}
	return nil
}

// IncrementalSave writes the current in-memory document back over its own
// backing file (a full rewrite, not an appended update), used between
// per-page mutations in the main pipeline loop (spec.md §7's incremental-save-per-page orchestration).
func (d *Document) IncrementalSave() error {
	if err := api.WriteContextFile(d.ctx, d.path); err != nil {
		return errors.Wrap(err, "incremental save")
	}
	return nil
}

// InsertCarrierPage inserts the page currently held by carrier at index
// pageNr into d, ahead of any deletion of the original page. Grounded on
// spec.md §4.2's explicit ordering requirement: "Must insert the new page at
// the same index then delete the old, never the reverse (a known toolkit bug
// corrupts the kids array otherwise.)"
func (d *Document) InsertCarrierPage(carrier *Document, pageNr int) error {
	tmp, err := writeTempFile(carrier)
	if err != nil {
		return err
	}
	defer removeTempFile(tmp)
	if err := api.InsertPagesFile(tmp, d.path, []string{fmt.Sprintf("%d", pageNr)}, true, nil); err != nil {
		return errors.Wrap(err, "insert carrier page")
	}
	reopened, err := Open(d.path)
	if err != nil {
		return err
	}
	*d = *reopened
	return nil
}

// DeletePage removes the page at the given 1-based index.
func (d *Document) DeletePage(pageNr int) error {
	if err := api.RemovePagesFile(d.path, d.path, []string{fmt.Sprintf("%d", pageNr)}, nil); err != nil {
		return errors.Wrapf(err, "delete page %d", pageNr)
	}
	reopened, err := Open(d.path)
	if err != nil {
		return err
	}
	*d = *reopened
	return nil
}

// PageRef is an opaque handle onto one page of a Document, per spec.md §3's
// PageRef data-model entry.
type PageRef struct {
	doc               *Document
	nr                int
	dict              types.Dict
	indRef            types.IndirectRef
	inh               *model.InheritedPageAttrs
	pendingRedactions []ocr.Rectangle
}

// Rect returns the page's effective content rectangle (its cropbox if set,
// otherwise its mediabox).
func (p *PageRef) Rect() (ocr.Rectangle, error) {
	dims, err := p.doc.ctx.XRefTable.PageDims()
	if err != nil {
		return ocr.Rectangle{}, errors.Wrap(err, "page dims")
	}
	if p.nr-1 >= len(dims) {
		return ocr.Rectangle{}, errors.Errorf("page %d out of range", p.nr)
	}
	dim := dims[p.nr-1]
	return ocr.NewRectangle(0, 0, dim.Width, dim.Height), nil
}

// Rotation returns the page's effective rotation in degrees (0, 90, 180, or
// 270), inherited from an ancestor Pages node when not set directly.
func (p *PageRef) Rotation() int {
	if v, ok := p.dict["Rotate"].(types.Integer); ok {
		return int(v)
	}
	if p.inh != nil {
		return p.inh.Rotate
	}
	return 0
}

// SetRotation sets the page's /Rotate entry directly (non-inherited).
func (p *PageRef) SetRotation(degrees int) {
	p.dict["Rotate"] = types.Integer(((degrees % 360) + 360) % 360)
}

// boxRect reads a box entry (/MediaBox or /CropBox) as a Rectangle,
// dereferencing an indirect array if needed.
func (p *PageRef) boxRect(key string) (ocr.Rectangle, bool, error) {
	obj, ok := p.dict[key]
	if !ok {
		return ocr.Rectangle{}, false, nil
	}
	deref, err := p.doc.ctx.Dereference(obj)
	if err != nil {
		return ocr.Rectangle{}, false, errors.Wrapf(err, "dereference %s", key)
	}
	arr, ok := deref.(types.Array)
	if !ok || len(arr) != 4 {
		return ocr.Rectangle{}, false, errors.Errorf("%s not a 4-element array", key)
	}
	vals := make([]float64, 4)
	for i, v := range arr {
		f, err := numberValue(v)
		if err != nil {
			return ocr.Rectangle{}, false, err
		}
		vals[i] = f
	}
	return ocr.NewRectangle(vals[0], vals[1], vals[2], vals[3]), true, nil
}

func numberValue(o types.Object) (float64, error) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v), nil
	case types.Float:
		return float64(v), nil
	default:
		return 0, errors.Errorf("unsupported numeric type %T", o)
	}
}

// MediaBox returns the page's /MediaBox, falling back to its Rect if absent.
func (p *PageRef) MediaBox() (ocr.Rectangle, error) {
	r, ok, err := p.boxRect("MediaBox")
	if err != nil {
		return ocr.Rectangle{}, err
	}
	if ok {
		return r, nil
	}
	return p.Rect()
}

// CropBox returns the page's /CropBox, falling back to its MediaBox if
// absent.
func (p *PageRef) CropBox() (ocr.Rectangle, error) {
	r, ok, err := p.boxRect("CropBox")
	if err != nil {
		return ocr.Rectangle{}, err
	}
	if ok {
		return r, nil
	}
	return p.MediaBox()
}

// SetCropBox sets the page's /CropBox directly. Used by the OCR Invoker to
// restrict the clip rect before submission (spec.md §4.5).
func (p *PageRef) SetCropBox(r ocr.Rectangle) {
	p.dict["CropBox"] = types.Array{
		types.Float(r.X0), types.Float(r.Y0), types.Float(r.X1), types.Float(r.Y1),
	}
}

// BboxLog returns the page's drawing-operator log, via the bbox package's
// unipdf-based content-stream classifier.
func (p *PageRef) BboxLog() ([]ocr.BboxEntry, error) {
	content, err := p.content()
	if err != nil {
		return nil, err
	}
	entries, _, err := bbox.Classify(content)
	return entries, err
}

// content returns the page's decoded content stream bytes, concatenating
// multiple content streams if /Contents is an array.
func (p *PageRef) content() ([]byte, error) {
	raw, err := p.doc.ctx.PageContent(p.indRef, p.nr)
	if err != nil {
		return nil, errors.Wrapf(err, "page content %d", p.nr)
	}
	return raw, nil
}

// AddRedactAnnotation queues rect for removal, applied later in one batch by
// ApplyRedactions. Grounded on original_source/ocr/clean.py's
// add_redact_annot call pattern (batched, not applied one at a time, because
// — per that file's own comment — applying redactions individually can make
// surviving glyphs drift to the wrong position).
func (p *PageRef) AddRedactAnnotation(rect ocr.Rectangle) {
	p.pendingRedactions = append(p.pendingRedactions, rect)
}

// PendingRedactionCount reports how many redaction rects are queued.
func (p *PageRef) PendingRedactionCount() int {
	return len(p.pendingRedactions)
}

// ApplyRedactions rewrites the page's content stream, dropping every
// text-painting run whose rect lies under a queued redaction, then clears
// the queue. Images are never touched by a redaction — this pipeline has no
// path that redacts image content, matching
// original_source/ocr/clean.py's `images=PDF_REDACT_IMAGE_NONE`.
func (p *PageRef) ApplyRedactions() (int, error) {
	if len(p.pendingRedactions) == 0 {
		return 0, nil
	}
	content, err := p.content()
	if err != nil {
		return 0, err
	}
	newContent, removed, err := bbox.RedactText(content, p.pendingRedactions)
	if err != nil {
		return 0, errors.Wrap(err, "redact content stream")
	}
	p.pendingRedactions = nil
	return removed, p.replaceContent(newContent)
}

// replaceContent swaps the page's /Contents for a single new stream holding
// content, discarding whatever content stream(s) were there before.
func (p *PageRef) replaceContent(content []byte) error {
	x := p.doc.ctx.XRefTable
	sd := types.NewStreamDict(types.Dict{}, int64(len(content)), nil, nil, nil)
	sd.Content = content
	sd.Raw = content
	ir, err := x.IndRefForNewObject(sd)
	if err != nil {
		return errors.Wrap(err, "new content stream object")
	}
	p.dict["Contents"] = *ir
	objNr := p.indRef.ObjectNumber.Value()
	entry, found := x.Table[objNr]
	if !found {
		return errors.Errorf("page object %d not found in xref table", objNr)
	}
	entry.Object = p.dict
	return nil
}

// AppendOverlayContent appends a raw content stream (e.g. the invisible-text
// stream built by the overlay package) to the page's /Contents, creating the
// Helvetica font resource first if absent. Grounded verbatim on
// rmconvert/ocr_pdf.go's appendTextStreamToPage/ensureHelveticaFont pair.
func (p *PageRef) AppendOverlayContent(content []byte) error {
	x := p.doc.ctx.XRefTable

	if err := p.ensureHelveticaFont(x); err != nil {
		return err
	}

	length := int64(len(content))
	sd := types.NewStreamDict(types.Dict{}, length, nil, nil, nil)
	sd.Content = content
	sd.Raw = content

	newIR, err := x.IndRefForNewObject(sd)
	if err != nil {
		return errors.Wrap(err, "new stream object")
	}

	co := p.dict["Contents"]
	switch c := co.(type) {
	case nil:
		p.dict["Contents"] = *newIR
	case types.IndirectRef:
		p.dict["Contents"] = types.Array{c, *newIR}
	case types.Array:
		p.dict["Contents"] = append(c, *newIR)
	default:
		return errors.Errorf("unsupported Contents type: %T", co)
	}

	objNr := p.indRef.ObjectNumber.Value()
	entry, found := x.Table[objNr]
	if !found {
		return errors.Errorf("page object %d not found in xref table", objNr)
	}
	entry.Object = p.dict
	return nil
}

func (p *PageRef) ensureHelveticaFont(x *model.XRefTable) error {
	resDict, err := dictEntry(x, p.dict, "Resources")
	if err != nil {
		return err
	}
	fontDict, err := dictEntry(x, resDict, "Font")
	if err != nil {
		return err
	}
	if _, ok := fontDict["F0"]; ok {
		return nil
	}
	helv := types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name("Helvetica"),
		"Encoding": types.Name("WinAnsiEncoding"),
	}
	ir, err := x.IndRefForNewObject(helv)
	if err != nil {
		return err
	}
	fontDict["F0"] = *ir
	return nil
}

// dictEntry fetches (creating if absent) a nested dict entry of parent,
// dereferencing indirect references. Generalizes the Resources/Font
// get-or-create pattern from rmconvert/ocr_pdf.go's ensureHelveticaFont into
// a single helper reused for both levels.
func dictEntry(x *model.XRefTable, parent types.Dict, key string) (types.Dict, error) {
	obj := parent[key]
	switch v := obj.(type) {
	case nil:
		d := types.Dict{}
		parent[key] = d
		return d, nil
	case types.Dict:
		return v, nil
	case types.IndirectRef:
		deref, err := x.Dereference(v)
		if err != nil {
			return nil, err
		}
		d, ok := deref.(types.Dict)
		if !ok {
			return nil, errors.Errorf("%s not a dict: %T", key, deref)
		}
		return d, nil
	default:
		return nil, errors.Errorf("unsupported %s type: %T", key, obj)
	}
}

// ShowOverlayPage overlays the single page of the given overlay document
// onto p, rotating the stamped content by rotationDegrees about the page
// center. Before overlaying, the caller must have reset page rotation to 0
// per spec.md §4.12; the caller is responsible for restoring it afterward.
func ShowOverlayPage(target *Document, pageNr int, overlay *Document, rotationDegrees int) error {
	tmp, err := writeTempFile(overlay)
	if err != nil {
		return err
	}
	defer removeTempFile(tmp)

	pageSelector := fmt.Sprintf("%d", pageNr)
	desc := fmt.Sprintf("pos:c, scale:1 rel, rotation:%d", rotationDegrees)
	if err := api.AddPDFWatermarksFile(target.path, "", []string{pageSelector}, true, tmp, desc, nil); err != nil {
		return errors.Wrap(err, "show overlay page")
	}
	reopened, err := Open(target.path)
	if err != nil {
		return err
	}
	*target = *reopened
	return nil
}

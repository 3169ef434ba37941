package ocr

// BboxKind classifies one entry of a page's drawing-operator log.
type BboxKind string

const (
	KindFillText    BboxKind = "fill-text"
	KindStrokeText  BboxKind = "stroke-text"
	KindFillPath    BboxKind = "fill-path"
	KindFillImage   BboxKind = "fill-image"
	KindIgnoreText  BboxKind = "ignore-text"
	KindOther       BboxKind = "other"
)

// BboxEntry is one entry of a page's bbox-log: a drawing operator kind
// together with the rectangle it painted.
type BboxEntry struct {
	Kind BboxKind
	Rect Rectangle
}

// ImageInfo describes one image embedded on a page, as exposed by the PDF
// toolkit adapter. Xref is the toolkit's object reference for the image
// stream (used to replace/re-insert it in place).
type ImageInfo struct {
	Xref      int
	Width     int
	Height    int
	Bbox      Rectangle
	Transform Matrix
	Ext       string // "jpeg", "jpx", "jb2", "png", ...
	Size      int    // encoded byte size
}

// TextWord is a single OCR-detected word, already converted into page space
// and derotated.
type TextWord struct {
	Text          string
	DerotatedRect Rectangle
	Orientation   float64 // degrees
}

// TextLine is a single OCR-detected line of text.
//
// Invariant: DerotatedRect is never empty. Words may be empty only for
// lines synthesized in tests.
type TextLine struct {
	Text          string
	Orientation   float64
	DerotatedRect Rectangle
	Rect          Rectangle // in original page space, not derotated
	Confidence    float64   // in [0,1]
	Words         []TextWord
}

// SortKey is the per-line reading-order sort key used by the block-starting
// search: x0 + 2*y0, so that vertical position dominates horizontal
// position when picking a candidate head line.
func (l TextLine) SortKey() float64 {
	return l.Rect.X0 + 2*l.Rect.Y0
}

// ReadingOrderBlock groups one or more TextLine into a single reading-order
// unit (e.g. a paragraph or column fragment).
//
// Invariant: Lines is never empty.
type ReadingOrderBlock struct {
	Lines []TextLine
	Rect  Rectangle
	// SortKey is min(x0+y0) over the block's lines. The reading-order sorter
	// does not use it; it picks heads by TextLine.SortKey.
	SortKey float64
}

// NewReadingOrderBlock builds a ReadingOrderBlock from a non-empty slice of
// lines, computing its bounding rect and sort key.
func NewReadingOrderBlock(lines []TextLine) ReadingOrderBlock {
	if len(lines) == 0 {
		return ReadingOrderBlock{}
	}
	rect := lines[0].Rect
	sortKey := lines[0].Rect.X0 + lines[0].Rect.Y0
	for _, l := range lines[1:] {
		rect = rect.Union(l.Rect)
		if k := l.Rect.X0 + l.Rect.Y0; k < sortKey {
			sortKey = k
		}
	}
	return ReadingOrderBlock{Lines: lines, Rect: rect, SortKey: sortKey}
}

// Text joins the block's lines' text with single spaces, in line order.
func (b ReadingOrderBlock) Text() string {
	out := ""
	for i, l := range b.Lines {
		if i > 0 {
			out += " "
		}
		out += l.Text
	}
	return out
}

// Column is the inferred vertical reading channel used while extending a
// ReadingOrderBlock downward.
type Column struct {
	Rect              Rectangle
	BottomOfFirstLine float64
	TopOfLastLine     float64
}

// ProcessResult is returned to the target writer once a document has been
// processed.
type ProcessResult struct {
	NumberOfPages *int
}

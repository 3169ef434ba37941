package pdfdoc

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NewBlankDocument writes a minimal single-page PDF of the given size (in
// points) to a scratch file and opens it. Grounded on the raw
// object/xref/trailer PDF construction idiom used elsewhere in the pack for
// hand-built PDFs (rather than pulling in a second high-level PDF writer just
// for an empty page) — a blank page needs nothing pdfcpu's own object model
// doesn't already express directly as bytes.
func NewBlankDocument(width, height float64) (*Document, error) {
	path := os.TempDir() + string(os.PathSeparator) + "scanocr-blank-" + uuid.NewString() + ".pdf"
	if err := writeBlankPDF(path, width, height); err != nil {
		return nil, err
	}
	return Open(path)
}

func writeBlankPDF(path string, width, height float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create blank pdf")
	}
	defer f.Close()

	var offsets [4]int
	written := 0
	write := func(s string) error {
		n, err := f.WriteString(s)
		written += n
		return err
	}

	if err := write("%PDF-1.7\n"); err != nil {
		return err
	}

	offsets[0] = written
	if err := write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n"); err != nil {
		return err
	}

	offsets[1] = written
	if err := write("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n"); err != nil {
		return err
	}

	offsets[2] = written
	pageObj := fmt.Sprintf("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << >> /Contents 4 0 R >>\nendobj\n", width, height)
	if err := write(pageObj); err != nil {
		return err
	}

	offsets[3] = written
	if err := write("4 0 obj\n<< /Length 0 >>\nstream\n\nendstream\nendobj\n"); err != nil {
		return err
	}

	xrefOffset := written
	if err := write("xref\n0 5\n0000000000 65535 f \n"); err != nil {
		return err
	}
	for _, off := range offsets {
		if err := write(fmt.Sprintf("%010d 00000 n \n", off)); err != nil {
			return err
		}
	}
	if err := write("trailer\n<< /Size 5 /Root 1 0 R >>\n"); err != nil {
		return err
	}
	if err := write(fmt.Sprintf("startxref\n%d\n%%%%EOF", xrefOffset)); err != nil {
		return err
	}
	return nil
}

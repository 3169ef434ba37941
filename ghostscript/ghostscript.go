// Package ghostscript wraps the "gs" command-line tool, used as a
// last-resort repair pass for source PDFs that MuPDF-style document
// libraries reject outright. Grounded on original_source/ocr/__init__.py's
// process() exception handler, per spec.md §7's first recoverable-error
// taxonomy item.
package ghostscript

import (
	"os/exec"

	"github.com/pkg/errors"
)

// BinaryName is the executable looked up on PATH. Overridable in tests.
var BinaryName = "gs"

// Available reports whether the gs binary can be found on PATH.
func Available() bool {
	_, err := exec.LookPath(BinaryName)
	return err == nil
}

// Repair rewrites inPath into outPath via Ghostscript's pdfwrite device at
// PDF compatibility level 1.4 with default distiller settings, matching the
// teacher's `gs -sDEVICE=pdfwrite -dCompatibilityLevel=1.4
// -dPDFSETTINGS=/default -dNOPAUSE -dQUIET -dBATCH -sOutputFile=...`
// invocation. Many malformed PDFs that a strict reader rejects round-trip
// cleanly through this pass.
func Repair(inPath, outPath string) error {
	cmd := exec.Command(BinaryName,
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/default",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile="+outPath,
		inPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "gs repair failed: %s", string(out))
	}
	return nil
}

package pdfdoc

import (
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// writeTempFile persists doc to a scratch file so pdfcpu's file-oriented
// APIs (which take paths, not *model.Context, for multi-document
// operations like page insertion and watermarking) can consume it.
// Grounded on original_source/ocr/applyocr.py's use of uuid4() for scoped
// temporary file naming.
func writeTempFile(doc *Document) (string, error) {
	path := os.TempDir() + string(os.PathSeparator) + "scanocr-" + uuid.NewString() + ".pdf"
	if err := doc.Save(path); err != nil {
		return "", errors.Wrap(err, "write temp document")
	}
	return path, nil
}

func removeTempFile(path string) {
	_ = os.Remove(path)
}

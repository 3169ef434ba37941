// Package clean implements the two OCR Cleaner policies of spec.md §4.3:
// a standard pass that strips old invisible OCR text, and an aggressive
// pass that also builds a coverage mask so OCR is never re-applied where
// visible text already exists.
package clean

import (
	"github.com/geopdf/scanocr/internal/xlog"
	"github.com/geopdf/scanocr/ocr"
)

// page is the minimal surface clean needs from a pdfdoc.PageRef, kept as an
// interface so this package can be tested without constructing a real PDF.
type page interface {
	BboxLog() ([]ocr.BboxEntry, error)
	Rect() (ocr.Rectangle, error)
	AddRedactAnnotation(rect ocr.Rectangle)
	ApplyRedactions() (int, error)
}

// Standard removes every ignore-text rectangle in one redaction batch.
// Grounded on original_source/ocr/clean.py's clean_old_ocr.
func Standard(p page) error {
	entries, err := p.BboxLog()
	if err != nil {
		return err
	}

	counter := 0
	for _, e := range entries {
		if e.Kind == ocr.KindIgnoreText {
			p.AddRedactAnnotation(e.Rect)
			counter++
		}
	}
	if counter > 0 {
		if _, err := p.ApplyRedactions(); err != nil {
			return err
		}
		xlog.Printf("  %d boxes removed", counter)
	}
	return nil
}

// shrinkFraction is the per-side shrink applied before testing a
// low-coverage ignore-text rect, matching spec.md §4.3's "rectangle shrunk
// by 10% on each side."
const shrinkFraction = 0.10

// lowCoverageThreshold is the mask coverage ratio under which a shrunk
// ignore-text rect is still treated as invisible, per spec.md §4.3 ("handles
// scans that emit each word as its own image slightly smaller than the OCR
// bbox").
const lowCoverageThreshold = 0.2

// Aggressive builds a mask of possibly-visible text while scrubbing
// old-OCR / image-occluded text, and returns the final mask. Grounded on
// original_source/ocr/clean.py's clean_old_ocr_aggressive.
func Aggressive(p page) (*ocr.Mask, error) {
	entries, err := p.BboxLog()
	if err != nil {
		return nil, err
	}
	rect, err := p.Rect()
	if err != nil {
		return nil, err
	}

	mask := ocr.NewMask(rect)
	possiblyVisible := make(map[ocr.Rectangle]bool)
	invisible := make(map[ocr.Rectangle]bool)

	for _, e := range entries {
		switch e.Kind {
		case ocr.KindIgnoreText:
			if !mask.Intersects(e.Rect) {
				invisible[e.Rect] = true
				continue
			}
			shrunk := shrink(e.Rect, shrinkFraction)
			if mask.CoverageRatio(shrunk) < lowCoverageThreshold {
				invisible[e.Rect] = true
			}
		case ocr.KindFillText, ocr.KindStrokeText, ocr.KindFillPath:
			if !e.Rect.IsEmpty() {
				mask.AddRect(e.Rect)
				possiblyVisible[e.Rect] = true
			}
		case ocr.KindFillImage:
			for r := range possiblyVisible {
				if e.Rect.Contains(r) {
					invisible[r] = true
					delete(possiblyVisible, r)
				}
			}
			mask.RemoveRect(e.Rect)
		}
	}

	counter := 0
	for r := range invisible {
		p.AddRedactAnnotation(r)
		counter++
	}
	if counter > 0 {
		if _, err := p.ApplyRedactions(); err != nil {
			return nil, err
		}
		xlog.Printf("  %d boxes removed", counter)
	}
	if len(possiblyVisible) > 0 {
		xlog.Printf("  %d boxes preserved", len(possiblyVisible))
	}

	return mask, nil
}

// shrink returns rect shrunk by fraction on every side.
func shrink(rect ocr.Rectangle, fraction float64) ocr.Rectangle {
	dx := rect.Width() * fraction
	dy := rect.Height() * fraction
	return ocr.NewRectangle(rect.X0+dx, rect.Y0+dy, rect.X1-dx, rect.Y1-dy)
}

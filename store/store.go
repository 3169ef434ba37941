// Package store provides the asset source/target abstraction that the HTTP
// front-end and the one-shot CLI batch runner share: where input PDFs come
// from and where processed output goes. Grounded on
// original_source/ocr/source.py and original_source/ocr/target.py; carried
// as a supplemented feature per SPEC_FULL.md (spec.md treats object-store
// I/O as an out-of-scope named interface).
package store

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Item is one PDF available to be processed, staged into a scratch
// directory before the pipeline touches it.
type Item struct {
	// Filename is the base name the item is known by downstream (skip
	// checks, output naming).
	Filename string
	// tmpDir is this item's own scratch subdirectory, mirroring
	// AssetItem.tmp_dir ("separate tmp dir per file").
	tmpDir string
	load    func(dst string) error
}

// TmpPath is where Load places (or has placed) the item's working copy.
func (it *Item) TmpPath() string {
	return filepath.Join(it.tmpDir, it.Filename)
}

// ResultTmpPath is the scratch path the pipeline writes its processed
// output to, before Target.Save copies/uploads it to its final home.
func (it *Item) ResultTmpPath() string {
	return filepath.Join(it.tmpDir, "new_"+it.Filename)
}

// Load stages the item into its scratch directory, ready for TmpPath to be
// opened for processing.
func (it *Item) Load() error {
	if err := os.MkdirAll(it.tmpDir, 0o755); err != nil {
		return errors.Wrapf(err, "create scratch dir %q", it.tmpDir)
	}
	return it.load(it.TmpPath())
}

// Source enumerates the PDFs a job run should process.
type Source interface {
	Items() ([]*Item, error)
}

// FileSource walks a single file or a directory of *.pdf files.
type FileSource struct {
	// InPath is a single PDF, or a directory to glob for "*.pdf".
	InPath string
	// SkipFilenames excludes items already present at the target, when
	// the caller wants skip-existing-output behavior.
	SkipFilenames map[string]bool
	// ScratchRoot is the parent scratch directory; each item gets its own
	// subdirectory under it, named by a fresh UUID to avoid collisions
	// between same-named files from different directories.
	ScratchRoot string
}

func (s *FileSource) Items() ([]*Item, error) {
	info, err := os.Stat(s.InPath)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %q", s.InPath)
	}

	var paths []string
	if info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(s.InPath, "*.pdf"))
		if err != nil {
			return nil, errors.Wrapf(err, "glob %q", s.InPath)
		}
		sort.Strings(matches)
		paths = matches
	} else {
		paths = []string{s.InPath}
	}

	var items []*Item
	for _, p := range paths {
		name := filepath.Base(p)
		if s.SkipFilenames[name] {
			continue
		}
		src := p
		items = append(items, &Item{
			Filename: name,
			tmpDir:   filepath.Join(s.ScratchRoot, uuid.NewString()),
			load: func(dst string) error {
				return copyFile(src, dst)
			},
		})
	}
	return items, nil
}

// Target is where a processed PDF ends up.
type Target interface {
	// Save commits item's ResultTmpPath to the target's final location.
	Save(item *Item) error
	// ExistingFilenames lists output names already present, for
	// skip-existing-output filtering on the source side.
	ExistingFilenames() (map[string]bool, error)
}

// FileTarget writes processed output into a local directory.
type FileTarget struct {
	OutPath string
}

func (t *FileTarget) Save(item *Item) error {
	if err := os.MkdirAll(t.OutPath, 0o755); err != nil {
		return errors.Wrapf(err, "create output dir %q", t.OutPath)
	}
	return copyFile(item.ResultTmpPath(), filepath.Join(t.OutPath, item.Filename))
}

func (t *FileTarget) ExistingFilenames() (map[string]bool, error) {
	matches, err := filepath.Glob(filepath.Join(t.OutPath, "*"))
	if err != nil {
		return nil, errors.Wrapf(err, "glob %q", t.OutPath)
	}
	names := make(map[string]bool, len(matches))
	for _, m := range matches {
		names[filepath.Base(m)] = true
	}
	return names, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open %q", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "create %q", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "copy %q to %q", src, dst)
	}
	return out.Close()
}

// IsPDFFilename reports whether name looks like a PDF by extension,
// matching the Python source's case-sensitive ".pdf" directory glob (S3
// listings there use a case-insensitive suffix check instead).
func IsPDFFilename(name string) bool {
	return strings.HasSuffix(name, ".pdf")
}

// Command scanocr is the one-shot batch runner: it walks a source of PDFs,
// runs each through the pipeline, and writes results to a target,
// optionally skipping files already present at the output. Grounded on
// original_source/main.py's load_source/load_target/main.
package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/ogier/pflag"
	"github.com/pkg/errors"

	"github.com/geopdf/scanocr/config"
	"github.com/geopdf/scanocr/internal/xlog"
	"github.com/geopdf/scanocr/ocrprovider"
	"github.com/geopdf/scanocr/pipeline"
	"github.com/geopdf/scanocr/store"
)

func main() {
	endpoint := flag.String("endpoint", "", "OCR provider endpoint")
	jwtSecretEnv := flag.String("jwt-secret-env", "OCR_JWT_SECRET", "environment variable holding the provider JWT signing secret")
	rps := flag.Float64("requests-per-second", 1, "OCR provider rate limit")
	flag.Parse()

	if err := run(*endpoint, *jwtSecretEnv, *rps); err != nil {
		fmt.Fprintln(os.Stderr, "scanocr:", err)
		os.Exit(1)
	}
}

func run(endpointOverride, jwtSecretEnv string, rps float64) error {
	cfg, err := config.LoadScript()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	target, err := loadTarget(cfg)
	if err != nil {
		return err
	}
	source, err := loadSource(cfg, target)
	if err != nil {
		return err
	}

	endpoint := endpointOverride
	client := ocrprovider.NewClient(endpoint, []byte(os.Getenv(jwtSecretEnv)), rps)

	items, err := source.Items()
	if err != nil {
		return errors.Wrap(err, "enumerate source items")
	}

	opts := pipeline.Options{
		ConfidenceThreshold:   cfg.ConfidenceThreshold,
		UseAggressiveStrategy: cfg.UseAggressiveStrategy,
		DebugPage:             cfg.InputDebugPage,
	}

	ctx := context.Background()
	for _, item := range items {
		xlog.Printf("%s", item.Filename)
		if err := item.Load(); err != nil {
			return errors.Wrapf(err, "stage %q", item.Filename)
		}

		scratchPath := item.ResultTmpPath() + ".gs.pdf"
		if err := pipeline.Process(ctx, client, item.TmpPath(), item.ResultTmpPath(), scratchPath, opts); err != nil {
			return errors.Wrapf(err, "process %q", item.Filename)
		}
		if err := target.Save(item); err != nil {
			return errors.Wrapf(err, "save %q", item.Filename)
		}
		if cfg.CleanupTmpFiles {
			os.RemoveAll(scratchPath)
		}
	}
	return nil
}

func loadTarget(cfg *config.Script) (store.Target, error) {
	switch cfg.OutputType {
	case "path":
		return &store.FileTarget{OutPath: cfg.OutputPath}, nil
	default:
		return nil, errors.Errorf("unsupported output type %q (no object-store backend is wired; use \"path\")", cfg.OutputType)
	}
}

func loadSource(cfg *config.Script, target store.Target) (store.Source, error) {
	skip := map[string]bool{}
	if cfg.InputSkipExisting {
		existing, err := target.ExistingFilenames()
		if err != nil {
			return nil, errors.Wrap(err, "list existing output")
		}
		xlog.Printf("Found %d existing objects in output path.", len(existing))
		skip = existing
	}

	switch cfg.InputType {
	case "path":
		return &store.FileSource{
			InPath:        cfg.InputPath,
			SkipFilenames: skip,
			ScratchRoot:   cfg.TmpPath,
		}, nil
	default:
		return nil, errors.Errorf("unsupported input type %q (no object-store backend is wired; use \"path\")", cfg.InputType)
	}
}

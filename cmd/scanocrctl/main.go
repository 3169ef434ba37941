// Command scanocrctl is an interactive debug console for the OCR pipeline:
// it runs a single PDF through Process with live progress output, without
// going through the HTTP front-end or a batch source/target. Grounded on
// rmconvert/shell's ishell.Cmd registration idiom (shell/mgeta.go,
// shell/version_cli.go), adapted from reMarkable-cloud file commands to
// this domain's single debug command.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/abiosoft/ishell"

	"github.com/geopdf/scanocr/config"
	"github.com/geopdf/scanocr/ocrprovider"
	"github.com/geopdf/scanocr/pipeline"
)

func main() {
	cfg, err := config.LoadScript()
	if err != nil {
		fmt.Fprintln(os.Stderr, "scanocrctl: load config:", err)
		os.Exit(1)
	}

	shell := ishell.New()
	shell.SetPrompt("scanocrctl> ")
	shell.Println("OCR pipeline debug console. Type 'help' for commands.")

	shell.AddCmd(processCmd(cfg))
	shell.AddCmd(versionCmd())

	shell.Run()
}

func versionCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "version",
		Help: "show scanocr version",
		Func: func(c *ishell.Context) {
			c.Println("scanocr version: dev")
		},
	}
}

func processCmd(cfg *config.Script) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "process",
		Help: "run one PDF through the OCR pipeline\n\nUsage: process [options] <input.pdf> <output.pdf>\n\nOptions:\n  -page int      only process this 1-based page (default: all pages)\n  -aggressive    force the aggressive clean strategy\n  -visible       draw the text layer visibly, for debugging\n",
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("process", flag.ContinueOnError)
			page := flagSet.Int("page", 0, "debug page")
			aggressive := flagSet.Bool("aggressive", cfg.UseAggressiveStrategy, "aggressive clean strategy")
			visible := flagSet.Bool("visible", false, "visible text layer")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			args := flagSet.Args()
			if len(args) != 2 {
				c.Println("usage: process [options] <input.pdf> <output.pdf>")
				return
			}
			inPath, outPath := args[0], args[1]
			scratchPath := outPath + ".gs.pdf"

			client := ocrprovider.NewClient(os.Getenv("OCR_PROVIDER_ENDPOINT"), []byte(os.Getenv("OCR_JWT_SECRET")), 1)
			opts := pipeline.Options{
				ConfidenceThreshold:   cfg.ConfidenceThreshold,
				UseAggressiveStrategy: *aggressive,
				DebugPage:             *page,
				Visible:               *visible,
			}

			if err := pipeline.Process(context.Background(), client, inPath, outPath, scratchPath, opts); err != nil {
				c.Err(err)
				return
			}
			c.Printf("wrote %s\n", outPath)
		},
	}
}

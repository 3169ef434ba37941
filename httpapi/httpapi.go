// Package httpapi exposes the OCR pipeline as the two-endpoint HTTP
// front-end of spec.md §6: POST / starts a background job for a named
// file, POST /collect polls it to completion. Grounded on
// original_source/api.py's FastAPI start/collect handlers, rebuilt against
// gin the way chinmay-sawant-gopdfsuit wires its own POST handlers.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/geopdf/scanocr/config"
	"github.com/geopdf/scanocr/internal/xlog"
	"github.com/geopdf/scanocr/ocrprovider"
	"github.com/geopdf/scanocr/pipeline"
	"github.com/geopdf/scanocr/registry"
	"github.com/geopdf/scanocr/store"
)

// Server holds the shared state behind both endpoints.
type Server struct {
	cfg      *config.API
	client   *ocrprovider.Client
	registry *registry.Registry
}

// New builds a Server. jwtSecret and requestsPerSecond are forwarded to
// ocrprovider.NewClient.
func New(cfg *config.API, jwtSecret []byte, requestsPerSecond float64) *Server {
	return &Server{
		cfg:      cfg,
		client:   ocrprovider.NewClient(cfg.S3InputEndpoint, jwtSecret, requestsPerSecond),
		registry: registry.New(),
	}
}

// Register installs the two routes on router, mirroring api.py's
// @app.post("/") and @app.post("/collect").
func (s *Server) Register(router gin.IRouter) {
	router.POST("/", s.start)
	router.POST("/collect", s.collect)
}

type startPayload struct {
	File string `json:"file" binding:"required"`
}

// start validates the payload names a .pdf file and launches the job in
// the background, returning 204 immediately. Grounded verbatim on
// api.py's start().
func (s *Server) start(c *gin.Context) {
	var payload startPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if !store.IsPDFFilename(payload.File) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "input must be a PDF file"})
		return
	}

	_, ok := s.registry.Start(payload.File, func() (any, error) {
		return nil, s.process(context.Background(), payload.File)
	})
	if !ok {
		// A second request for an in-flight file is itself a no-op success
		// from the caller's point of view: the existing run will still
		// answer /collect. Nothing in spec.md §5 asks for a distinct status
		// here, so the 204 contract is preserved.
		xlog.Printf("start: %s already has an active task", payload.File)
	}
	c.Status(http.StatusNoContent)
}

type collectPayload struct {
	File string `json:"file" binding:"required"`
}

// collect reports whether the named file's task has finished, returning
// 422 if no task is tracked for it at all. Grounded verbatim on api.py's
// collect(), resolving the file-name-vs-task-ID addressing mismatch in
// the distilled source via registry.TaskIDForFile (see httpapi's
// DESIGN.md entry).
func (s *Server) collect(c *gin.Context) {
	var payload collectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	taskID, hasTask := s.registry.TaskIDForFile(payload.File)
	if !hasTask {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "OCR is not running for this file"})
		return
	}

	result, finished := s.registry.Collect(taskID)
	if !finished {
		c.JSON(http.StatusOK, gin.H{"has_finished": false})
		return
	}
	if result.Err != nil {
		xlog.Printf("collect: %s failed: %v", payload.File, result.Err)
		c.JSON(http.StatusOK, gin.H{"has_finished": true, "error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_finished": true, "data": result.Value})
}

// process runs one file end to end: download (here, read) from the
// configured input location, OCR it, upload (write) to the configured
// output location, and clean up its scratch directory. Grounded on
// api.py's process(), with the input/output folders read as local
// directories rather than S3 prefixes — this corpus wires no object-store
// SDK (see store's DESIGN.md entry), so the S3Input/OutputFolder config
// fields are treated as local path roots until a real backend is added.
func (s *Server) process(ctx context.Context, file string) error {
	taskDir := filepath.Join(s.cfg.TmpPath, uuid.NewString())
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return err
	}
	defer os.RemoveAll(taskDir)

	inputPath := filepath.Join(s.cfg.S3InputFolder, file)
	outputPath := filepath.Join(taskDir, "output.pdf")
	scratchPath := filepath.Join(taskDir, "gs.pdf")

	opts := pipeline.Options{
		ConfidenceThreshold:   s.cfg.ConfidenceThreshold,
		UseAggressiveStrategy: s.cfg.UseAggressiveStrategy,
	}
	if err := pipeline.Process(ctx, s.client, inputPath, outputPath, scratchPath, opts); err != nil {
		return err
	}

	finalPath := filepath.Join(s.cfg.S3OutputFolder, file)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return err
	}
	return os.Rename(outputPath, finalPath)
}

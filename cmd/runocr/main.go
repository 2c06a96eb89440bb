package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/doc-intake/internal/assemble"
	"github.com/joseph-ayodele/doc-intake/internal/common"
	"github.com/joseph-ayodele/doc-intake/internal/ocr"
	"github.com/joseph-ayodele/doc-intake/internal/rasterize"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file.pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if cfg.OCR.APIKey == "" {
		logger.Error("MISTRAL_API_KEY required")
		os.Exit(1)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	raster := rasterize.New(rasterize.Config{DPI: cfg.Rasterize.DPI, JPEGQuality: cfg.Rasterize.JPEGQuality}, logger)
	reader := ocr.NewClient(ocr.Config{BaseURL: cfg.OCR.BaseURL, Model: cfg.OCR.Model, Timeout: cfg.OCR.Timeout}, logger)
	assembler := assemble.NewAssembler(raster, reader, logger)

	start := time.Now()
	doc, err := assembler.Assemble(ctx, filepath.Base(path), content, cfg.OCR.APIKey)
	if err != nil {
		logger.Error("assembly failed",
			"file", path, "error", common.Describe(err), "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	logger.Info("assembly OK",
		"file", path,
		"pages", doc.Pages,
		"page_failures", doc.PageFailures,
		"bytes", len(doc.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	fmt.Println(doc.Text)
}

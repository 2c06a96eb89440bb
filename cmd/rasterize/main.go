package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/doc-intake/internal/common"
	"github.com/joseph-ayodele/doc-intake/internal/rasterize"
)

// Renders each page of a PDF to a JPEG on disk. Debugging aid for checking
// what the OCR engine will actually see at the configured DPI.
func main() {
	var (
		outDir = flag.String("out", ".", "directory for page images")
		dpi    = flag.Int("dpi", 200, "render resolution")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "rasterize [-out dir] [-dpi n] <file.pdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	raster := rasterize.New(rasterize.Config{DPI: *dpi}, logger)
	pages, err := raster.Rasterize(context.Background(), filepath.Base(path), content)
	if err != nil {
		logger.Error("rasterize failed", "file", path, "error", common.Describe(err))
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		logger.Error("create output dir", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	base := filepath.Base(path)
	for _, page := range pages {
		name := filepath.Join(*outDir, fmt.Sprintf("%s-page-%03d.jpg", base, page.Index))
		if err := os.WriteFile(name, page.JPEG, 0644); err != nil {
			logger.Error("write page image", "path", name, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("rasterize OK", "file", path, "pages", len(pages), "out", *outDir)
}

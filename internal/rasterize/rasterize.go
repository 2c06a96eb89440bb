package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/joseph-ayodele/doc-intake/internal/common"
)

// PageImage is one rasterized page, ready for OCR. Index is 1-based and
// follows document order.
type PageImage struct {
	Filename string
	Index    int
	JPEG     []byte
	DPI      int
}

// Rasterizer is Stage 0: PDF bytes -> ordered page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, filename string, pdf []byte) ([]PageImage, error)
}

// Config holds rendering parameters.
type Config struct {
	DPI         int // default 200
	JPEGQuality int // 1..100, default 90
}

type fitzRasterizer struct {
	cfg    Config
	logger *slog.Logger
}

// New returns a MuPDF-backed Rasterizer.
func New(cfg Config, logger *slog.Logger) Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}
	return &fitzRasterizer{cfg: cfg, logger: logger}
}

func (r *fitzRasterizer) Rasterize(ctx context.Context, filename string, pdf []byte) ([]PageImage, error) {
	start := time.Now()

	if len(pdf) == 0 {
		return nil, common.NewAppError(common.KindRasterization, fmt.Sprintf("%s: empty file content", filename), nil)
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		r.logger.Error("rasterize.open_failed", "file", filename, "error", err)
		return nil, common.NewAppError(common.KindRasterization, fmt.Sprintf("%s: not a parseable PDF or rendering engine unavailable", filename), err)
	}
	defer func(doc *fitz.Document) {
		if cerr := doc.Close(); cerr != nil {
			r.logger.Warn("rasterize.close_error", "file", filename, "error", cerr)
		}
	}(doc)

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, common.NewAppError(common.KindRasterization, fmt.Sprintf("%s: PDF has no pages", filename), nil)
	}

	pages := make([]PageImage, 0, pageCount)
	for n := 0; n < pageCount; n++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(n, float64(r.cfg.DPI))
		if err != nil {
			return nil, common.NewAppError(common.KindRasterization, fmt.Sprintf("%s: render page %d", filename, n+1), err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.cfg.JPEGQuality}); err != nil {
			return nil, common.NewAppError(common.KindRasterization, fmt.Sprintf("%s: encode page %d", filename, n+1), err)
		}

		pages = append(pages, PageImage{
			Filename: filename,
			Index:    n + 1,
			JPEG:     buf.Bytes(),
			DPI:      r.cfg.DPI,
		})
	}

	r.logger.Debug("rasterize.ok",
		"file", filename,
		"pages", pageCount,
		"dpi", r.cfg.DPI,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

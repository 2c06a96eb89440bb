// Package assemble turns one uploaded PDF into one document text: every
// page rasterized, OCR'd in increasing index order, and concatenated behind
// numbered page markers.
package assemble

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-intake/constants"
	"github.com/joseph-ayodele/doc-intake/internal/ocr"
	"github.com/joseph-ayodele/doc-intake/internal/rasterize"
)

// Document is the assembled output for one file. Pages equals the page
// count of the source PDF; PageFailures counts pages whose OCR call failed
// and were degraded to embedded error text.
type Document struct {
	Filename     string
	Text         string
	Pages        int
	PageFailures int
	Duration     time.Duration
}

// Assembler drives the rasterizer and OCR reader across all pages of one
// file. It does not consult prior state; callers decide whether to skip a
// file that was already assembled.
type Assembler struct {
	Raster rasterize.Rasterizer
	Reader ocr.PageReader
	Logger *slog.Logger
}

func NewAssembler(r rasterize.Rasterizer, reader ocr.PageReader, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{Raster: r, Reader: reader, Logger: logger}
}

// Assemble rasterizes the file once, OCRs each page strictly in increasing
// index order, and joins the results with page markers. A single page's OCR
// failure degrades that page to error text; the remaining pages are still
// produced. Rasterization failure aborts the file.
func (a *Assembler) Assemble(ctx context.Context, filename string, content []byte, apiKey string) (Document, error) {
	start := time.Now()
	doc := Document{Filename: filename}

	pages, err := a.Raster.Rasterize(ctx, filename, content)
	if err != nil {
		a.Logger.Error("assemble.rasterize.failed", "file", filename, "error", err)
		return doc, err
	}
	doc.Pages = len(pages)
	a.Logger.Info("assemble.start", "file", filename, "pages", doc.Pages)

	var b strings.Builder
	for _, page := range pages {
		text, err := a.Reader.ReadPage(ctx, page, apiKey)
		if err != nil {
			// Best-effort: keep the page marker, embed the failure.
			doc.PageFailures++
			a.Logger.Warn("assemble.page.degraded",
				"file", filename, "page", page.Index, "error", err)
			b.WriteString(constants.PageMarker(page.Index))
			b.WriteString(constants.OCRErrorPrefix + err.Error())
			continue
		}
		b.WriteString(constants.PageMarker(page.Index))
		b.WriteString(text.Text)
	}

	doc.Text = b.String()
	doc.Duration = time.Since(start)
	a.Logger.Info("assemble.ok",
		"file", filename,
		"pages", doc.Pages,
		"page_failures", doc.PageFailures,
		"text_bytes", len(doc.Text),
		"duration_ms", doc.Duration.Milliseconds(),
	)
	return doc, nil
}

package ocr

import (
	"context"

	"github.com/joseph-ayodele/doc-intake/internal/rasterize"
)

// PageReader is Stage 1: one page image -> one text block.
type PageReader interface {
	ReadPage(ctx context.Context, page rasterize.PageImage, apiKey string) (PageText, error)
}

// PageText is the OCR output for one page image. Text is the engine's
// detected blocks joined in engine order; it may be empty for a blank page.
type PageText struct {
	Filename string
	Index    int
	Text     string
	Blocks   int
}

package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-intake/constants"
	"github.com/joseph-ayodele/doc-intake/internal/common"
	"github.com/joseph-ayodele/doc-intake/internal/httpjson"
	"github.com/joseph-ayodele/doc-intake/internal/rasterize"
)

// Config holds OCR engine parameters.
type Config struct {
	BaseURL string        // default "https://api.mistral.ai"
	Model   string        // default "mistral-ocr-latest"
	Timeout time.Duration // per-call deadline, default 60s
}

// Client implements PageReader against a Mistral-style OCR endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral-ocr-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type ocrResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// ReadPage submits one page image and returns the engine's text blocks
// joined in the order the engine reports them. The base64 data URL is a
// transport detail; nothing is persisted.
func (c *Client) ReadPage(ctx context.Context, page rasterize.PageImage, apiKey string) (PageText, error) {
	out := PageText{Filename: page.Filename, Index: page.Index}

	if strings.TrimSpace(apiKey) == "" {
		return out, common.NewAppError(common.KindOCRAuth, "OCR API key is missing", nil)
	}

	start := time.Now()
	c.logger.Info("ocr.read.start",
		"file", page.Filename,
		"page", page.Index,
		"image_bytes", len(page.JPEG),
		"model", c.cfg.Model,
	)

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(page.JPEG)
	body := map[string]any{
		"model": c.cfg.Model,
		"document": map[string]any{
			"type":      "image_url",
			"image_url": dataURL,
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/ocr"
	raw, status, err := httpjson.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.logger)
	if err != nil {
		kerr := classify(status, err)
		c.logger.Error("ocr.read.failed",
			"file", page.Filename, "page", page.Index,
			"status", status, "kind", common.KindOf(kerr),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return out, kerr
	}

	var resp ocrResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return out, common.NewAppError(common.KindOCRTransient, "decode OCR response", err)
	}

	// The engine's block order is authoritative; no re-sorting.
	blocks := make([]string, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		blocks = append(blocks, p.Markdown)
	}
	out.Text = strings.Join(blocks, constants.OCRBlockSeparator)
	out.Blocks = len(blocks)

	c.logger.Info("ocr.read.ok",
		"file", page.Filename,
		"page", page.Index,
		"blocks", out.Blocks,
		"text_bytes", len(out.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// classify maps a transport/status failure onto the OCR error taxonomy.
func classify(status int, err error) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.NewAppError(common.KindOCRAuth, "OCR engine rejected the API key", err)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return common.NewAppError(common.KindOCRTimeout, "OCR engine timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewAppError(common.KindOCRTimeout, "OCR call exceeded its deadline", err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return common.NewAppError(common.KindOCRTimeout, "OCR call timed out", err)
	}
	return common.NewAppError(common.KindOCRTransient, fmt.Sprintf("OCR engine failure (status %d)", status), err)
}

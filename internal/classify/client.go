package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-intake/internal/common"
	"github.com/joseph-ayodele/doc-intake/internal/httpjson"
	"github.com/joseph-ayodele/doc-intake/internal/schema"
)

// Config for the classification client.
type Config struct {
	BaseURL string        // default https://api.openai.com/v1
	Model   string        // default "o1"
	Timeout time.Duration // http client timeout, default 120s

	// MaxTextBytes is the documented corpus budget. Longer text is truncated
	// at this many bytes, backed off to a rune boundary, before submission.
	MaxTextBytes int
}

// Client implements Extractor against an OpenAI-style chat completions
// endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "o1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = 400_000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

const systemPrompt = "You are a document classification engine. You receive the OCR text of one or more documents, separated by FILE and PAGE markers, and a JSON schema enumerating field names with their types and descriptions. Extract a value for every field you can confidently locate in the text. Omit fields you cannot extract, or set them to null where the schema allows null. Return ONLY a JSON object whose keys are the schema's field names. Preserve the original language and spelling of extracted values."

// Classify submits the corpus text and the field schema and returns the
// engine's structured record. On any failure the caller receives a kinded
// error; no partially-decoded record is ever returned as success.
func (c *Client) Classify(ctx context.Context, corpusText string, reg *schema.Registry, apiKey string) (Record, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if strings.TrimSpace(apiKey) == "" {
		return nil, nil, common.NewAppError(common.KindExtractionAuth, "extraction API key is missing", nil)
	}

	text, truncated := truncateUTF8(corpusText, c.cfg.MaxTextBytes)
	c.logger.Info("classify.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_bytes", len(text),
		"truncated", truncated,
		"schema_fields", reg.Len(),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": "Document text:\n\n" + text},
			{"role": "system", "content": "Field schema (JSON):\n" + string(reg.Raw())},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := httpjson.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.logger)
	if err != nil {
		kerr := classifyTransport(status, err)
		c.logger.Error("classify.http_error",
			"req_id", rid, "status", status, "kind", common.KindOf(kerr),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, kerr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, raw, common.NewAppError(common.KindExtractionFormat, "decode engine response", err)
	}
	if len(cc.Choices) == 0 {
		return nil, raw, common.NewAppError(common.KindExtractionFormat, "engine response has no choices", nil)
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	rawContent := []byte(content)

	if err := reg.ValidateRecord(rawContent); err != nil {
		c.logger.Error("classify.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, rawContent, common.NewAppError(common.KindExtractionFormat, "engine output failed schema validation", err)
	}

	var rec Record
	if err := json.Unmarshal(rawContent, &rec); err != nil {
		return nil, rawContent, common.NewAppError(common.KindExtractionFormat, "engine output is not a JSON object", err)
	}

	c.logger.Info("classify.ok",
		"req_id", rid,
		"fields_extracted", len(rec),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, rawContent, nil
}

// classifyTransport maps a transport/status failure onto the extraction
// error taxonomy.
func classifyTransport(status int, err error) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.NewAppError(common.KindExtractionAuth, "extraction engine rejected the API key", err)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return common.NewAppError(common.KindExtractionTimeout, "extraction engine timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewAppError(common.KindExtractionTimeout, "extraction call exceeded its deadline", err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return common.NewAppError(common.KindExtractionTimeout, "extraction call timed out", err)
	}
	// No known kind matches; callers fall back to the generic message.
	return fmt.Errorf("extraction engine failure (status %d): %w", status, err)
}

// truncateUTF8 cuts s at max bytes without splitting a UTF-8 sequence.
func truncateUTF8(s string, max int) (string, bool) {
	if len(s) <= max {
		return s, false
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}

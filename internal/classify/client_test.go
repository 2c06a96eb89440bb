package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joseph-ayodele/doc-intake/internal/common"
	"github.com/joseph-ayodele/doc-intake/internal/schema"
)

func chatReply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}
}

func loadRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.Load()
	if err != nil {
		t.Fatalf("schema.Load: %v", err)
	}
	return reg
}

func TestClassifyRoundTrip(t *testing.T) {
	srv := httptest.NewServer(chatReply(`{"NOMBRE_COMPLETO": "Juan Pérez", "CIUDAD": 32}`))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	rec, raw, err := c.Classify(context.Background(), "corpus text", loadRegistry(t), "test-key")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got := rec["NOMBRE_COMPLETO"]; got != "Juan Pérez" {
		t.Errorf("NOMBRE_COMPLETO = %v, want %q", got, "Juan Pérez")
	}
	if got, ok := rec["CIUDAD"].(float64); !ok || got != 32 {
		t.Errorf("CIUDAD = %v", rec["CIUDAD"])
	}
	if !strings.Contains(string(raw), "Juan Pérez") {
		t.Error("raw JSON lost the non-ASCII literal")
	}
}

func TestClassifySendsSchemaAndText(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		chatReply(`{}`)(w, r)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "o1"}, nil)
	if _, _, err := c.Classify(context.Background(), "the corpus", loadRegistry(t), "test-key"); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if body.Model != "o1" {
		t.Errorf("model = %q", body.Model)
	}
	var sawText, sawSchema bool
	for _, m := range body.Messages {
		if strings.Contains(m.Content, "the corpus") {
			sawText = true
		}
		if strings.Contains(m.Content, "NOMBRE_COMPLETO") {
			sawSchema = true
		}
	}
	if !sawText {
		t.Error("request missing corpus text")
	}
	if !sawSchema {
		t.Error("request missing field schema")
	}
}

func TestClassifyFormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "I could not classify this document."},
		{"wrong value type", `{"OCUPACION": "not an integer"}`},
		{"json array", `[1, 2, 3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(chatReply(tt.content))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL}, nil)
			rec, _, err := c.Classify(context.Background(), "text", loadRegistry(t), "test-key")
			if err == nil {
				t.Fatal("expected error")
			}
			if !common.IsKind(err, common.KindExtractionFormat) {
				t.Errorf("kind = %q, want %q", common.KindOf(err), common.KindExtractionFormat)
			}
			if rec != nil {
				t.Error("no record may be surfaced on failure")
			}
		})
	}
}

func TestClassifyAuthErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	if _, _, err := c.Classify(context.Background(), "text", loadRegistry(t), "bad-key"); !common.IsKind(err, common.KindExtractionAuth) {
		t.Errorf("kind = %q, want %q", common.KindOf(err), common.KindExtractionAuth)
	}
	if _, _, err := c.Classify(context.Background(), "text", loadRegistry(t), ""); !common.IsKind(err, common.KindExtractionAuth) {
		t.Errorf("missing key kind = %q, want %q", common.KindOf(err), common.KindExtractionAuth)
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		max       int
		want      string
		truncated bool
	}{
		{"under budget", "héllo", 100, "héllo", false},
		{"exact budget", "abcd", 4, "abcd", false},
		{"cut ascii", "abcdef", 3, "abc", true},
		{"never splits a rune", "aé", 2, "a", true}, // é is 2 bytes starting at offset 1
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := truncateUTF8(tt.in, tt.max)
			if got != tt.want || truncated != tt.truncated {
				t.Errorf("truncateUTF8(%q, %d) = %q, %v; want %q, %v",
					tt.in, tt.max, got, truncated, tt.want, tt.truncated)
			}
		})
	}
}

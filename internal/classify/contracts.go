package classify

import (
	"context"

	"github.com/joseph-ayodele/doc-intake/internal/schema"
)

// Record maps field name -> extracted value (string, number, nested object,
// or explicit null). Fields the engine could not extract are simply absent.
type Record map[string]any

// Extractor is Stage 2: combined corpus text + field schema -> structured
// record. Implementations must accept unbounded text (truncating at a
// documented budget) and never surface a partial record as success.
type Extractor interface {
	Classify(ctx context.Context, corpusText string, reg *schema.Registry, apiKey string) (Record, []byte /*rawJSON*/, error)
}

package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/doc-intake/internal/classify"
	"github.com/joseph-ayodele/doc-intake/internal/corpus"
	"github.com/joseph-ayodele/doc-intake/internal/schema"
	"github.com/joseph-ayodele/doc-intake/internal/session"
)

// Processor coordinates aggregation (rasterize + OCR + assemble across all
// files) and then schema-guided classification of the combined corpus.
type Processor struct {
	Logger     *slog.Logger
	Aggregator *corpus.Aggregator
	Extractor  classify.Extractor
	Registry   *schema.Registry
}

func NewProcessor(logger *slog.Logger, agg *corpus.Aggregator, ext classify.Extractor, reg *schema.Registry) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Aggregator: agg, Extractor: ext, Registry: reg}
}

// Run aggregates the session's files and, only when every file completed,
// classifies the combined corpus. An incomplete batch returns the
// aggregation result with a nil record and no error; per-file failures are
// inside the result. Extraction failures leave the corpus intact for retry.
func (p *Processor) Run(ctx context.Context, sess *session.Session, files []session.UploadedFile) (corpus.Result, classify.Record, error) {
	res, err := p.Aggregator.Run(ctx, sess, files)
	if err != nil {
		p.Logger.Error("processor.aggregate.failed", "session_id", sess.ID, "err", err)
		return res, nil, err
	}
	p.Logger.Info("processor.aggregate.ok",
		"session_id", sess.ID,
		"completed", res.Completed,
		"total", res.Total,
	)

	if !res.Complete() {
		p.Logger.Warn("processor.classification_not_offered",
			"session_id", sess.ID,
			"completed", res.Completed,
			"total", res.Total,
		)
		return res, nil, nil
	}

	text, err := corpus.Text(ctx, sess.Store())
	if err != nil {
		return res, nil, err
	}

	rec, _, err := p.Extractor.Classify(ctx, text, p.Registry, sess.ExtractKey())
	if err != nil {
		p.Logger.Error("processor.classify.failed", "session_id", sess.ID, "err", err)
		return res, nil, err
	}
	p.Logger.Info("processor.classify.ok",
		"session_id", sess.ID,
		"fields_extracted", len(rec),
	)
	return res, rec, nil
}

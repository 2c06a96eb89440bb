// Package corpus aggregates assembled documents across all files of a
// session into one combined text, with idempotent re-entry per file.
package corpus

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/doc-intake/constants"
	"github.com/joseph-ayodele/doc-intake/internal/assemble"
	"github.com/joseph-ayodele/doc-intake/internal/session"
)

// FileResult is the per-file outcome of one aggregator run.
type FileResult struct {
	Filename string
	Status   constants.FileStatus
	Pages    int
	Err      error // set only for FileStatusFailed
}

// Result summarizes one aggregator run. Classification downstream is only
// offered once Complete() holds.
type Result struct {
	Files     []FileResult
	Completed int // files with a stored DocumentText (new or reused)
	Total     int
}

func (r Result) Complete() bool {
	return r.Total > 0 && r.Completed == r.Total
}

// Failures returns the files that could not be assembled in this run.
func (r Result) Failures() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Status == constants.FileStatusFailed {
			out = append(out, f)
		}
	}
	return out
}

// Aggregator drives the assembler across all uploaded files, short-
// circuiting files whose record already holds document text.
type Aggregator struct {
	Assembler *assemble.Assembler
	Logger    *slog.Logger
}

func NewAggregator(a *assemble.Assembler, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{Assembler: a, Logger: logger}
}

// Run processes files in the order supplied. A file with an existing record
// is skipped and counted as completed; a file whose assembly fails fatally
// is reported but does not block the rest of the batch. Store failures are
// infrastructure errors and abort the run.
func (g *Aggregator) Run(ctx context.Context, sess *session.Session, files []session.UploadedFile) (Result, error) {
	res := Result{Total: len(files)}
	store := sess.Store()

	for _, f := range files {
		rec, err := store.Get(ctx, f.Filename)
		if err != nil {
			return res, err
		}
		if rec != nil && rec.DocumentText != "" {
			g.Logger.Info("aggregate.file.skipped", "session_id", sess.ID, "file", f.Filename)
			res.Files = append(res.Files, FileResult{Filename: f.Filename, Status: constants.FileStatusSkipped, Pages: rec.Pages})
			res.Completed++
			continue
		}

		doc, err := g.Assembler.Assemble(ctx, f.Filename, f.Content, sess.OCRKey())
		if err != nil {
			g.Logger.Error("aggregate.file.failed", "session_id", sess.ID, "file", f.Filename, "error", err)
			res.Files = append(res.Files, FileResult{Filename: f.Filename, Status: constants.FileStatusFailed, Err: err})
			continue
		}

		if err := store.Put(ctx, session.FileRecord{
			Filename:     doc.Filename,
			DocumentText: doc.Text,
			Pages:        doc.Pages,
		}); err != nil {
			return res, err
		}
		g.Logger.Info("aggregate.file.ok",
			"session_id", sess.ID,
			"file", f.Filename,
			"pages", doc.Pages,
			"page_failures", doc.PageFailures,
		)
		res.Files = append(res.Files, FileResult{Filename: f.Filename, Status: constants.FileStatusCompleted, Pages: doc.Pages})
		res.Completed++
	}

	g.Logger.Info("aggregate.done",
		"session_id", sess.ID,
		"completed", res.Completed,
		"total", res.Total,
	)
	return res, nil
}

// Text builds the combined corpus text from the stored records, each behind
// a file marker, in completion order.
func Text(ctx context.Context, store session.Store) (string, error) {
	recs, err := store.List(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, rec := range recs {
		b.WriteString(constants.FileMarker(rec.Filename))
		b.WriteString(rec.DocumentText)
	}
	return b.String(), nil
}

package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/joseph-ayodele/doc-intake/internal/assemble"
	"github.com/joseph-ayodele/doc-intake/internal/classify"
	"github.com/joseph-ayodele/doc-intake/internal/common"
	"github.com/joseph-ayodele/doc-intake/internal/corpus"
	"github.com/joseph-ayodele/doc-intake/internal/ocr"
	"github.com/joseph-ayodele/doc-intake/internal/rasterize"
	"github.com/joseph-ayodele/doc-intake/internal/schema"
	"github.com/joseph-ayodele/doc-intake/internal/session"
)

type fakeRasterizer struct {
	failFiles map[string]bool
}

func (f *fakeRasterizer) Rasterize(_ context.Context, filename string, _ []byte) ([]rasterize.PageImage, error) {
	if f.failFiles[filename] {
		return nil, common.NewAppError(common.KindRasterization, filename+": broken", nil)
	}
	return []rasterize.PageImage{{Filename: filename, Index: 1, JPEG: []byte{0xFF}}}, nil
}

type fakeReader struct{}

func (fakeReader) ReadPage(_ context.Context, page rasterize.PageImage, _ string) (ocr.PageText, error) {
	return ocr.PageText{Filename: page.Filename, Index: page.Index, Text: "text from " + page.Filename}, nil
}

type fakeExtractor struct {
	gotText string
	gotKey  string
	rec     classify.Record
	err     error
}

func (f *fakeExtractor) Classify(_ context.Context, text string, _ *schema.Registry, key string) (classify.Record, []byte, error) {
	f.gotText = text
	f.gotKey = key
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.rec, nil, nil
}

func newProcessor(t *testing.T, raster *fakeRasterizer, ext *fakeExtractor) (*Processor, *session.Session) {
	t.Helper()
	reg, err := schema.Load()
	if err != nil {
		t.Fatalf("schema.Load: %v", err)
	}
	assembler := assemble.NewAssembler(raster, fakeReader{}, nil)
	agg := corpus.NewAggregator(assembler, nil)
	sess := session.New(session.NewMemoryStore(), nil)
	sess.SetCredentials("ocr-key", "extract-key")
	return NewProcessor(nil, agg, ext, reg), sess
}

func uploads(names ...string) []session.UploadedFile {
	out := make([]session.UploadedFile, 0, len(names))
	for _, n := range names {
		out = append(out, session.UploadedFile{Filename: n, Content: []byte("%PDF")})
	}
	return out
}

func TestRunClassifiesCompleteBatch(t *testing.T) {
	ext := &fakeExtractor{rec: classify.Record{"NOMBRE_COMPLETO": "Juan Pérez"}}
	p, sess := newProcessor(t, &fakeRasterizer{}, ext)

	res, rec, err := p.Run(context.Background(), sess, uploads("a.pdf", "b.pdf"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Complete() {
		t.Fatal("batch should be complete")
	}
	if rec["NOMBRE_COMPLETO"] != "Juan Pérez" {
		t.Errorf("record = %v", rec)
	}
	if ext.gotKey != "extract-key" {
		t.Errorf("extractor key = %q", ext.gotKey)
	}
	for _, want := range []string{"text from a.pdf", "text from b.pdf"} {
		if !strings.Contains(ext.gotText, want) {
			t.Errorf("corpus text missing %q", want)
		}
	}
}

func TestRunWithholdsClassificationWhenIncomplete(t *testing.T) {
	ext := &fakeExtractor{rec: classify.Record{}}
	p, sess := newProcessor(t, &fakeRasterizer{failFiles: map[string]bool{"a.pdf": true}}, ext)

	res, rec, err := p.Run(context.Background(), sess, uploads("a.pdf", "b.pdf"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec != nil {
		t.Error("classification must not be offered for an incomplete batch")
	}
	if ext.gotText != "" {
		t.Error("extractor was called for an incomplete batch")
	}
	if res.Completed != 1 || len(res.Failures()) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestRunSurfacesExtractionFailure(t *testing.T) {
	ext := &fakeExtractor{err: common.NewAppError(common.KindExtractionTimeout, "engine timed out", nil)}
	p, sess := newProcessor(t, &fakeRasterizer{}, ext)
	ctx := context.Background()

	_, rec, err := p.Run(ctx, sess, uploads("a.pdf"))
	if rec != nil {
		t.Error("no record on extraction failure")
	}
	if !common.IsKind(err, common.KindExtractionTimeout) {
		t.Errorf("kind = %q, want %q", common.KindOf(err), common.KindExtractionTimeout)
	}

	// Corpus remains intact for retry.
	text, terr := corpus.Text(ctx, sess.Store())
	if terr != nil {
		t.Fatalf("corpus text: %v", terr)
	}
	if !strings.Contains(text, "text from a.pdf") {
		t.Error("corpus lost after extraction failure")
	}
}

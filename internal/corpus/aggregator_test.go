package corpus

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/joseph-ayodele/doc-intake/constants"
	"github.com/joseph-ayodele/doc-intake/internal/assemble"
	"github.com/joseph-ayodele/doc-intake/internal/common"
	"github.com/joseph-ayodele/doc-intake/internal/ocr"
	"github.com/joseph-ayodele/doc-intake/internal/rasterize"
	"github.com/joseph-ayodele/doc-intake/internal/session"
)

// fakeRasterizer yields one page per file and fails for listed filenames.
// It counts calls so tests can assert the idempotent short-circuit.
type fakeRasterizer struct {
	calls     map[string]int
	failFiles map[string]bool
}

func (f *fakeRasterizer) Rasterize(_ context.Context, filename string, _ []byte) ([]rasterize.PageImage, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[filename]++
	if f.failFiles[filename] {
		return nil, common.NewAppError(common.KindRasterization, filename+": broken", nil)
	}
	return []rasterize.PageImage{{Filename: filename, Index: 1, JPEG: []byte{0xFF}}}, nil
}

type fakeReader struct{}

func (fakeReader) ReadPage(_ context.Context, page rasterize.PageImage, _ string) (ocr.PageText, error) {
	return ocr.PageText{
		Filename: page.Filename,
		Index:    page.Index,
		Text:     fmt.Sprintf("content of %s", page.Filename),
	}, nil
}

func newAggregator(raster *fakeRasterizer) (*Aggregator, *session.Session) {
	assembler := assemble.NewAssembler(raster, fakeReader{}, nil)
	sess := session.New(session.NewMemoryStore(), nil)
	sess.SetCredentials("ocr-key", "extract-key")
	return NewAggregator(assembler, nil), sess
}

func uploads(names ...string) []session.UploadedFile {
	out := make([]session.UploadedFile, 0, len(names))
	for _, n := range names {
		out = append(out, session.UploadedFile{Filename: n, Content: []byte("%PDF")})
	}
	return out
}

func TestRunIsIdempotent(t *testing.T) {
	raster := &fakeRasterizer{}
	agg, sess := newAggregator(raster)
	ctx := context.Background()
	files := uploads("a.pdf", "b.pdf")

	res1, err := agg.Run(ctx, sess, files)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	text1, err := Text(ctx, sess.Store())
	if err != nil {
		t.Fatalf("corpus text: %v", err)
	}

	res2, err := agg.Run(ctx, sess, files)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	text2, err := Text(ctx, sess.Store())
	if err != nil {
		t.Fatalf("corpus text: %v", err)
	}

	if text1 != text2 {
		t.Error("corpus text changed on re-run")
	}
	if res1.Completed != 2 || res2.Completed != 2 {
		t.Errorf("completed = %d then %d, want 2 and 2", res1.Completed, res2.Completed)
	}
	for _, f := range res2.Files {
		if f.Status != constants.FileStatusSkipped {
			t.Errorf("%s status on re-run = %s, want %s", f.Filename, f.Status, constants.FileStatusSkipped)
		}
	}
	for name, n := range raster.calls {
		if n != 1 {
			t.Errorf("rasterizer called %d times for %s, want 1", n, name)
		}
	}
	if got := strings.Count(text2, constants.FileMarker("a.pdf")); got != 1 {
		t.Errorf("file marker for a.pdf appears %d times, want 1", got)
	}
}

func TestRunIsolatesFatalFileFailure(t *testing.T) {
	raster := &fakeRasterizer{failFiles: map[string]bool{"a.pdf": true}}
	agg, sess := newAggregator(raster)
	ctx := context.Background()

	res, err := agg.Run(ctx, sess, uploads("a.pdf", "b.pdf"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Completed != 1 {
		t.Errorf("completed = %d, want 1", res.Completed)
	}
	if res.Complete() {
		t.Error("batch with a failed file must not be complete")
	}

	failures := res.Failures()
	if len(failures) != 1 || failures[0].Filename != "a.pdf" {
		t.Fatalf("failures = %+v, want exactly a.pdf", failures)
	}
	if !common.IsKind(failures[0].Err, common.KindRasterization) {
		t.Errorf("failure kind = %q, want %q", common.KindOf(failures[0].Err), common.KindRasterization)
	}

	text, err := Text(ctx, sess.Store())
	if err != nil {
		t.Fatalf("corpus text: %v", err)
	}
	if !strings.Contains(text, constants.FileMarker("b.pdf")) {
		t.Error("corpus missing completed file b.pdf")
	}
	if strings.Contains(text, constants.FileMarker("a.pdf")) {
		t.Error("corpus must not contain the failed file a.pdf")
	}
}

func TestCorpusFollowsUploadOrder(t *testing.T) {
	agg, sess := newAggregator(&fakeRasterizer{})
	ctx := context.Background()

	if _, err := agg.Run(ctx, sess, uploads("B.pdf", "A.pdf")); err != nil {
		t.Fatalf("run: %v", err)
	}
	text, err := Text(ctx, sess.Store())
	if err != nil {
		t.Fatalf("corpus text: %v", err)
	}

	posB := strings.Index(text, constants.FileMarker("B.pdf"))
	posA := strings.Index(text, constants.FileMarker("A.pdf"))
	if posB < 0 || posA < 0 {
		t.Fatal("corpus missing a file marker")
	}
	if posB > posA {
		t.Error("corpus order must match upload order, not filename order")
	}
}

func TestCompleteRequiresAllFiles(t *testing.T) {
	agg, sess := newAggregator(&fakeRasterizer{})
	ctx := context.Background()

	res, err := agg.Run(ctx, sess, uploads("a.pdf"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Complete() {
		t.Error("single completed file should complete the batch")
	}
	if (Result{}).Complete() {
		t.Error("empty batch must not be complete")
	}
}

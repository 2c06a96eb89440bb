package rasterize

import (
	"context"
	"testing"

	"github.com/joseph-ayodele/doc-intake/internal/common"
)

func TestRasterizeRejectsNonPDF(t *testing.T) {
	r := New(Config{}, nil)
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"garbage", []byte("this is not a pdf")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Rasterize(context.Background(), "bad.pdf", tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !common.IsKind(err, common.KindRasterization) {
				t.Errorf("kind = %q, want %q", common.KindOf(err), common.KindRasterization)
			}
		})
	}
}

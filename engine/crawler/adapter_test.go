package crawler

import (
	"testing"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
)

func TestConvertResults(t *testing.T) {
	pages := []domain.PageResult{
		{URL: "https://example.com/a", Title: "A", Content: "# A\n\nbody", Success: true},
		{URL: "https://example.com/b", Title: "B", Content: "", Success: true},
		{URL: "https://example.com/c", Title: "C", Content: "content", Success: false},
		{URL: "https://example.com/d", Content: "untitled body", Success: true},
	}

	got := ConvertResults(pages)
	if len(got) != 2 {
		t.Fatalf("expected 2 captures, got %d", len(got))
	}
	if got[0].URL != "https://example.com/a" || got[0].Title != "A" {
		t.Errorf("capture 0 = %+v", got[0])
	}
	if got[1].Title != "https://example.com/d" {
		t.Errorf("untitled page should fall back to URL, got %q", got[1].Title)
	}
	for _, c := range got {
		if c.Source != domain.SourceExternal {
			t.Errorf("source = %q, want %q", c.Source, domain.SourceExternal)
		}
	}
}

func TestConvertResultsEmptyBatch(t *testing.T) {
	if got := ConvertResults(nil); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

package kb

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/semantic"
)

type stubEmbed struct{}

func (stubEmbed) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func seeded(t *testing.T) *semantic.Store {
	t.Helper()
	store := semantic.NewStore(stubEmbed{}, nil, nil)
	ctx := context.Background()
	docs := []domain.Document{
		{URL: "https://example.com/a", Title: "A", Content: "alpha content", ChunkIndex: 0, Source: domain.SourceInitial},
		{URL: "https://example.com/b", Title: "B", Content: "beta content", ChunkIndex: 0, Source: "interaction:tabs:Pricing"},
	}
	for i, d := range docs {
		if err := store.Append(ctx, d, []float32{float32(i), 1}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return store
}

func TestExportImportRoundTrip(t *testing.T) {
	src := seeded(t)

	var buf bytes.Buffer
	if err := Export(&buf, src); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := semantic.NewStore(stubEmbed{}, nil, nil)
	if err := Import(&buf, dst); err != nil {
		t.Fatalf("import: %v", err)
	}

	srcDocs, srcVecs := src.Snapshot()
	dstDocs, dstVecs := dst.Snapshot()
	if len(dstDocs) != len(srcDocs) || len(dstVecs) != len(srcVecs) {
		t.Fatalf("sizes: docs %d/%d vectors %d/%d", len(dstDocs), len(srcDocs), len(dstVecs), len(srcVecs))
	}
	for i := range srcDocs {
		if dstDocs[i] != srcDocs[i] {
			t.Errorf("doc %d = %+v, want %+v", i, dstDocs[i], srcDocs[i])
		}
		if dstVecs[i].URL != srcVecs[i].URL {
			t.Errorf("vector %d url = %q", i, dstVecs[i].URL)
		}
	}
}

func TestImportMissingArraysYieldsEmptyKB(t *testing.T) {
	store := seeded(t)
	if err := Import(strings.NewReader(`{"timestamp":"2026-01-02T15:04:05Z"}`), store); err != nil {
		t.Fatalf("import: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("store should be empty, has %d docs", store.Len())
	}
}

func TestImportCorruptJSONLeavesStoreIntact(t *testing.T) {
	store := seeded(t)
	if err := Import(strings.NewReader(`{"documents": [`), store); err == nil {
		t.Fatal("expected parse error")
	}
	if store.Len() != 2 {
		t.Fatalf("store mutated on bad import, len = %d", store.Len())
	}
}

func TestImportMisalignedSnapshotRejected(t *testing.T) {
	store := seeded(t)
	snap := `{"documents":[{"url":"https://example.com/x","title":"X","content":"c"}],"vector_store":[]}`
	if err := Import(strings.NewReader(snap), store); err == nil {
		t.Fatal("expected alignment error")
	}
	if store.Len() != 2 {
		t.Fatalf("store mutated on misaligned import, len = %d", store.Len())
	}
}

func TestExportImportFile(t *testing.T) {
	src := seeded(t)
	path := filepath.Join(t.TempDir(), "kb.json")

	if err := ExportFile(path, src); err != nil {
		t.Fatalf("export file: %v", err)
	}
	dst := semantic.NewStore(stubEmbed{}, nil, nil)
	if err := ImportFile(path, dst); err != nil {
		t.Fatalf("import file: %v", err)
	}
	if dst.Len() != 2 {
		t.Fatalf("len = %d", dst.Len())
	}
}

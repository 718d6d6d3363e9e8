package semantic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
)

// fakeEmbed returns a fixed vector per text, or an error.
type fakeEmbed struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbed) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func TestCosine_SelfSimilarity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5}
	if got := Cosine(v, v); math.Abs(got-1) > 1e-9 {
		t.Errorf("self similarity = %v, want 1", got)
	}
}

func TestCosine_Range(t *testing.T) {
	pairs := [][2][]float32{
		{{1, 0}, {0, 1}},
		{{1, 2}, {-1, -2}},
		{{3, 4}, {4, 3}},
	}
	for _, p := range pairs {
		got := Cosine(p[0], p[1])
		if got < -1-1e-9 || got > 1+1e-9 {
			t.Errorf("Cosine(%v, %v) = %v out of [-1,1]", p[0], p[1], got)
		}
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	if got := Cosine([]float32{0, 0}, []float32{1, 2}); got != 0 {
		t.Errorf("zero vector similarity = %v, want 0", got)
	}
	if got := Cosine([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched lengths = %v, want 0", got)
	}
}

func TestStore_AppendKeepsAlignment(t *testing.T) {
	s := NewStore(&fakeEmbed{}, nil, nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		doc := domain.Document{URL: "https://x.test/p", Content: "c", ChunkIndex: i}
		if err := s.Append(ctx, doc, []float32{float32(i), 1}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	docs, vectors := s.Snapshot()
	if err := domain.ValidateAlignment(docs, vectors); err != nil {
		t.Fatalf("alignment broken: %v", err)
	}
	if s.Len() != 5 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestStore_SearchRanksByCosine(t *testing.T) {
	embed := &fakeEmbed{vectors: map[string][]float32{"query": {1, 0, 0}}}
	s := NewStore(embed, nil, nil)
	ctx := context.Background()

	_ = s.Append(ctx, domain.Document{URL: "far", Content: "far"}, []float32{0, 1, 0})
	_ = s.Append(ctx, domain.Document{URL: "near", Content: "near"}, []float32{1, 0.1, 0})
	_ = s.Append(ctx, domain.Document{URL: "mid", Content: "mid"}, []float32{1, 1, 0})

	got := s.Search(ctx, "query", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].URL != "near" || got[1].URL != "mid" {
		t.Errorf("ranking wrong: %q, %q", got[0].URL, got[1].URL)
	}
}

func TestStore_SearchEmbedFailureIsEmptyNotFatal(t *testing.T) {
	s := NewStore(&fakeEmbed{err: errors.New("down")}, nil, nil)
	_ = s.Append(context.Background(), domain.Document{URL: "a", Content: "a"}, []float32{1})
	if got := s.Search(context.Background(), "q", 3); got != nil {
		t.Errorf("expected empty result on embed failure, got %v", got)
	}
}

func TestStore_ReplaceAllRejectsMisalignment(t *testing.T) {
	s := NewStore(&fakeEmbed{}, nil, nil)
	_ = s.Append(context.Background(), domain.Document{URL: "keep", Content: "keep"}, []float32{1})

	err := s.ReplaceAll(
		[]domain.Document{{URL: "a"}, {URL: "b"}},
		[]domain.VectorEntry{{URL: "a"}},
	)
	if !errors.Is(err, domain.ErrMisaligned) {
		t.Fatalf("expected ErrMisaligned, got %v", err)
	}
	// Prior state intact.
	if s.Len() != 1 || s.Documents()[0].URL != "keep" {
		t.Errorf("store mutated by failed import")
	}
}

// failMirror always errors; appends must still succeed.
type failMirror struct{ calls int }

func (m *failMirror) Upsert(context.Context, domain.Document, []float32) error {
	m.calls++
	return errors.New("qdrant unavailable")
}

func TestStore_MirrorFailureIsNonFatal(t *testing.T) {
	m := &failMirror{}
	s := NewStore(&fakeEmbed{}, m, nil)
	if err := s.Append(context.Background(), domain.Document{URL: "a", Content: "a"}, []float32{1}); err != nil {
		t.Fatalf("append failed on mirror error: %v", err)
	}
	if m.calls != 1 {
		t.Errorf("mirror not called")
	}
	if s.Len() != 1 {
		t.Errorf("record lost")
	}
}

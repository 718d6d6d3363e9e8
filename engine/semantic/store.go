// Package semantic owns the embedding-backed side of retrieval: an
// append-only in-memory store of documents and their vectors, cosine
// similarity search, and an optional Qdrant mirror for external tooling.
package semantic

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
)

// EmbedClient turns text into a fixed-length vector. Failure means "no
// vector available" and is never fatal to callers in this package.
type EmbedClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Mirror receives a best-effort copy of every appended record.
type Mirror interface {
	Upsert(ctx context.Context, doc domain.Document, embedding []float32) error
}

// Store holds documents and their embeddings in two positionally
// aligned sequences: entry i always describes document i. Appends are
// atomic under one lock so the alignment invariant cannot be broken by
// a partial write.
type Store struct {
	mu      sync.RWMutex
	docs    []domain.Document
	vectors []domain.VectorEntry

	embed  EmbedClient
	mirror Mirror
	logger *slog.Logger
}

// NewStore creates a Store using embed for query vectors. mirror may be
// nil.
func NewStore(embed EmbedClient, mirror Mirror, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{embed: embed, mirror: mirror, logger: logger}
}

// Append stores a document together with its embedding. Both sequences
// grow together or not at all.
func (s *Store) Append(ctx context.Context, doc domain.Document, embedding []float32) error {
	s.mu.Lock()
	s.docs = append(s.docs, doc)
	s.vectors = append(s.vectors, domain.VectorEntry{URL: doc.URL, Embedding: embedding})
	s.mu.Unlock()

	if s.mirror != nil {
		if err := s.mirror.Upsert(ctx, doc, embedding); err != nil {
			s.logger.Warn("semantic: mirror upsert failed", "url", doc.URL, "err", err)
		}
	}
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Documents returns a copy of the stored document sequence.
func (s *Store) Documents() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Snapshot returns copies of both aligned sequences.
func (s *Store) Snapshot() ([]domain.Document, []domain.VectorEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, len(s.docs))
	copy(docs, s.docs)
	vectors := make([]domain.VectorEntry, len(s.vectors))
	copy(vectors, s.vectors)
	return docs, vectors
}

// ReplaceAll swaps in a fully parsed knowledge base. The store is only
// mutated when the sequences align, so a failed import leaves prior
// state intact.
func (s *Store) ReplaceAll(docs []domain.Document, vectors []domain.VectorEntry) error {
	if err := domain.ValidateAlignment(docs, vectors); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
	s.vectors = vectors
	return nil
}

// Search embeds the query and returns the topK documents by cosine
// similarity. An embedding failure yields an empty result, not an
// error: callers treat it as "no semantic signal".
func (s *Store) Search(ctx context.Context, query string, topK int) []domain.Document {
	if topK <= 0 {
		return nil
	}
	qv, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("semantic: query embedding failed", "err", err)
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		index int
		sim   float64
	}
	hits := make([]scored, len(s.vectors))
	for i, v := range s.vectors {
		hits[i] = scored{index: i, sim: Cosine(qv, v.Embedding)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].sim > hits[b].sim
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	out := make([]domain.Document, 0, topK)
	for _, h := range hits[:topK] {
		out = append(out, s.docs[h.index])
	}
	return out
}

// Cosine returns the cosine similarity of a and b. Zero-magnitude
// vectors (and mismatched lengths) score 0 rather than dividing by
// zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Package retrieval fuses lexical (BM25) and semantic (vector) results
// into a single ranking. Documents found by both searches always
// outrank documents found by only one.
package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/lexical"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/semantic"
)

// Fusion scoring: semantic hits enter at semanticBase; lexical hits add
// lexicalMerge to an existing semantic hit or enter at lexicalBase.
const (
	semanticBase = 1.0
	lexicalBase  = 0.5
	lexicalMerge = 1.0
)

// Searcher runs hybrid queries against the semantic store, building the
// lexical index over the store's current documents per query.
type Searcher struct {
	store   *semantic.Store
	weights lexical.Weights
	logger  *slog.Logger
}

// NewSearcher creates a hybrid searcher. Nil weights use
// lexical.DefaultWeights.
func NewSearcher(store *semantic.Store, weights lexical.Weights, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{store: store, weights: weights, logger: logger}
}

// Hybrid returns the topK fused results for query. Both underlying
// searches returning nothing is a normal outcome and yields an empty
// slice.
func (s *Searcher) Hybrid(ctx context.Context, query string, topK int) []domain.Document {
	if topK <= 0 {
		return nil
	}

	// Each side over-fetches so fusion has candidates to merge.
	sem := s.store.Search(ctx, query, topK*2)
	lex := lexical.NewIndex(s.store.Documents(), s.weights).Search(query, topK*2)

	s.logger.Debug("retrieval: hybrid candidates",
		"semantic", len(sem), "lexical", len(lex))

	return Fuse(sem, lex, topK)
}

// fused tracks one candidate through the keyed merge.
type fused struct {
	doc    domain.Document
	score  float64
	inBoth bool
}

// Fuse merges semantic and lexical result lists keyed on
// (url, first 50 chars of content) and returns the topK documents.
// Candidates present in both lists always rank above single-source
// candidates; within a bucket, higher accumulated score wins and ties
// keep insertion order.
func Fuse(sem, lex []domain.Document, topK int) []domain.Document {
	byKey := make(map[string]*fused, len(sem)+len(lex))
	var order []*fused

	for _, d := range sem {
		key := d.Key()
		if _, ok := byKey[key]; ok {
			continue
		}
		f := &fused{doc: d, score: semanticBase}
		byKey[key] = f
		order = append(order, f)
	}

	for _, d := range lex {
		key := d.Key()
		if f, ok := byKey[key]; ok {
			f.score += lexicalMerge
			f.inBoth = true
			continue
		}
		f := &fused{doc: d, score: lexicalBase}
		byKey[key] = f
		order = append(order, f)
	}

	sort.SliceStable(order, func(a, b int) bool {
		if order[a].inBoth != order[b].inBoth {
			return order[a].inBoth
		}
		return order[a].score > order[b].score
	})

	if topK > len(order) {
		topK = len(order)
	}
	out := make([]domain.Document, 0, topK)
	for _, f := range order[:topK] {
		out = append(out, f.doc)
	}
	return out
}

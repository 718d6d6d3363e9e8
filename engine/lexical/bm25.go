// Package lexical implements field-weighted BM25 ranking over an
// in-memory document set. Each weighted field gets its own independent
// term statistics; a document's total score is the weighted sum of its
// per-field BM25 scores.
package lexical

import (
	"math"
	"sort"
	"strings"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
)

// BM25 saturation and length-normalization constants.
const (
	k1 = 1.5
	b  = 0.75
)

// minTokenLen drops very short tokens; tokens of this length or shorter
// are ignored by the tokenizer.
const minTokenLen = 2

// Weights maps a field name ("title", "content", "url") to its weight in
// the combined score.
type Weights map[string]float64

// DefaultWeights boosts title matches over content matches.
var DefaultWeights = Weights{"title": 2, "content": 1}

// Tokenize lowercases s, strips non-word characters to whitespace, and
// drops tokens of length <= 2.
func Tokenize(s string) []string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, s)

	var out []string
	for _, tok := range strings.Fields(mapped) {
		if len(tok) > minTokenLen {
			out = append(out, tok)
		}
	}
	return out
}

// fieldModel holds the BM25 statistics for one field across all documents.
type fieldModel struct {
	name     string
	weight   float64
	termFreq []map[string]int // per document
	docLen   []int
	avgLen   float64
	docFreq  map[string]int
}

// Index is a BM25 index over a fixed document set.
type Index struct {
	docs   []domain.Document
	fields []fieldModel
}

// fieldValue extracts a named field from a document.
func fieldValue(d domain.Document, field string) string {
	switch field {
	case "title":
		return d.Title
	case "content":
		return d.Content
	case "url":
		return d.URL
	default:
		return ""
	}
}

// NewIndex builds an index from docs with the given field weights.
// Nil or empty weights fall back to DefaultWeights.
func NewIndex(docs []domain.Document, weights Weights) *Index {
	if len(weights) == 0 {
		weights = DefaultWeights
	}

	// Sorted field order keeps scoring iteration deterministic.
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	ix := &Index{docs: docs}
	for _, name := range names {
		fm := fieldModel{
			name:     name,
			weight:   weights[name],
			termFreq: make([]map[string]int, len(docs)),
			docLen:   make([]int, len(docs)),
			docFreq:  make(map[string]int),
		}
		var totalLen int
		for i, d := range docs {
			tokens := Tokenize(fieldValue(d, name))
			tf := make(map[string]int, len(tokens))
			for _, t := range tokens {
				tf[t]++
			}
			for t := range tf {
				fm.docFreq[t]++
			}
			fm.termFreq[i] = tf
			fm.docLen[i] = len(tokens)
			totalLen += len(tokens)
		}
		if len(docs) > 0 {
			fm.avgLen = float64(totalLen) / float64(len(docs))
		}
		ix.fields = append(ix.fields, fm)
	}
	return ix
}

// score computes the BM25 score of document i for the query tokens in
// one field.
func (fm *fieldModel) score(i int, queryTokens []string) float64 {
	if fm.avgLen == 0 {
		return 0
	}
	n := float64(len(fm.termFreq))
	var s float64
	for _, t := range queryTokens {
		tf := float64(fm.termFreq[i][t])
		if tf == 0 {
			continue
		}
		df := float64(fm.docFreq[t])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		norm := 1 - b + b*float64(fm.docLen[i])/fm.avgLen
		s += idf * tf * (k1 + 1) / (tf + k1*norm)
	}
	return s
}

// Search ranks documents against query and returns up to topK documents
// with a positive combined score, best first. Ties keep the original
// document order.
func (ix *Index) Search(query string, topK int) []domain.Document {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 || len(ix.docs) == 0 || topK <= 0 {
		return nil
	}

	scores := make([]float64, len(ix.docs))
	for i := range ix.docs {
		for f := range ix.fields {
			scores[i] += ix.fields[f].weight * ix.fields[f].score(i, queryTokens)
		}
	}

	order := make([]int, len(ix.docs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, c int) bool {
		return scores[order[a]] > scores[order[c]]
	})

	var out []domain.Document
	for _, i := range order {
		if scores[i] <= 0 {
			break
		}
		out = append(out, ix.docs[i])
		if len(out) == topK {
			break
		}
	}
	return out
}

// Package domain holds the core types shared across the crawl and
// retrieval pipeline: documents, vector entries, captures, and the
// validation rules that guard ingestion.
package domain

import "time"

// Source tags for documents created by the crawler.
const (
	// SourceInitial marks content captured on first page load.
	SourceInitial = "initial"
	// SourceExternal marks content produced by the external
	// crawl-and-convert adapter.
	SourceExternal = "external"
)

// Document is one retrievable chunk of captured page content.
// Documents are immutable once created.
type Document struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunk_index,omitempty"`
	Source     string `json:"source"`
}

// keyPrefixLen is how many leading content bytes participate in
// document identity for dedup during fusion.
const keyPrefixLen = 50

// Key approximates document identity as (url, first 50 chars of content).
// Two chunks from the same URL are distinct only if their prefixes differ.
func (d Document) Key() string {
	c := d.Content
	if len(c) > keyPrefixLen {
		c = c[:keyPrefixLen]
	}
	return d.URL + "\x00" + c
}

// VectorEntry pairs a document URL with its embedding. Entries are
// positionally aligned with the document sequence: entry i always
// describes document i.
type VectorEntry struct {
	URL       string    `json:"url"`
	Embedding []float32 `json:"embedding"`
}

// Capture is one piece of rendered page content handed from the crawler
// to the ingest pipeline, already converted to structured text.
type Capture struct {
	URL    string
	Title  string
	Text   string
	Source string
}

// PageResult is the per-URL record returned by the external
// crawl-and-convert subprocess.
type PageResult struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Title   string `json:"title"`
	Success bool   `json:"success"`
}

// Usable reports whether the result carries content worth ingesting.
func (r PageResult) Usable() bool {
	return r.Success && r.Content != ""
}

// CrawlJob is a queued request to crawl a site.
type CrawlJob struct {
	ID     string    `json:"id"`
	URL    string    `json:"url"`
	Depth  int       `json:"depth"`
	Queued time.Time `json:"queued"`
}

// IngestedEvent is published after a capture has been chunked, embedded,
// and stored.
type IngestedEvent struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

package crawler

import (
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/fn"
)

// ConvertResults maps per-URL results from an external crawl-and-convert
// tool to ingestable captures. Failed fetches and empty content are
// dropped; one bad page never fails the batch. Untitled pages fall back
// to their URL.
func ConvertResults(pages []domain.PageResult) []domain.Capture {
	return fn.FilterMap(pages, func(p domain.PageResult) (domain.Capture, bool) {
		if !p.Usable() {
			return domain.Capture{}, false
		}
		title := p.Title
		if title == "" {
			title = p.URL
		}
		return domain.Capture{
			URL:    p.URL,
			Title:  title,
			Text:   p.Content,
			Source: domain.SourceExternal,
		}, true
	})
}

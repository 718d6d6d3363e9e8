package crawler

import (
	"context"
	"log/slog"
)

// DiscoverElements scans page for visible interactive controls across
// all configured categories. A selector that errors (invalid pattern,
// detached nodes) is logged and skipped; the rest of the scan still
// runs, so partial results are always returned.
func DiscoverElements(ctx context.Context, page Page, categories []CategorySelectors, logger *slog.Logger) []InteractiveElement {
	if logger == nil {
		logger = slog.Default()
	}

	var found []InteractiveElement
	for _, cat := range categories {
		for _, sel := range cat.Selectors {
			elements, err := page.FindVisible(ctx, sel)
			if err != nil {
				logger.Warn("crawl: selector scan failed",
					"category", cat.Category, "selector", sel, "err", err)
				continue
			}
			for _, el := range elements {
				found = append(found, InteractiveElement{
					El:       el,
					Text:     el.Text(),
					Category: cat.Category,
					TagName:  el.TagName(),
					Selector: sel,
				})
			}
		}
	}
	return found
}

package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/extract"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/metrics"
)

// Ingestor receives captured page content. Implemented by
// engine/ingest; returns the number of chunks stored.
type Ingestor interface {
	Ingest(ctx context.Context, cap domain.Capture) (int, error)
}

// Recorder persists crawl topology for later reference and debugging.
// Implemented by engine/graph; a nil Recorder disables recording.
type Recorder interface {
	RecordPage(ctx context.Context, url, title string, depth int) error
	RecordLink(ctx context.Context, from, to string) error
	RecordElement(ctx context.Context, url string, index int, category, text, selector string) error
}

// Config controls one crawler instance.
type Config struct {
	UserAgent         string
	ViewportWidth     int
	ViewportHeight    int
	NavTimeout        time.Duration
	QuiescenceTimeout time.Duration
	// SettleDelay is the fixed extra wait after quiescence so trailing
	// JS can finish rendering.
	SettleDelay  time.Duration
	ScrollSettle time.Duration
	// InteractionDelay is the wait after each click before re-capture.
	InteractionDelay time.Duration
	// MaxInteractions bounds interaction attempts per page. Attempts
	// that yield duplicate content or fail still consume the budget.
	MaxInteractions int
	// MaxLinksPerPage caps same-domain links followed from one page.
	MaxLinksPerPage int
	// RequestsPerSecond throttles page navigations.
	RequestsPerSecond float64
	Selectors         []CategorySelectors
}

// DefaultConfig returns the crawl parameters used by the binaries.
func DefaultConfig() Config {
	return Config{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		NavTimeout:        30 * time.Second,
		QuiescenceTimeout: 10 * time.Second,
		SettleDelay:       2 * time.Second,
		ScrollSettle:      500 * time.Millisecond,
		InteractionDelay:  1500 * time.Millisecond,
		MaxInteractions:   15,
		MaxLinksPerPage:   5,
		RequestsPerSecond: 2,
		Selectors:         DefaultSelectors,
	}
}

// Crawler runs the dynamic-site crawl state machine.
type Crawler struct {
	browser  Browser
	ingest   Ingestor
	recorder Recorder
	limiter  *rate.Limiter
	cfg      Config
	logger   *slog.Logger

	pagesCrawled     *metrics.Counter
	interactions     *metrics.Counter
	duplicateSkips   *metrics.Counter
	interactionFails *metrics.Counter
}

// New creates a Crawler. recorder and reg may be nil.
func New(browser Browser, ingest Ingestor, recorder Recorder, cfg Config, reg *metrics.Registry, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxInteractions <= 0 {
		cfg.MaxInteractions = DefaultConfig().MaxInteractions
	}
	if cfg.MaxLinksPerPage <= 0 {
		cfg.MaxLinksPerPage = DefaultConfig().MaxLinksPerPage
	}
	if len(cfg.Selectors) == 0 {
		cfg.Selectors = DefaultSelectors
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultConfig().RequestsPerSecond
	}

	c := &Crawler{
		browser:  browser,
		ingest:   ingest,
		recorder: recorder,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		cfg:      cfg,
		logger:   logger,
	}
	if reg != nil {
		c.pagesCrawled = reg.Counter("crawler_pages_total", "Pages crawled")
		c.interactions = reg.Counter("crawler_interactions_total", "Interaction attempts")
		c.duplicateSkips = reg.Counter("crawler_duplicate_skips_total", "Interactions yielding duplicate content")
		c.interactionFails = reg.Counter("crawler_interaction_failures_total", "Failed element interactions")
	}
	return c
}

// Crawl runs the state machine starting at startURL, following
// same-domain links down to the given depth. The visited set is scoped
// to this invocation, so cyclic links terminate.
func (c *Crawler) Crawl(ctx context.Context, startURL string, depth int) error {
	if _, err := url.ParseRequestURI(startURL); err != nil {
		return fmt.Errorf("crawler: %w: %q", domain.ErrInvalidURL, startURL)
	}
	visited := make(map[string]bool)
	return c.crawl(ctx, startURL, depth, visited)
}

// crawl handles one URL. Hard failures inside a URL are logged and
// exhaust that branch without propagating; only context cancellation
// aborts the whole tree.
func (c *Crawler) crawl(ctx context.Context, pageURL string, depth int, visited map[string]bool) error {
	if depth < 0 || visited[pageURL] {
		return nil
	}
	visited[pageURL] = true

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.logger.Info("crawl.page", "url", pageURL, "depth", depth)

	page, err := c.browser.NewPage(ctx)
	if err != nil {
		c.logger.Error("crawl: open context failed", "url", pageURL, "err", err)
		return nil
	}
	// Context release is unconditional, including on cancellation.
	defer func() {
		if cerr := page.Close(); cerr != nil {
			c.logger.Warn("crawl: context close failed", "url", pageURL, "err", cerr)
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, c.cfg.NavTimeout)
	err = page.Navigate(navCtx, pageURL)
	cancel()
	if err != nil {
		c.logger.Error("crawl: navigation failed", "url", pageURL, "err", err)
		return ctx.Err()
	}
	c.settle(ctx, page)

	text, title, ok := c.capture(ctx, page, pageURL)
	if !ok {
		return ctx.Err()
	}
	if c.pagesCrawled != nil {
		c.pagesCrawled.Inc()
	}
	c.record(func() error { return c.recorder.RecordPage(ctx, pageURL, title, depth) })

	c.ingestCapture(ctx, domain.Capture{
		URL:    pageURL,
		Title:  title,
		Text:   text,
		Source: domain.SourceInitial,
	})

	elements := DiscoverElements(ctx, page, c.cfg.Selectors, c.logger)
	c.logger.Info("crawl.elements", "url", pageURL, "count", len(elements))
	for i, el := range elements {
		c.record(func() error {
			return c.recorder.RecordElement(ctx, pageURL, i, el.Category, el.Text, el.Selector)
		})
	}

	c.interactionLoop(ctx, page, pageURL, depth, text, elements, visited)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if depth > 0 {
		c.followLinks(ctx, page, pageURL, depth, visited)
	}
	return ctx.Err()
}

// settle waits for network quiescence (timeout is non-fatal) plus the
// fixed trailing delay.
func (c *Crawler) settle(ctx context.Context, page Page) {
	if err := page.WaitQuiescent(ctx, c.cfg.QuiescenceTimeout); err != nil {
		c.logger.Debug("crawl: quiescence timeout, proceeding", "err", err)
	}
	sleep(ctx, c.cfg.SettleDelay)
}

// capture snapshots the rendered page and converts it to structured
// text. Failures degrade to "no content" rather than aborting.
func (c *Crawler) capture(ctx context.Context, page Page, pageURL string) (text, title string, ok bool) {
	html, err := page.HTML(ctx)
	if err != nil {
		c.logger.Error("crawl: capture failed", "url", pageURL, "err", err)
		return "", "", false
	}
	title = extract.Title(html)
	if title == "" {
		title = pageURL
	}
	return extract.StructuredText(html), title, true
}

// ingestCapture hands one capture to the pipeline; ingest errors are
// logged, never fatal to the crawl.
func (c *Crawler) ingestCapture(ctx context.Context, cap domain.Capture) {
	stored, err := c.ingest.Ingest(ctx, cap)
	if err != nil {
		c.logger.Warn("crawl: ingest failed", "url", cap.URL, "source", cap.Source, "err", err)
		return
	}
	c.logger.Info("crawl.ingested", "url", cap.URL, "source", cap.Source, "chunks", stored)
}

// interactionLoop clicks through discovered elements, re-capturing
// content after each. Every loop iteration consumes one attempt from
// the interaction budget, whether it fails, yields duplicate content,
// or stores new chunks.
func (c *Crawler) interactionLoop(ctx context.Context, page Page, pageURL string, depth int, initialText string, elements []InteractiveElement, visited map[string]bool) {
	lastText := initialText
	attempts := 0

	for _, el := range elements {
		if attempts >= c.cfg.MaxInteractions || ctx.Err() != nil {
			return
		}
		attempts++
		if c.interactions != nil {
			c.interactions.Inc()
		}

		if err := c.interact(ctx, el); err != nil {
			if c.interactionFails != nil {
				c.interactionFails.Inc()
			}
			c.logger.Warn("crawl: interaction failed",
				"url", pageURL, "category", el.Category, "text", el.Text, "err", err)
			continue
		}

		currentURL, err := page.CurrentURL(ctx)
		if err != nil {
			c.logger.Warn("crawl: current url unavailable", "url", pageURL, "err", err)
			continue
		}
		if err := page.WaitQuiescent(ctx, c.cfg.QuiescenceTimeout); err != nil {
			c.logger.Debug("crawl: quiescence timeout after interaction", "err", err)
		}

		text, title, ok := c.capture(ctx, page, currentURL)
		if !ok {
			continue
		}
		if text == lastText {
			if c.duplicateSkips != nil {
				c.duplicateSkips.Inc()
			}
			c.logger.Debug("crawl: interaction yielded no new content",
				"url", pageURL, "category", el.Category, "text", el.Text)
			continue
		}
		lastText = text

		c.ingestCapture(ctx, domain.Capture{
			URL:    currentURL,
			Title:  title,
			Text:   text,
			Source: fmt.Sprintf("interaction:%s:%s", el.Category, el.Text),
		})

		if currentURL != pageURL {
			// SPA navigation: mark the destination visited and return to
			// the original page so the rest of the loop resumes there.
			if depth > 0 {
				visited[currentURL] = true
			}
			if err := page.Back(ctx); err != nil {
				c.logger.Warn("crawl: back navigation failed, ending loop",
					"url", pageURL, "err", err)
				return
			}
			c.settle(ctx, page)
		}
	}
}

// interact scrolls an element into view and clicks it, with the
// configured settle delays.
func (c *Crawler) interact(ctx context.Context, el InteractiveElement) error {
	if err := el.El.ScrollIntoView(ctx); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	sleep(ctx, c.cfg.ScrollSettle)
	if err := el.El.Click(ctx); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	sleep(ctx, c.cfg.InteractionDelay)
	return ctx.Err()
}

// followLinks extracts same-host links and recurses with depth-1.
func (c *Crawler) followLinks(ctx context.Context, page Page, pageURL string, depth int, visited map[string]bool) {
	links, err := page.Links(ctx)
	if err != nil {
		c.logger.Warn("crawl: link extraction failed", "url", pageURL, "err", err)
		return
	}

	targets := FilterLinks(pageURL, links, visited, c.cfg.MaxLinksPerPage)
	for _, target := range targets {
		if ctx.Err() != nil {
			return
		}
		c.record(func() error { return c.recorder.RecordLink(ctx, pageURL, target) })
		if err := c.crawl(ctx, target, depth-1, visited); err != nil {
			return
		}
	}
}

// FilterLinks resolves raw hrefs against base, drops fragments and
// script pseudo-links, keeps same-hostname not-yet-visited URLs, and
// caps the result at max. Order follows the input.
func FilterLinks(base string, hrefs []string, visited map[string]bool, max int) []string {
	origin, err := url.Parse(base)
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, href := range hrefs {
		if len(out) >= max {
			break
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			continue
		}
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := origin.ResolveReference(ref)
		abs.Fragment = ""
		if abs.Hostname() != origin.Hostname() {
			continue
		}
		target := abs.String()
		if visited[target] || seen[target] || target == base {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out
}

// record runs a recorder call when a recorder is configured; failures
// are logged and ignored.
func (c *Crawler) record(f func() error) {
	if c.recorder == nil {
		return
	}
	if err := f(); err != nil {
		c.logger.Warn("crawl: graph record failed", "err", err)
	}
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

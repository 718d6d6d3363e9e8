// Package browser implements the crawler's Browser/Page/Element
// capability surface on chromedp. One Engine owns a headless Chrome
// process; every NewPage call opens an isolated tab with its own
// cookies, storage, and network-activity tracking.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/crawler"
)

// ErrQuiescenceTimeout reports that the network did not settle in time.
var ErrQuiescenceTimeout = errors.New("browser: network quiescence timeout")

// Options configures the Chrome process.
type Options struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Headless       bool
}

// Engine owns the allocator and browser contexts.
type Engine struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

var _ crawler.Browser = (*Engine)(nil)

// New starts a Chrome process with the given options.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = 1920
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = 1080
	}
	flags := append([]chromedp.ExecAllocatorOption{},
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
	)
	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, flags...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so a broken Chrome install
	// fails here rather than on the first page.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	return &Engine{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// NewPage opens an isolated tab.
func (e *Engine) NewPage(ctx context.Context) (crawler.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(e.browserCtx)
	p := &page{ctx: tabCtx, cancel: cancel}

	chromedp.ListenTarget(tabCtx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			p.inflight.Add(1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			p.inflight.Add(-1)
		}
	})

	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("browser: open tab: %w", err)
	}
	return p, nil
}

// Close shuts the browser process down.
func (e *Engine) Close() error {
	e.browserCancel()
	e.allocCancel()
	return nil
}

// page is one tab.
type page struct {
	ctx      context.Context
	cancel   context.CancelFunc
	inflight atomic.Int64
}

var _ crawler.Page = (*page)(nil)

// run executes chromedp actions on the tab, honoring the caller's
// context for cancellation and deadlines.
func (p *page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (p *page) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

// WaitQuiescent polls the in-flight request count until it stays at
// zero for two consecutive ticks or the timeout elapses.
func (p *page) WaitQuiescent(ctx context.Context, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	idleTicks := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrQuiescenceTimeout
		case <-tick.C:
			if p.inflight.Load() <= 0 {
				idleTicks++
				if idleTicks >= 2 {
					return nil
				}
			} else {
				idleTicks = 0
			}
		}
	}
}

func (p *page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("browser: outer html: %w", err)
	}
	return html, nil
}

func (p *page) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := p.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("browser: location: %w", err)
	}
	return url, nil
}

// FindVisible returns matching elements that have a box model, i.e.
// occupy layout space. Text and tag name are captured eagerly because
// handles go stale once the page mutates.
func (p *page) FindVisible(ctx context.Context, selector string) ([]crawler.Element, error) {
	var nodes []*cdp.Node
	err := p.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", selector, err)
	}

	var out []crawler.Element
	for _, n := range nodes {
		visible := false
		checkErr := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			// Detached or display:none nodes have no box model.
			box, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
			if err == nil && box != nil && box.Width > 0 && box.Height > 0 {
				visible = true
			}
			return nil
		}))
		if checkErr != nil || !visible {
			continue
		}

		var text string
		_ = p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			return chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID).Do(ctx)
		}))
		out = append(out, &element{
			page: p,
			node: n,
			text: strings.TrimSpace(text),
			tag:  strings.ToLower(n.NodeName),
		})
	}
	return out, nil
}

func (p *page) Links(ctx context.Context) ([]string, error) {
	var hrefs []string
	err := p.run(ctx, chromedp.Evaluate(
		`Array.from(document.querySelectorAll('a[href]')).map(a => a.getAttribute('href'))`,
		&hrefs,
	))
	if err != nil {
		return nil, fmt.Errorf("browser: links: %w", err)
	}
	return hrefs, nil
}

func (p *page) Back(ctx context.Context) error {
	if err := p.run(ctx, chromedp.NavigateBack()); err != nil {
		return fmt.Errorf("browser: back: %w", err)
	}
	return nil
}

func (p *page) Close() error {
	p.cancel()
	return nil
}

// element is a live node handle within a tab.
type element struct {
	page *page
	node *cdp.Node
	text string
	tag  string
}

var _ crawler.Element = (*element)(nil)

func (e *element) Text() string    { return e.text }
func (e *element) TagName() string { return e.tag }

func (e *element) ScrollIntoView(ctx context.Context) error {
	err := e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return dom.ScrollIntoViewIfNeeded().WithNodeID(e.node.NodeID).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("browser: scroll: %w", err)
	}
	return nil
}

func (e *element) Click(ctx context.Context) error {
	if err := e.page.run(ctx, chromedp.MouseClickNode(e.node)); err != nil {
		return fmt.Errorf("browser: click: %w", err)
	}
	return nil
}

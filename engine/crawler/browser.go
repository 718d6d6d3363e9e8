// Package crawler drives a rendered browser through page load, content
// capture, an interaction loop over clickable UI, and same-domain link
// following, feeding every capture into the ingest pipeline.
//
// The browser engine itself is an external collaborator hidden behind
// the Browser/Page/Element capability surface below; pkg/browser
// provides the chromedp implementation and tests substitute fakes.
package crawler

import (
	"context"
	"time"
)

// Browser opens isolated browsing contexts.
type Browser interface {
	// NewPage opens a fresh browsing context (clean cookies/storage).
	NewPage(ctx context.Context) (Page, error)
	// Close releases the underlying engine.
	Close() error
}

// Page is one isolated browsing context.
type Page interface {
	// Navigate loads url, returning once the DOM is ready (not full
	// network idle).
	Navigate(ctx context.Context, url string) error
	// WaitQuiescent blocks until the page's network settles or timeout
	// elapses. A timeout is reported as an error; callers treat it as
	// non-fatal and proceed with whatever is rendered.
	WaitQuiescent(ctx context.Context, timeout time.Duration) error
	// HTML snapshots the current rendered document.
	HTML(ctx context.Context) (string, error)
	// CurrentURL reports the page's present location.
	CurrentURL(ctx context.Context) (string, error)
	// FindVisible returns elements matching selector that have a
	// non-zero bounding box, in DOM order.
	FindVisible(ctx context.Context, selector string) ([]Element, error)
	// Links returns the raw href attribute of every anchor on the page.
	Links(ctx context.Context) ([]string, error)
	// Back navigates one step back in the page's history.
	Back(ctx context.Context) error
	// Close releases the browsing context.
	Close() error
}

// Element is a live handle to one interactive control. Handles are only
// valid for the lifetime of the page that produced them.
type Element interface {
	Text() string
	TagName() string
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context) error
}

// InteractiveElement describes a discovered control together with where
// it was found. Never persisted; valid only while its page is open.
type InteractiveElement struct {
	El       Element
	Text     string
	Category string
	TagName  string
	Selector string
}

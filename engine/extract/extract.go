// Package extract converts rendered HTML into LLM-consumable structured
// text: headings, list items, and paragraphs in document order. The
// conversion is lossy by design; layout and non-semantic markup are
// discarded.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// skipTags are removed entirely before extraction.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"noscript": true,
}

// headingLevels maps heading tags to their markdown depth.
var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Title returns the trimmed contents of the document's <title> element,
// or "" if absent.
func Title(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = strings.TrimSpace(text(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return title
}

// StructuredText renders doc as plain structured text: the page title as
// a level-1 heading, h1-h6 as #-prefixed lines, list items as bullets,
// and paragraphs/content containers as plain lines. Runs of blank lines
// are collapsed.
func StructuredText(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}

	var blocks []string
	if t := Title(doc); t != "" {
		blocks = append(blocks, "# "+t)
	}

	var body *html.Node
	var findBody func(*html.Node)
	findBody = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findBody(c)
		}
	}
	findBody(root)
	if body == nil {
		body = root
	}

	blocks = append(blocks, extractBlocks(body)...)

	out := strings.Join(blocks, "\n\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// extractBlocks walks n in document order, emitting one block per
// heading, list item, paragraph, or content container.
func extractBlocks(n *html.Node) []string {
	var blocks []string
	var walk func(*html.Node) int // returns blocks emitted within the subtree
	walk = func(n *html.Node) int {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return 0
			}
			if level, ok := headingLevels[n.Data]; ok {
				if t := strings.TrimSpace(text(n)); t != "" {
					blocks = append(blocks, strings.Repeat("#", level)+" "+t)
					return 1
				}
				return 0
			}
			switch n.Data {
			case "li":
				if t := strings.TrimSpace(text(n)); t != "" {
					blocks = append(blocks, "- "+t)
					return 1
				}
				return 0
			case "p":
				if t := strings.TrimSpace(text(n)); t != "" {
					blocks = append(blocks, t)
					return 1
				}
				return 0
			}
		}

		emitted := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			emitted += walk(c)
		}

		// Content containers whose children produced nothing still carry
		// their bare text as a paragraph.
		if emitted == 0 && isContentContainer(n) {
			if t := strings.TrimSpace(text(n)); t != "" {
				blocks = append(blocks, t)
				return 1
			}
		}
		return emitted
	}
	walk(n)
	return blocks
}

// isContentContainer reports whether n is a generic content region:
// article, main, or an element flagged as main/content via role, id, or
// class.
func isContentContainer(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.Data == "article" || n.Data == "main" {
		return true
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "role":
			if a.Val == "main" {
				return true
			}
		case "id", "class":
			v := strings.ToLower(a.Val)
			if strings.Contains(v, "content") || strings.Contains(v, "main") {
				return true
			}
		}
	}
	return false
}

// text concatenates all text nodes under n, skipping stripped tags.
func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

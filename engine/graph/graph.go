// Package graph records crawl topology in Neo4j: the pages visited,
// the links followed between them, and the interactive elements found
// on each page. The graph is a debugging and inspection aid; retrieval
// never reads from it.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Store writes crawl topology to Neo4j.
type Store struct {
	driver neo4j.DriverWithContext
}

// New creates a Store on an existing driver.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, pass string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return nil, fmt.Errorf("graph: driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("graph: connect: %w", err)
	}
	return &Store{driver: driver}, nil
}

// Close releases the driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// RecordPage upserts a page node keyed by URL.
func (s *Store) RecordPage(ctx context.Context, url, title string, depth int) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MERGE (p:Page {url: $url})
	           SET p.title = $title, p.depth = $depth, p.crawled_at = datetime()`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"url":   url,
		"title": title,
		"depth": depth,
	})
	return err
}

// RecordLink upserts a LINKS_TO edge between two pages. The target node
// is created eagerly so links to uncrawled pages still show up.
func (s *Store) RecordLink(ctx context.Context, from, to string) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MERGE (a:Page {url: $from})
	           MERGE (b:Page {url: $to})
	           MERGE (a)-[:LINKS_TO]->(b)`
	_, err := sess.Run(ctx, cypher, map[string]any{"from": from, "to": to})
	return err
}

// RecordElement upserts an interactive element discovered on a page,
// keyed by page URL and discovery index.
func (s *Store) RecordElement(ctx context.Context, url string, index int, category, text, selector string) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MERGE (p:Page {url: $url})
	           MERGE (e:Element {page: $url, index: $index})
	           SET e.category = $category, e.text = $text, e.selector = $selector
	           MERGE (p)-[:HAS_ELEMENT]->(e)`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"url":      url,
		"index":    index,
		"category": category,
		"text":     text,
		"selector": selector,
	})
	return err
}

// PageCount returns the number of recorded pages.
func (s *Store) PageCount(ctx context.Context) (int64, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (p:Page) RETURN count(p) AS n`, nil)
	if err != nil {
		return 0, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := record.Get("n")
	count, ok := n.(int64)
	if !ok {
		return 0, fmt.Errorf("graph: unexpected count type %T", n)
	}
	return count, nil
}

package graph

import (
	"context"
	"os"
	"testing"
	"time"
)

// Requires a running Neo4j; set NEO4J_TEST_URI to enable.
func TestRecordCrawlTopology(t *testing.T) {
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := Connect(ctx, uri, os.Getenv("NEO4J_TEST_USER"), os.Getenv("NEO4J_TEST_PASS"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close(ctx)

	if err := store.RecordPage(ctx, "https://example.com/", "Home", 2); err != nil {
		t.Fatalf("record page: %v", err)
	}
	if err := store.RecordLink(ctx, "https://example.com/", "https://example.com/docs"); err != nil {
		t.Fatalf("record link: %v", err)
	}
	if err := store.RecordElement(ctx, "https://example.com/", 0, "buttons", "Show More", "button"); err != nil {
		t.Fatalf("record element: %v", err)
	}

	n, err := store.PageCount(ctx)
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	if n < 2 {
		t.Errorf("page count = %d, want at least 2", n)
	}
}

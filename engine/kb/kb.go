// Package kb persists the knowledge base as a JSON snapshot so a crawl
// can be saved once and queried across restarts.
package kb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/semantic"
)

// Snapshot is the on-disk knowledge base format. Documents and
// vectorStore are positionally aligned.
type Snapshot struct {
	Documents   []domain.Document    `json:"documents"`
	VectorStore []domain.VectorEntry `json:"vector_store"`
	Timestamp   time.Time            `json:"timestamp"`
}

// Export writes the store's current contents to w.
func Export(w io.Writer, store *semantic.Store) error {
	docs, vectors := store.Snapshot()
	snap := Snapshot{
		Documents:   docs,
		VectorStore: vectors,
		Timestamp:   time.Now().UTC(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("kb export: %w", err)
	}
	return nil
}

// Import replaces the store's contents with a snapshot read from r.
// The snapshot is fully parsed and validated before any mutation, so a
// corrupt file leaves the store untouched. Missing arrays load as an
// empty knowledge base.
func Import(r io.Reader, store *semantic.Store) error {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("kb import: parse: %w", err)
	}
	if snap.Documents == nil {
		snap.Documents = []domain.Document{}
	}
	if snap.VectorStore == nil {
		snap.VectorStore = []domain.VectorEntry{}
	}
	if err := store.ReplaceAll(snap.Documents, snap.VectorStore); err != nil {
		return fmt.Errorf("kb import: %w", err)
	}
	return nil
}

// ExportFile writes the snapshot to path, creating or truncating it.
func ExportFile(path string, store *semantic.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("kb export: %w", err)
	}
	defer f.Close()
	if err := Export(f, store); err != nil {
		return err
	}
	return f.Close()
}

// ImportFile loads a snapshot from path into the store.
func ImportFile(path string, store *semantic.Store) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("kb import: %w", err)
	}
	defer f.Close()
	return Import(f, store)
}

// Package ingest turns captured page text into stored, searchable
// chunks. The pipeline runs validation, chunking, and per-chunk
// embedding plus storage as composed stages.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/chunk"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/crawler"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/semantic"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/fn"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/resilience"
)

// Options tunes the pipeline.
type Options struct {
	// MaxChunkTokens bounds each stored chunk.
	MaxChunkTokens int
	// EmbedTimeout bounds each embedding call.
	EmbedTimeout time.Duration
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		MaxChunkTokens: chunk.DefaultMaxTokens,
		EmbedTimeout:   30 * time.Second,
	}
}

// Deps holds the pipeline's collaborators.
type Deps struct {
	Store   *semantic.Store
	Embed   semantic.EmbedClient
	Breaker *resilience.Breaker
	// OnIngested, when set, is called after a capture stores at least
	// one chunk.
	OnIngested func(context.Context, domain.IngestedEvent)
	Logger     *slog.Logger
}

// Service runs captures through the ingest pipeline.
type Service struct {
	pipeline fn.Stage[domain.Capture, int]
	logger   *slog.Logger
}

// chunked pairs a capture with its chunk texts.
type chunked struct {
	cap    domain.Capture
	chunks []string
}

// New wires the pipeline stages. A nil Breaker disables embed
// protection; a nil Logger falls back to slog.Default.
func New(deps Deps, opts Options) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxChunkTokens <= 0 {
		opts.MaxChunkTokens = DefaultOptions().MaxChunkTokens
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = DefaultOptions().EmbedTimeout
	}

	validate := fn.TracedStage("ingest.validate", fn.Stage[domain.Capture, domain.Capture](
		func(_ context.Context, cap domain.Capture) fn.Result[domain.Capture] {
			if err := domain.ValidateCapture(cap); err != nil {
				return fn.Err[domain.Capture](err)
			}
			return fn.Ok(cap)
		}))

	split := fn.TracedStage("ingest.chunk", fn.Stage[domain.Capture, chunked](
		func(_ context.Context, cap domain.Capture) fn.Result[chunked] {
			return fn.Ok(chunked{cap: cap, chunks: chunk.Split(cap.Text, opts.MaxChunkTokens)})
		}))

	store := fn.TracedStage("ingest.store", embedAndStore(deps, opts, logger))

	s := &Service{logger: logger}
	s.pipeline = func(ctx context.Context, cap domain.Capture) fn.Result[int] {
		r := fn.Then(fn.Then(validate, split), store)(ctx, cap)
		if stored, err := r.Unwrap(); err == nil && stored > 0 && deps.OnIngested != nil {
			deps.OnIngested(ctx, domain.IngestedEvent{
				URL:    cap.URL,
				Source: cap.Source,
				Chunks: stored,
			})
		}
		return r
	}
	return s
}

// embedAndStore embeds each chunk and appends it to the store. A chunk
// whose embedding fails is skipped; the rest of the capture still
// lands. Zero stored chunks from a non-empty split is an error.
func embedAndStore(deps Deps, opts Options, logger *slog.Logger) fn.Stage[chunked, int] {
	embedOne := func(ctx context.Context, text string) ([]float32, error) {
		embedCtx, cancel := context.WithTimeout(ctx, opts.EmbedTimeout)
		defer cancel()
		if deps.Breaker == nil {
			return deps.Embed.Embed(embedCtx, text)
		}
		var vec []float32
		err := deps.Breaker.Call(embedCtx, func(ctx context.Context) error {
			var err error
			vec, err = deps.Embed.Embed(ctx, text)
			return err
		})
		return vec, err
	}

	return func(ctx context.Context, c chunked) fn.Result[int] {
		stored := 0
		for i, text := range c.chunks {
			if ctx.Err() != nil {
				return fn.Err[int](ctx.Err())
			}
			vec, err := embedOne(ctx, text)
			if err != nil {
				logger.Warn("ingest: chunk embed failed, skipping",
					"url", c.cap.URL, "chunk", i, "err", err)
				continue
			}
			doc := domain.Document{
				URL:        c.cap.URL,
				Title:      c.cap.Title,
				Content:    text,
				ChunkIndex: i,
				Source:     c.cap.Source,
			}
			if err := deps.Store.Append(ctx, doc, vec); err != nil {
				logger.Warn("ingest: store append failed",
					"url", c.cap.URL, "chunk", i, "err", err)
				continue
			}
			stored++
		}
		if stored == 0 && len(c.chunks) > 0 {
			return fn.Err[int](fmt.Errorf("ingest %s: %w", c.cap.URL, domain.ErrNoEmbedding))
		}
		return fn.Ok(stored)
	}
}

// Ingest runs one capture through the pipeline, returning the number
// of chunks stored.
func (s *Service) Ingest(ctx context.Context, cap domain.Capture) (int, error) {
	r := s.pipeline(ctx, cap)
	stored, err := r.Unwrap()
	if err != nil {
		return 0, err
	}
	s.logger.Info("ingest.done", "url", cap.URL, "source", cap.Source, "chunks", stored)
	return stored, nil
}

// IngestExternal feeds a batch of adapter page results through the
// pipeline. Unusable pages are dropped by the conversion; a page that
// fails ingestion is logged and skipped. The counts report what landed.
func (s *Service) IngestExternal(ctx context.Context, pages []domain.PageResult) (docs, chunks int) {
	for _, cap := range crawler.ConvertResults(pages) {
		if ctx.Err() != nil {
			return docs, chunks
		}
		stored, err := s.Ingest(ctx, cap)
		if err != nil {
			s.logger.Warn("ingest: external page failed", "url", cap.URL, "err", err)
			continue
		}
		docs++
		chunks += stored
	}
	return docs, chunks
}

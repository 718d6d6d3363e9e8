// Package main implements a one-shot crawler: crawl a site, build the
// knowledge base in memory, and write it to a JSON snapshot.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/crawler"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/ingest"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/kb"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/semantic"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/browser"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/metrics"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/ollama"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/resilience"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	var (
		depth    = flag.Int("depth", 2, "link-following depth")
		out      = flag.String("out", "kb.json", "output snapshot path")
		headful  = flag.Bool("headful", false, "run the browser with a visible window")
		results  = flag.String("results", "", "ingest an external adapter results JSON file instead of crawling")
		ollamaIn = flag.String("ollama", envOr("OLLAMA_URL", "http://localhost:11434"), "Ollama base URL")
		model    = flag.String("embed-model", envOr("EMBED_MODEL", "nomic-embed-text"), "embedding model")
	)
	flag.Parse()

	if *results == "" && flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <start-url>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	startURL := flag.Arg(0)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var err error
	if *results != "" {
		err = runFromResults(*results, *out, *ollamaIn, *model, logger)
	} else {
		err = run(startURL, *depth, *out, !*headful, *ollamaIn, *model, logger)
	}
	if err != nil {
		logger.Error("crawl failed", "err", err)
		os.Exit(1)
	}
}

// runFromResults ingests page results produced by an external
// crawl-and-convert tool and writes the resulting knowledge base.
func runFromResults(path, out, ollamaURL, embedModel string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}
	var pages []domain.PageResult
	if err := json.Unmarshal(data, &pages); err != nil {
		return fmt.Errorf("parse results: %w", err)
	}

	embed := ollama.NewEmbedClient(ollamaURL, embedModel)
	store := semantic.NewStore(embed, nil, logger)
	ingestSvc := ingest.New(ingest.Deps{
		Store:   store,
		Embed:   embed,
		Breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		Logger:  logger,
	}, ingest.DefaultOptions())

	docs, chunks := ingestSvc.IngestExternal(ctx, pages)
	logger.Info("results ingested", "pages", len(pages), "documents", docs, "chunks", chunks)
	return kb.ExportFile(out, store)
}

func run(startURL string, depth int, out string, headless bool, ollamaURL, embedModel string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embed := ollama.NewEmbedClient(ollamaURL, embedModel)
	store := semantic.NewStore(embed, nil, logger)

	ingestSvc := ingest.New(ingest.Deps{
		Store:   store,
		Embed:   embed,
		Breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		Logger:  logger,
	}, ingest.DefaultOptions())

	cfg := crawler.DefaultConfig()
	engine, err := browser.New(ctx, browser.Options{
		UserAgent:      cfg.UserAgent,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
		Headless:       headless,
	})
	if err != nil {
		return fmt.Errorf("browser start: %w", err)
	}
	defer engine.Close()

	c := crawler.New(engine, ingestSvc, nil, cfg, metrics.New(), logger)
	if err := c.Crawl(ctx, startURL, depth); err != nil {
		return err
	}

	logger.Info("crawl complete", "documents", store.Len(), "out", out)
	return kb.ExportFile(out, store)
}

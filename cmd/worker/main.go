// Package main implements the crawl worker: it consumes crawl jobs
// from NATS, runs them through the crawler, and publishes ingestion
// events. Failed jobs are retried and eventually dead-lettered.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/crawler"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/graph"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/ingest"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/kb"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/semantic"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/browser"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/metrics"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/natsutil"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/ollama"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/resilience"
)

const (
	// JobsSubject carries queued crawl jobs.
	JobsSubject = "crawler.jobs"
	// DLQSubject receives jobs that exhausted their retries.
	DLQSubject = "crawler.jobs.dlq"
	// IngestedSubject announces stored captures.
	IngestedSubject = "crawler.ingested"
	// MaxRetries before a job is dead-lettered.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// dlqMessage wraps a failed job for the dead letter queue.
type dlqMessage struct {
	Job     domain.CrawlJob `json:"job"`
	Error   string          `json:"error"`
	Retries int             `json:"retries"`
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	natsURL := envOr("NATS_URL", nats.DefaultURL)
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Drain()

	ollamaURL := envOr("OLLAMA_URL", "http://localhost:11434")
	embed := ollama.NewEmbedClient(ollamaURL, envOr("EMBED_MODEL", "nomic-embed-text"))
	store := semantic.NewStore(embed, nil, logger)

	ingestSvc := ingest.New(ingest.Deps{
		Store:   store,
		Embed:   embed,
		Breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		OnIngested: func(ctx context.Context, ev domain.IngestedEvent) {
			if err := natsutil.Publish(ctx, nc, IngestedSubject, ev); err != nil {
				logger.Warn("ingested event publish failed", "err", err)
			}
		},
		Logger: logger,
	}, ingest.DefaultOptions())

	var recorder crawler.Recorder
	if uri := os.Getenv("NEO4J_URL"); uri != "" {
		gs, err := graph.Connect(ctx, uri, envOr("NEO4J_USER", "neo4j"), envOr("NEO4J_PASS", "password"))
		if err != nil {
			logger.Warn("neo4j unavailable, crawl graph disabled", "err", err)
		} else {
			defer gs.Close(ctx)
			recorder = gs
		}
	}

	reg := metrics.New()
	snapshotPath := envOr("KB_PATH", "kb.json")
	headless := envOr("HEADLESS", "true") != "false"

	sub, err := nc.Subscribe(JobsSubject, func(msg *nats.Msg) {
		var job domain.CrawlJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			logger.Error("job unmarshal failed", "err", err)
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				retries, _ = strconv.Atoi(v)
			}
		}

		logger.Info("job start", "id", job.ID, "url", job.URL, "depth", job.Depth, "retry", retries)

		if err := runJob(ctx, job, ingestSvc, recorder, reg, headless, logger); err != nil {
			retries++
			logger.Error("job failed", "id", job.ID, "err", err, "retry", retries)

			if retries >= MaxRetries {
				data, _ := json.Marshal(dlqMessage{Job: job, Error: err.Error(), Retries: retries})
				if err := nc.Publish(DLQSubject, data); err != nil {
					logger.Error("dlq publish failed", "err", err)
				}
				return
			}
			retry := nats.NewMsg(JobsSubject)
			retry.Data = msg.Data
			retry.Header = nats.Header{}
			retry.Header.Set(retryHeader, strconv.Itoa(retries))
			if err := nc.PublishMsg(retry); err != nil {
				logger.Error("retry publish failed", "err", err)
			}
			return
		}

		if err := kb.ExportFile(snapshotPath, store); err != nil {
			logger.Warn("snapshot write failed", "path", snapshotPath, "err", err)
		}
		logger.Info("job done", "id", job.ID, "documents", store.Len())
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	logger.Info("worker started", "subject", JobsSubject, "nats", natsURL)
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}

// runJob crawls one job with a dedicated browser process.
func runJob(ctx context.Context, job domain.CrawlJob, ingestSvc *ingest.Service, recorder crawler.Recorder, reg *metrics.Registry, headless bool, logger *slog.Logger) error {
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

	c := crawler.New(engine, ingestSvc, recorder, cfg, reg, logger)
	return c.Crawl(ctx, job.URL, job.Depth)
}

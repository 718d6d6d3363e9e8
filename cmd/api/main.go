// Package main implements the crawl + retrieval API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/crawler"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/graph"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/ingest"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/kb"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/rag"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/retrieval"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/semantic"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/browser"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/metrics"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/mid"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/ollama"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port             string
	OllamaURL        string
	EmbedModel       string
	ChatModel        string
	QdrantURL        string
	QdrantCollection string
	EmbedDims        int
	Neo4jURL         string
	Neo4jUser        string
	Neo4jPass        string
	CORSOrigin       string
	Headless         bool
	MaxDepth         int
}

func loadConfig() Config {
	return Config{
		Port:             envOr("PORT", "8080"),
		OllamaURL:        envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:       envOr("EMBED_MODEL", "nomic-embed-text"),
		ChatModel:        envOr("CHAT_MODEL", "llama3"),
		QdrantURL:        os.Getenv("QDRANT_URL"),
		QdrantCollection: envOr("QDRANT_COLLECTION", "pages"),
		EmbedDims:        envInt("EMBED_DIMS", 768),
		Neo4jURL:         os.Getenv("NEO4J_URL"),
		Neo4jUser:        envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:        envOr("NEO4J_PASS", "password"),
		CORSOrigin:       envOr("CORS_ORIGIN", "*"),
		Headless:         envOr("HEADLESS", "true") != "false",
		MaxDepth:         envInt("MAX_CRAWL_DEPTH", 3),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()

	// --- Embedding + vector store (Qdrant mirror is optional) ---
	embed := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)

	var mirror semantic.Mirror
	if cfg.QdrantURL != "" {
		qm, err := semantic.NewQdrantMirror(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		defer qm.Close()
		if err := qm.EnsureCollection(ctx, cfg.EmbedDims); err != nil {
			logger.Warn("qdrant collection setup failed, mirroring disabled", "err", err)
		} else {
			mirror = qm
		}
	}
	store := semantic.NewStore(embed, mirror, logger)

	// --- Ingest pipeline ---
	ingestSvc := ingest.New(ingest.Deps{
		Store:   store,
		Embed:   embed,
		Breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		Logger:  logger,
	}, ingest.DefaultOptions())

	// --- Crawl graph recorder (optional) ---
	var recorder crawler.Recorder
	if cfg.Neo4jURL != "" {
		gs, err := graph.Connect(ctx, cfg.Neo4jURL, cfg.Neo4jUser, cfg.Neo4jPass)
		if err != nil {
			logger.Warn("neo4j unavailable, crawl graph disabled", "err", err)
		} else {
			defer gs.Close(ctx)
			recorder = gs
		}
	}

	// --- Retrieval + answering ---
	searcher := retrieval.NewSearcher(store, nil, logger)
	ragSvc := rag.New(searcher, ollama.NewChatClient(cfg.OllamaURL, cfg.ChatModel), rag.DefaultOptions(), logger)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth(store))
	mux.HandleFunc("POST /api/query", handleQuery(ragSvc, logger))
	mux.HandleFunc("POST /api/crawl", handleCrawl(cfg, ingestSvc, recorder, reg, logger))
	mux.HandleFunc("GET /api/kb/export", handleExport(store, logger))
	mux.HandleFunc("POST /api/kb/import", handleImport(store, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("crawler-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // crawls run synchronously
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(store *semantic.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"documents": store.Len(),
		})
	}
}

// QueryRequest is the JSON body for POST /api/query.
type QueryRequest struct {
	Question string `json:"question"`
}

func handleQuery(ragSvc *rag.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		answer, err := ragSvc.Query(r.Context(), req.Question)
		if err != nil {
			if errors.Is(err, domain.ErrEmptyQuery) {
				writeError(w, http.StatusBadRequest, "question is required")
				return
			}
			logger.Error("query failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, answer)
	}
}

// CrawlRequest is the JSON body for POST /api/crawl.
type CrawlRequest struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}

func handleCrawl(cfg Config, ingestSvc *ingest.Service, recorder crawler.Recorder, reg *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CrawlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		if req.Depth < 0 || req.Depth > cfg.MaxDepth {
			req.Depth = cfg.MaxDepth
		}

		// Each crawl owns its browser process for the request duration.
		crawlCfg := crawler.DefaultConfig()
		engine, err := browser.New(r.Context(), browser.Options{
			UserAgent:      crawlCfg.UserAgent,
			ViewportWidth:  crawlCfg.ViewportWidth,
			ViewportHeight: crawlCfg.ViewportHeight,
			Headless:       cfg.Headless,
		})
		if err != nil {
			logger.Error("browser start failed", "err", err)
			writeError(w, http.StatusInternalServerError, "browser unavailable")
			return
		}
		defer engine.Close()

		c := crawler.New(engine, ingestSvc, recorder, crawlCfg, reg, logger)
		if err := c.Crawl(r.Context(), req.URL, req.Depth); err != nil {
			if errors.Is(err, domain.ErrInvalidURL) {
				writeError(w, http.StatusBadRequest, "invalid url")
				return
			}
			logger.Error("crawl failed", "url", req.URL, "err", err)
			writeError(w, http.StatusInternalServerError, "crawl failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "done", "url": req.URL, "depth": req.Depth})
	}
}

func handleExport(store *semantic.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := kb.Export(w, store); err != nil {
			logger.Error("kb export failed", "err", err)
		}
	}
}

func handleImport(store *semantic.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := kb.Import(r.Body, store); err != nil {
			logger.Error("kb import failed", "err", err)
			writeError(w, http.StatusBadRequest, "invalid snapshot")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "documents": store.Len()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

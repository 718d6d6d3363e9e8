// Package rag answers questions over the crawled knowledge base. It
// retrieves relevant chunks via hybrid search, builds a grounded
// prompt, and asks the chat model for the final answer.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/fn"
)

// Retriever produces the documents backing an answer. Implemented by
// retrieval.Searcher.
type Retriever interface {
	Hybrid(ctx context.Context, query string, topK int) []domain.Document
}

// ChatClient generates the answer text. Implemented by ollama.ChatClient.
type ChatClient interface {
	Chat(ctx context.Context, system, user string) (reply, model string, err error)
}

// Options configures answering behavior.
type Options struct {
	TopK         int
	SystemPrompt string
}

// DefaultOptions returns the answering defaults.
func DefaultOptions() Options {
	return Options{
		TopK:         5,
		SystemPrompt: defaultSystemPrompt,
	}
}

const defaultSystemPrompt = `You are a documentation assistant. Answer the question using ONLY the
provided context. If the context does not contain the answer, say that
the knowledge base has insufficient information. Cite sources by URL.`

// InsufficientInfo is the answer text returned when retrieval finds
// nothing; the chat model is not consulted in that case.
const InsufficientInfo = "The knowledge base has insufficient information to answer this question."

// Answer is the structured response to a question.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
	Model   string   `json:"model,omitempty"`
}

// Source cites a document backing the answer.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Service orchestrates retrieval and generation.
type Service struct {
	retriever Retriever
	chat      ChatClient
	opts      Options
	logger    *slog.Logger
}

// New creates a Service.
func New(retriever Retriever, chat ChatClient, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultOptions().SystemPrompt
	}
	return &Service{retriever: retriever, chat: chat, opts: opts, logger: logger}
}

// Query answers one question. An empty question is rejected; a question
// with no retrievable context short-circuits to InsufficientInfo
// without calling the model.
func (s *Service) Query(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuery
	}

	docs := s.retriever.Hybrid(ctx, question, s.opts.TopK)
	s.logger.Info("rag.retrieved", "question_len", len(question), "docs", len(docs))

	if len(docs) == 0 {
		return &Answer{Text: InsufficientInfo}, nil
	}

	reply, model, err := s.chat.Chat(ctx, s.opts.SystemPrompt, buildPrompt(question, docs))
	if err != nil {
		return nil, fmt.Errorf("rag: chat: %w", err)
	}

	sources := fn.UniqueBy(fn.Map(docs, func(d domain.Document) Source {
		return Source{URL: d.URL, Title: d.Title}
	}), func(src Source) string { return src.URL })

	return &Answer{Text: reply, Sources: sources, Model: model}, nil
}

// buildPrompt interleaves the retrieved chunks with the question.
func buildPrompt(question string, docs []domain.Document) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, d.Title, d.URL, d.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

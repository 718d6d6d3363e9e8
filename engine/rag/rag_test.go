package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
)

type fixedRetriever struct {
	docs []domain.Document
}

func (r fixedRetriever) Hybrid(context.Context, string, int) []domain.Document {
	return r.docs
}

type recordingChat struct {
	calls  int
	system string
	user   string
	reply  string
	err    error
}

func (c *recordingChat) Chat(_ context.Context, system, user string) (string, string, error) {
	c.calls++
	c.system = system
	c.user = user
	return c.reply, "test-model", c.err
}

func TestQueryAnswersWithSources(t *testing.T) {
	docs := []domain.Document{
		{URL: "https://example.com/a", Title: "A", Content: "alpha details", ChunkIndex: 0},
		{URL: "https://example.com/a", Title: "A", Content: "more alpha", ChunkIndex: 1},
		{URL: "https://example.com/b", Title: "B", Content: "beta details"},
	}
	chat := &recordingChat{reply: "Alpha does X."}
	svc := New(fixedRetriever{docs: docs}, chat, DefaultOptions(), nil)

	ans, err := svc.Query(context.Background(), "what does alpha do?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if ans.Text != "Alpha does X." || ans.Model != "test-model" {
		t.Errorf("answer = %+v", ans)
	}
	// Two chunks from the same URL collapse to one source.
	if len(ans.Sources) != 2 {
		t.Fatalf("sources = %+v", ans.Sources)
	}
	if ans.Sources[0].URL != "https://example.com/a" || ans.Sources[1].URL != "https://example.com/b" {
		t.Errorf("source order = %+v", ans.Sources)
	}
	if !strings.Contains(chat.user, "alpha details") || !strings.Contains(chat.user, "what does alpha do?") {
		t.Errorf("prompt missing context or question:\n%s", chat.user)
	}
}

func TestQueryNoContextSkipsModel(t *testing.T) {
	chat := &recordingChat{reply: "should not be used"}
	svc := New(fixedRetriever{}, chat, DefaultOptions(), nil)

	ans, err := svc.Query(context.Background(), "anything at all?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if ans.Text != InsufficientInfo {
		t.Errorf("text = %q", ans.Text)
	}
	if chat.calls != 0 {
		t.Errorf("chat called %d times with no context", chat.calls)
	}
	if len(ans.Sources) != 0 {
		t.Errorf("sources = %+v", ans.Sources)
	}
}

func TestQueryEmptyQuestion(t *testing.T) {
	svc := New(fixedRetriever{}, &recordingChat{}, DefaultOptions(), nil)
	if _, err := svc.Query(context.Background(), "   "); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestQueryChatFailure(t *testing.T) {
	docs := []domain.Document{{URL: "https://example.com", Title: "T", Content: "c"}}
	chat := &recordingChat{err: errors.New("model down")}
	svc := New(fixedRetriever{docs: docs}, chat, DefaultOptions(), nil)

	if _, err := svc.Query(context.Background(), "q?"); err == nil {
		t.Fatal("expected chat error to propagate")
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCounterAccumulatesAndDedups(t *testing.T) {
	r := New()
	c := r.Counter("pages_total", "Pages crawled")
	c.Inc()
	c.Add(4)
	if c.Value() != 5 {
		t.Fatalf("expected 5, got %d", c.Value())
	}
	if r.Counter("pages_total", "") != c {
		t.Fatal("same name should return the same counter")
	}
}

func TestGauge(t *testing.T) {
	r := New()
	g := r.Gauge("documents", "")
	g.Set(10)
	g.Inc()
	g.Dec()
	g.Dec()
	if g.Value() != 9 {
		t.Fatalf("expected 9, got %d", g.Value())
	}
}

func TestHistogramBuckets(t *testing.T) {
	r := New()
	h := r.Histogram("embed_seconds", "", []float64{0.1, 0.5, 1.0})
	for _, v := range []float64{0.05, 0.3, 0.9, 7.0} {
		h.Observe(v)
	}
	bounds, counts, sum, total := h.snapshot()
	if total != 4 {
		t.Fatalf("total = %d", total)
	}
	if len(bounds) != 3 {
		t.Fatalf("bounds = %v", bounds)
	}
	// One observation per bucket; 7.0 lands only in +Inf.
	for i, want := range []uint64{1, 1, 1} {
		if counts[i] != want {
			t.Errorf("bucket %g: got %d, want %d", bounds[i], counts[i], want)
		}
	}
	if sum != 0.05+0.3+0.9+7.0 {
		t.Errorf("sum = %g", sum)
	}
}

func TestHistogramSince(t *testing.T) {
	r := New()
	h := r.Histogram("latency_seconds", "", nil)
	h.Since(time.Now().Add(-50 * time.Millisecond))
	if _, _, _, total := h.snapshot(); total != 1 {
		t.Fatal("expected one observation")
	}
}

func TestWithLabels(t *testing.T) {
	got := WithLabels("jobs_total", "state", "done", "source", "web")
	want := `jobs_total{state="done",source="web"}`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if WithLabels("plain") != "plain" {
		t.Error("no labels should leave the name unchanged")
	}
	if WithLabels("odd", "only-key") != "odd" {
		t.Error("odd kv count should leave the name unchanged")
	}
}

func TestRenderExpositionFormat(t *testing.T) {
	r := New()
	r.Counter("queries_total", "Queries served").Add(12)
	r.Counter(WithLabels("queries_total", "mode", "hybrid"), "").Add(9)
	r.Gauge("store_documents", "Documents held").Set(3)
	h := r.Histogram("crawl_seconds", "Crawl latency", []float64{1, 5})
	h.Observe(0.5)
	h.Observe(3)

	out := r.Render()
	for _, want := range []string{
		"# TYPE queries_total counter",
		"queries_total 12",
		`queries_total{mode="hybrid"} 9`,
		"# TYPE store_documents gauge",
		"store_documents 3",
		"# TYPE crawl_seconds histogram",
		`crawl_seconds_bucket{le="1"} 1`,
		`crawl_seconds_bucket{le="5"} 2`,
		`crawl_seconds_bucket{le="+Inf"} 2`,
		"crawl_seconds_count 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q in:\n%s", want, out)
		}
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("hits_total", "").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "hits_total 1") {
		t.Error("metric missing from scrape output")
	}
}

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"plain":                 "plain",
		`plain{k="v"}`:          "plain",
		`multi{a="1",b="two"}`:  "multi",
	}
	for in, want := range cases {
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
}

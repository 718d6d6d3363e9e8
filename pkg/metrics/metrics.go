// Package metrics is a small dependency-free metrics registry exposing
// counters, gauges, and histograms in the Prometheus text exposition
// format. Label pairs are baked into the metric name, so every label
// combination is its own series.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuckets are histogram buckets in seconds, tuned for request
// and crawl-step latencies.
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Counter only goes up.
type Counter struct{ v atomic.Int64 }

func (c *Counter) Inc()         { c.v.Add(1) }
func (c *Counter) Add(n int64)  { c.v.Add(n) }
func (c *Counter) Value() int64 { return c.v.Load() }

// Gauge goes up and down.
type Gauge struct{ v atomic.Int64 }

func (g *Gauge) Set(n int64)  { g.v.Store(n) }
func (g *Gauge) Inc()         { g.v.Add(1) }
func (g *Gauge) Dec()         { g.v.Add(-1) }
func (g *Gauge) Value() int64 { return g.v.Load() }

// Histogram records a distribution over fixed buckets.
type Histogram struct {
	mu      sync.Mutex
	bounds  []float64
	counts  []uint64
	sum     float64
	total   uint64
}

// Observe records one value. Values above the largest bound only count
// toward the implicit +Inf bucket.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	h.sum += v
	h.total++
	for i, b := range h.bounds {
		if v <= b {
			h.counts[i]++
			break
		}
	}
	h.mu.Unlock()
}

// Since observes the seconds elapsed since t.
func (h *Histogram) Since(t time.Time) { h.Observe(time.Since(t).Seconds()) }

func (h *Histogram) snapshot() (bounds []float64, counts []uint64, sum float64, total uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	counts = make([]uint64, len(h.counts))
	copy(counts, h.counts)
	return h.bounds, counts, h.sum, h.total
}

// Registry holds named metrics and renders them for scraping.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	help       map[string]string
	kinds      map[string]string
	order      []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
		help:       make(map[string]string),
		kinds:      make(map[string]string),
	}
}

// Counter returns the counter registered under name, creating it on
// first use. Names may carry labels, e.g. from WithLabels.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{}
	r.counters[name] = c
	r.register(baseName(name), "counter", help)
	return c
}

// Gauge returns the gauge registered under name, creating it on first use.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{}
	r.gauges[name] = g
	r.register(baseName(name), "gauge", help)
	return g
}

// Histogram returns the histogram registered under name, creating it
// with the given buckets (DefaultBuckets when nil) on first use.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	bounds := make([]float64, len(buckets))
	copy(bounds, buckets)
	sort.Float64s(bounds)
	h := &Histogram{bounds: bounds, counts: make([]uint64, len(bounds))}
	r.histograms[name] = h
	r.register(baseName(name), "histogram", help)
	return h
}

func (r *Registry) register(base, kind, help string) {
	if _, ok := r.kinds[base]; !ok {
		r.order = append(r.order, base)
	}
	r.kinds[base] = kind
	if help != "" {
		r.help[base] = help
	}
}

// WithLabels appends label pairs to a metric name:
// WithLabels("jobs", "state", "done") => `jobs{state="done"}`.
// An odd number of kvs returns the name unchanged.
func WithLabels(name string, kvs ...string) string {
	if len(kvs) == 0 || len(kvs)%2 != 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i := 0; i < len(kvs); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", kvs[i], kvs[i+1])
	}
	b.WriteByte('}')
	return b.String()
}

func baseName(name string) string {
	if i := strings.IndexByte(name, '{'); i >= 0 {
		return name[:i]
	}
	return name
}

// labelSuffix returns the `,k="v"` form of a name's labels, for
// injection next to a histogram's le label.
func labelSuffix(name string) string {
	i := strings.IndexByte(name, '{')
	if i < 0 {
		return ""
	}
	inner := name[i+1 : len(name)-1]
	if inner == "" {
		return ""
	}
	return "," + inner
}

func wrapSuffix(suffix string) string {
	if suffix == "" {
		return ""
	}
	return "{" + suffix[1:] + "}"
}

// Render produces the text exposition format, metrics in registration
// order and series under each metric in sorted order.
func (r *Registry) Render() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, base := range r.order {
		if help, ok := r.help[base]; ok {
			fmt.Fprintf(&b, "# HELP %s %s\n", base, help)
		}
		kind := r.kinds[base]
		fmt.Fprintf(&b, "# TYPE %s %s\n", base, kind)

		switch kind {
		case "counter":
			for _, n := range seriesOf(r.counters, base) {
				fmt.Fprintf(&b, "%s %d\n", n, r.counters[n].Value())
			}
		case "gauge":
			for _, n := range seriesOf(r.gauges, base) {
				fmt.Fprintf(&b, "%s %d\n", n, r.gauges[n].Value())
			}
		case "histogram":
			for _, n := range seriesOf(r.histograms, base) {
				bounds, counts, sum, total := r.histograms[n].snapshot()
				labels := labelSuffix(n)
				var cum uint64
				for i, bound := range bounds {
					cum += counts[i]
					fmt.Fprintf(&b, "%s_bucket{le=\"%g\"%s} %d\n", base, bound, labels, cum)
				}
				fmt.Fprintf(&b, "%s_bucket{le=\"+Inf\"%s} %d\n", base, labels, total)
				fmt.Fprintf(&b, "%s_sum%s %g\n", base, wrapSuffix(labels), sum)
				fmt.Fprintf(&b, "%s_count%s %d\n", base, wrapSuffix(labels), total)
			}
		}
	}
	return b.String()
}

// seriesOf lists the registered names sharing a base, sorted.
func seriesOf[M any](m map[string]M, base string) []string {
	var out []string
	for n := range m {
		if baseName(n) == base {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Handler serves Render output for Prometheus scrapes.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(r.Render()))
	})
}

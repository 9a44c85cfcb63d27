// Package metrics is a small Prometheus-compatible registry. Series are
// created on first use, label pairs are part of the series name, and the
// registry renders the text exposition format on /metrics.
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

// DefaultBuckets are latency buckets in seconds sized for a request that
// makes two remote calls.
var DefaultBuckets = []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Counter is a monotonically increasing counter.
type Counter struct{ val atomic.Int64 }

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

// Gauge can go up and down.
type Gauge struct{ val atomic.Int64 }

func (g *Gauge) Set(n int64)  { g.val.Store(n) }
func (g *Gauge) Inc()         { g.val.Add(1) }
func (g *Gauge) Dec()         { g.val.Add(-1) }
func (g *Gauge) Value() int64 { return g.val.Load() }

// Histogram counts observations into fixed upper-bound buckets.
type Histogram struct {
	mu     sync.Mutex
	bounds []float64
	counts []uint64 // non-cumulative, one per bound
	sum    float64
	count  uint64
}

func newHistogram(bounds []float64) *Histogram {
	b := append([]float64(nil), bounds...)
	sort.Float64s(b)
	return &Histogram{bounds: b, counts: make([]uint64, len(b))}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	i := sort.SearchFloat64s(h.bounds, v)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	if i < len(h.counts) {
		h.counts[i]++
	}
}

// Since observes the seconds elapsed since t.
func (h *Histogram) Since(t time.Time) {
	h.Observe(time.Since(t).Seconds())
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *Histogram) snapshot() (counts []uint64, sum float64, count uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint64(nil), h.counts...), h.sum, h.count
}

type family struct {
	kind   string // counter, gauge, histogram
	help   string
	series map[string]any // full series name -> *Counter | *Gauge | *Histogram
}

// Registry holds metric families keyed by base name.
type Registry struct {
	mu       sync.Mutex
	families map[string]*family
	order    []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{families: make(map[string]*family)}
}

func (r *Registry) series(name, kind, help string, create func() any) any {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := baseName(name)
	f, ok := r.families[base]
	if !ok {
		f = &family{kind: kind, help: help, series: make(map[string]any)}
		r.families[base] = f
		r.order = append(r.order, base)
	}
	if f.kind != kind {
		panic(fmt.Sprintf("metrics: %s registered as %s, requested as %s", base, f.kind, kind))
	}
	if s, ok := f.series[name]; ok {
		return s
	}
	s := create()
	f.series[name] = s
	return s
}

// Counter returns (or creates) the counter series name, e.g. `hits{route="/"}`.
func (r *Registry) Counter(name, help string) *Counter {
	return r.series(name, "counter", help, func() any { return &Counter{} }).(*Counter)
}

// Gauge returns (or creates) a gauge series.
func (r *Registry) Gauge(name, help string) *Gauge {
	return r.series(name, "gauge", help, func() any { return &Gauge{} }).(*Gauge)
}

// Histogram returns (or creates) a histogram series. nil buckets selects DefaultBuckets.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	return r.series(name, "histogram", help, func() any { return newHistogram(buckets) }).(*Histogram)
}

// WithLabels appends label pairs to name:
// WithLabels("foo", "k", "v") => `foo{k="v"}`. An odd pair count returns name.
func WithLabels(name string, kvs ...string) string {
	if len(kvs) == 0 || len(kvs)%2 != 0 {
		return name
	}
	pairs := make([]string, 0, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		pairs = append(pairs, fmt.Sprintf("%s=%q", kvs[i], kvs[i+1]))
	}
	return name + "{" + strings.Join(pairs, ",") + "}"
}

func baseName(name string) string {
	if i := strings.IndexByte(name, '{'); i != -1 {
		return name[:i]
	}
	return name
}

// labelsOf returns the inner label list of `foo{a="b"}` as `a="b"`.
func labelsOf(name string) string {
	i := strings.IndexByte(name, '{')
	if i == -1 {
		return ""
	}
	return strings.TrimSuffix(name[i+1:], "}")
}

// Render returns the registry in Prometheus text exposition format.
// Families appear in registration order, series sorted by name.
func (r *Registry) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, base := range r.order {
		f := r.families[base]
		if f.help != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", base, f.help)
		}
		fmt.Fprintf(&b, "# TYPE %s %s\n", base, f.kind)

		names := make([]string, 0, len(f.series))
		for n := range f.series {
			names = append(names, n)
		}
		sort.Strings(names)

		for _, n := range names {
			switch m := f.series[n].(type) {
			case *Counter:
				fmt.Fprintf(&b, "%s %d\n", n, m.Value())
			case *Gauge:
				fmt.Fprintf(&b, "%s %d\n", n, m.Value())
			case *Histogram:
				renderHistogram(&b, base, labelsOf(n), m)
			}
		}
	}
	return b.String()
}

func renderHistogram(b *strings.Builder, base, labels string, h *Histogram) {
	counts, sum, count := h.snapshot()
	sep := ""
	if labels != "" {
		sep = ","
	}
	var cumulative uint64
	for i, bound := range h.bounds {
		cumulative += counts[i]
		fmt.Fprintf(b, "%s_bucket{%s%sle=\"%g\"} %d\n", base, labels, sep, bound, cumulative)
	}
	fmt.Fprintf(b, "%s_bucket{%s%sle=\"+Inf\"} %d\n", base, labels, sep, count)
	suffix := ""
	if labels != "" {
		suffix = "{" + labels + "}"
	}
	fmt.Fprintf(b, "%s_sum%s %g\n", base, suffix, sum)
	fmt.Fprintf(b, "%s_count%s %d\n", base, suffix, count)
}

// Handler serves the rendered registry.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.Write([]byte(r.Render()))
	})
}

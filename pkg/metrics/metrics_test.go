package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	r := New()
	c := r.Counter("hits_total", "Hits.")
	c.Inc()
	c.Add(4)
	if c.Value() != 5 {
		t.Fatalf("expected 5, got %d", c.Value())
	}
	if r.Counter("hits_total", "") != c {
		t.Fatal("same name should return same counter")
	}
}

func TestGauge(t *testing.T) {
	g := New().Gauge("in_flight", "")
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 1 {
		t.Fatalf("expected 1, got %d", g.Value())
	}
	g.Set(9)
	if g.Value() != 9 {
		t.Fatalf("expected 9, got %d", g.Value())
	}
}

func TestHistogramBuckets(t *testing.T) {
	r := New()
	h := r.Histogram("lat_seconds", "Latency.", []float64{1, 0.1})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5)

	out := r.Render()
	for _, want := range []string{
		`lat_seconds_bucket{le="0.1"} 1`,
		`lat_seconds_bucket{le="1"} 2`,
		`lat_seconds_bucket{le="+Inf"} 3`,
		`lat_seconds_sum 5.55`,
		`lat_seconds_count 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestHistogramSince(t *testing.T) {
	h := New().Histogram("d", "", nil)
	h.Since(time.Now().Add(-10 * time.Millisecond))
	if h.Count() != 1 {
		t.Fatalf("expected 1 observation, got %d", h.Count())
	}
}

func TestWithLabels(t *testing.T) {
	if got := WithLabels("foo", "a", "1", "b", "2"); got != `foo{a="1",b="2"}` {
		t.Fatalf("unexpected %s", got)
	}
	if got := WithLabels("foo", "odd"); got != "foo" {
		t.Fatalf("odd pairs should return name, got %s", got)
	}
}

func TestRenderLabelledSeries(t *testing.T) {
	r := New()
	r.Counter(WithLabels("req_total", "status", "500"), "Requests.").Inc()
	r.Counter(WithLabels("req_total", "status", "200"), "Requests.").Add(2)
	r.Histogram(WithLabels("req_seconds", "route", "/x"), "", []float64{1}).Observe(0.5)

	out := r.Render()
	if strings.Count(out, "# TYPE req_total counter") != 1 {
		t.Fatalf("family header should appear once:\n%s", out)
	}
	if strings.Index(out, `req_total{status="200"} 2`) > strings.Index(out, `req_total{status="500"} 1`) {
		t.Fatalf("series should be sorted:\n%s", out)
	}
	if !strings.Contains(out, `req_seconds_bucket{route="/x",le="1"} 1`) {
		t.Fatalf("labelled bucket missing:\n%s", out)
	}
	if !strings.Contains(out, `req_seconds_count{route="/x"} 1`) {
		t.Fatalf("labelled count missing:\n%s", out)
	}
}

func TestKindConflictPanics(t *testing.T) {
	r := New()
	r.Counter("x", "")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	r.Gauge("x", "")
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("up", "").Inc()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "up 1") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

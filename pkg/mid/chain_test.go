package mid

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lumenplaces/search/pkg/metrics"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestChainOrder(t *testing.T) {
	var order []int
	mw := func(n int) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, n)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, 0)
	}), mw(1), mw(2), mw(3))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if len(order) != 4 || order[0] != 1 || order[1] != 2 || order[2] != 3 || order[3] != 0 {
		t.Fatalf("expected [1,2,3,0], got %v", order)
	}
}

func TestChainNoMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	Chain(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestStatusWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec}
	if _, err := sw.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if sw.status != http.StatusOK {
		t.Fatalf("implicit write should record 200, got %d", sw.status)
	}

	sw = &statusWriter{ResponseWriter: httptest.NewRecorder()}
	sw.WriteHeader(http.StatusCreated)
	sw.WriteHeader(http.StatusNotFound)
	if sw.status != http.StatusCreated {
		t.Fatalf("first status should win, got %d", sw.status)
	}
}

func TestLoggerCapturesStatus(t *testing.T) {
	h := Logger(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestRecoverCatchesPanic(t *testing.T) {
	h := Recover(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"internal server error"}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestRecoverNoPanic(t *testing.T) {
	rec := httptest.NewRecorder()
	Recover(discard)(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCORSOptionsReturns204(t *testing.T) {
	h := CORS("*")(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/search", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Fatal("POST must be allowed")
	}
}

func TestCORSNonOptionsPassesThrough(t *testing.T) {
	h := CORS("https://example.com")(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://example.com" {
		t.Fatal("missing CORS origin header")
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0, 0)(http.HandlerFunc(ok))
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestRateLimitRejectsOverBurst(t *testing.T) {
	h := RateLimit(0.001, 2)(http.HandlerFunc(ok))

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/search", nil))
		codes[i] = rec.Code
		if i == 2 && !strings.Contains(rec.Body.String(), "rate limited") {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 200 429], got %v", codes)
	}
}

func TestOTelPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	OTel("test")(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsRecordsRoute(t *testing.T) {
	reg := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/test", ok)
	h := Metrics(reg)(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/test", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))

	out := reg.Render()
	if !strings.Contains(out, `http_requests_total{route="GET /api/test",status="200"} 1`) {
		t.Fatalf("missing routed series:\n%s", out)
	}
	if !strings.Contains(out, `http_requests_total{route="unmatched",status="404"} 1`) {
		t.Fatalf("missing unmatched series:\n%s", out)
	}
	if !strings.Contains(out, "http_requests_in_flight 0") {
		t.Fatalf("in-flight gauge should return to 0:\n%s", out)
	}
}

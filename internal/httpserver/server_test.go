package httpserver

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/yummigo-web/internal/health"
	"github.com/keithlinneman/yummigo-web/internal/httpmw"
	"github.com/keithlinneman/yummigo-web/internal/log"
)

type stubContentInfo struct{ version, hash string }

func (s stubContentInfo) ContentVersion() string { return s.version }
func (s stubContentInfo) ContentHash() string    { return s.hash }

func doRequest(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, http.NoBody))
	return rec
}

func TestNewHandler_SecurityHeadersOn404(t *testing.T) {
	rec := doRequest(t, NewHandler(Options{}), http.MethodGet, "/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	for _, h := range []string{"Content-Security-Policy", "Strict-Transport-Security", "X-Content-Type-Options"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("%s missing", h)
		}
	}
}

func TestNewHandler_ImageOriginInCSP(t *testing.T) {
	h := NewHandler(Options{Security: httpmw.SecurityOptions{ImageOrigins: []string{"https://cdn.example.com"}}})
	csp := doRequest(t, h, http.MethodGet, "/").Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "https://cdn.example.com") {
		t.Fatalf("CSP = %q", csp)
	}
}

func TestNewHandler_RequestID(t *testing.T) {
	h := NewHandler(Options{})
	a := doRequest(t, h, http.MethodGet, "/").Header().Get("X-Request-Id")
	b := doRequest(t, h, http.MethodGet, "/").Header().Get("X-Request-Id")
	if a == "" || a == b {
		t.Fatalf("request ids %q %q, want unique non-empty", a, b)
	}

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Request-Id", "upstream-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "upstream-123" {
		t.Fatalf("propagated id = %q", got)
	}
}

func TestNewHandler_APIRoutesBeforeSite(t *testing.T) {
	site := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("site"))
	})
	h := NewHandler(Options{
		APIRoutes: func(r chi.Router) {
			r.Get("/api/content", func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("api"))
			})
		},
		SiteHandler: site,
	})

	if body := doRequest(t, h, http.MethodGet, "/api/content").Body.String(); body != "api" {
		t.Fatalf("api body = %q", body)
	}
	if body := doRequest(t, h, http.MethodGet, "/menu").Body.String(); body != "site" {
		t.Fatalf("fallback body = %q", body)
	}
	// unmatched method on a known path also lands on the site handler
	if body := doRequest(t, h, http.MethodPut, "/api/content").Body.String(); body != "site" {
		t.Fatalf("method-not-allowed body = %q", body)
	}
}

func TestNewHandler_Probes(t *testing.T) {
	h := NewHandler(Options{
		Health:    health.Fixed(true, ""),
		Readiness: health.Fixed(false, "content: no document loaded"),
		SiteHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("probe routed to site handler")
		}),
	})
	if rec := doRequest(t, h, http.MethodGet, "/-/healthy"); rec.Code != http.StatusOK {
		t.Fatalf("healthy = %d", rec.Code)
	}
	rec := doRequest(t, h, http.MethodGet, "/-/ready")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "no document loaded") {
		t.Fatalf("ready = %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewHandler_ContentHeaders(t *testing.T) {
	h := NewHandler(Options{ContentInfo: stubContentInfo{version: "v3", hash: "0123456789abcdef"}})
	rec := doRequest(t, h, http.MethodGet, "/")
	if rec.Header().Get("X-Content-Version") != "v3" {
		t.Fatalf("X-Content-Version = %q", rec.Header().Get("X-Content-Version"))
	}
	if rec.Header().Get("X-Content-Hash") != "0123456789ab" {
		t.Fatalf("X-Content-Hash = %q", rec.Header().Get("X-Content-Hash"))
	}
}

func TestNewHandler_RateLimitSeesClientIP(t *testing.T) {
	var seen string
	rl := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = httpmw.ClientIPFromContext(r.Context())
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	h := NewHandler(Options{RateLimitMW: rl})
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = "203.0.113.7:4444"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests || seen != "203.0.113.7" {
		t.Fatalf("status=%d ip=%q", rec.Code, seen)
	}
}

func TestNewHandler_MetricsSeesRoutePattern(t *testing.T) {
	var route string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			route = httpmw.RoutePattern(r)
		})
	}
	h := NewHandler(Options{
		MetricsMW: mw,
		APIRoutes: func(r chi.Router) {
			r.Get("/api/upload", func(w http.ResponseWriter, r *http.Request) {})
		},
	})
	doRequest(t, h, http.MethodGet, "/api/upload?bucket=Hero")
	if route != "/api/upload" {
		t.Fatalf("route = %q, want /api/upload", route)
	}
}

func TestNewHandler_Recover(t *testing.T) {
	panics := 0
	opts := Options{
		UseRecoverMW: true,
		OnPanic:      func() { panics++ },
		APIRoutes: func(r chi.Router) {
			r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
		},
	}
	rec := doRequest(t, NewHandler(opts), http.MethodGet, "/boom")
	if rec.Code != http.StatusInternalServerError || panics != 1 {
		t.Fatalf("status=%d panics=%d", rec.Code, panics)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Fatal("security headers missing on recovered panic")
	}
}

func TestNewHandler_MaxBody(t *testing.T) {
	var readErr error
	h := NewHandler(Options{
		MaxBodyBytes: 8,
		APIRoutes: func(r chi.Router) {
			r.Post("/api/content", func(w http.ResponseWriter, r *http.Request) {
				_, readErr = io.ReadAll(r.Body)
			})
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/content", strings.NewReader(`{"hero":{"title":"x"}}`))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var mbe *http.MaxBytesError
	if !errors.As(readErr, &mbe) {
		t.Fatalf("read err = %v, want MaxBytesError", readErr)
	}
}

func TestNewHandler_CompressesJSON(t *testing.T) {
	payload := strings.Repeat(`{"ar":"مرحبا","en":"hello"},`, 200)
	h := NewHandler(Options{
		APIRoutes: func(r chi.Router) {
			r.Get("/api/content", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("[" + payload + "{}]"))
			})
		},
	})
	req := httptest.NewRequest(http.MethodGet, "/api/content", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	body, _ := io.ReadAll(zr)
	if !strings.Contains(string(body), "مرحبا") {
		t.Fatal("decompressed body lost Arabic text")
	}
}

func TestShouldTrace(t *testing.T) {
	for p, want := range map[string]bool{
		"/":            true,
		"/api/content": true,
		"/-/ready":     false,
		"/Hero/1.JPG":  false,
		"/favicon.ico": false,
		"/_next/a.js":  false,
	} {
		if got := shouldTrace(p); got != want {
			t.Errorf("shouldTrace(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestStart(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	ctx := context.Background()
	stop, err := Start(ctx, Options{Logger: log.Nop(), Port: port, Health: health.Fixed(true, "")})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop(ctx)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/-/healthy", port))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if err := stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/travelwallet/travelwallet/internal/cache"
)

// fakeLimiter allows the first `allow` calls per key and rejects the rest.
type fakeLimiter struct {
	mu    sync.Mutex
	allow int
	err   error
	calls map[string]int
}

func newFakeLimiter(allow int) *fakeLimiter {
	return &fakeLimiter{allow: allow, calls: make(map[string]int)}
}

func (f *fakeLimiter) check(key string) (*cache.RateLimitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls[key]++
	if f.calls[key] > f.allow {
		return &cache.RateLimitResult{Allowed: false, RetryAfter: 2 * time.Second}, nil
	}
	return &cache.RateLimitResult{
		Allowed:   true,
		Remaining: int64(f.allow - f.calls[key]),
		ResetAt:   time.Now().Add(time.Minute),
	}, nil
}

func (f *fakeLimiter) CheckIPRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	return f.check("ip:" + ip)
}

func (f *fakeLimiter) CheckTourWriteRateLimit(_ context.Context, tourID string, _, _ int) (*cache.RateLimitResult, error) {
	return f.check("tour:" + tourID)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitIP(t *testing.T) {
	t.Parallel()

	limiter := newFakeLimiter(2)
	handler := RateLimitIP(RateLimitConfig{
		Logger:    discardLogger(),
		Limiter:   limiter,
		IPEnabled: true,
		IPRPS:     1,
		IPBurst:   2,
	})(okHandler())

	wantCodes := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, want := range wantCodes {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tour/abc", nil)
		req.RemoteAddr = "203.0.113.7:5123"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, want)
		}
		if want == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "2" {
			t.Errorf("Retry-After = %q, want 2", rec.Header().Get("Retry-After"))
		}
	}

	if limiter.calls["ip:203.0.113.7"] != 3 {
		t.Errorf("limiter keyed by %v, want ip:203.0.113.7", limiter.calls)
	}
}

func TestRateLimitIP_FailsOpenAndDisabled(t *testing.T) {
	t.Parallel()

	failing := newFakeLimiter(0)
	failing.err = errors.New("redis down")

	tests := []struct {
		name string
		cfg  RateLimitConfig
	}{
		{"limiter error", RateLimitConfig{Logger: discardLogger(), Limiter: failing, IPEnabled: true}},
		{"disabled", RateLimitConfig{Logger: discardLogger(), Limiter: newFakeLimiter(0), IPEnabled: false}},
		{"no limiter", RateLimitConfig{Logger: discardLogger(), IPEnabled: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			RateLimitIP(tt.cfg)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}

func TestRateLimitTourWrites(t *testing.T) {
	t.Parallel()

	limiter := newFakeLimiter(1)
	r := chi.NewRouter()
	r.Route("/api/v1/tour/{id}", func(r chi.Router) {
		r.Use(RateLimitTourWrites(RateLimitConfig{
			Logger:             discardLogger(),
			Limiter:            limiter,
			TourWriteEnabled:   true,
			TourWritePerMinute: 30,
			TourWriteBurst:     1,
		}))
		r.Get("/", okHandler().ServeHTTP)
		r.Post("/expense", okHandler().ServeHTTP)
	})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/v1/tour/t1/expense", http.StatusOK},
		{http.MethodPost, "/api/v1/tour/t1/expense", http.StatusTooManyRequests},
		{http.MethodPost, "/api/v1/tour/t2/expense", http.StatusOK},
		{http.MethodGet, "/api/v1/tour/t1", http.StatusOK},
	}

	for i, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Fatalf("request %d %s %s: status = %d, want %d", i, tt.method, tt.path, rec.Code, tt.want)
		}
	}

	if _, ok := limiter.calls["tour:"]; ok {
		t.Error("limiter was called without a tour id")
	}
	if limiter.calls["tour:t1"] != 2 {
		t.Errorf("tour:t1 calls = %d, want 2 (reads are not limited)", limiter.calls["tour:t1"])
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr with port", "198.51.100.1:1234", nil, "198.51.100.1"},
		{"remote addr without port", "198.51.100.1", nil, "198.51.100.1"},
		{"forwarded for first hop", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, "203.0.113.9"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": " 203.0.113.10 "}, "203.0.113.10"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

func testOptions() Options {
	return Options{
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
}

func TestServe_ShutdownRunsHooksInReverseOrder(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := New(handler, testOptions(), logger)

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"store", "cache", "activity"} {
		name := name
		srv.OnShutdown(name, func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		cancel()
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if got := strings.Join(order, ","); got != "activity,cache,store" {
		t.Errorf("shutdown order = %s, want activity,cache,store", got)
	}
}

func TestServe_ShutdownJoinsHookErrors(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(http.NotFoundHandler(), testOptions(), logger)

	errStore := errors.New("pool busy")
	errCache := errors.New("redis gone")
	srv.OnShutdown("store", func(context.Context) error { return errStore })
	srv.OnShutdown("cache", func(context.Context) error { return errCache })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = srv.Serve(ctx, ln)
	if !errors.Is(err, errStore) || !errors.Is(err, errCache) {
		t.Fatalf("Serve error = %v, want both hook errors", err)
	}
	if !strings.Contains(err.Error(), "store: pool busy") {
		t.Errorf("error %q does not name the component", err)
	}
}

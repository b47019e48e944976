package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestHashIP(t *testing.T) {
	t.Parallel()

	ips := []string{"192.168.1.1", "192.168.1.2", "127.0.0.1", "::1", "2001:db8::8a2e:370:7334", ""}
	seen := make(map[string]string, len(ips))

	for _, ip := range ips {
		h := hashIP(ip)
		if len(h) != 16 {
			t.Errorf("hashIP(%q) length = %d, want 16", ip, len(h))
		}
		if strings.Contains(h, ip) && ip != "" {
			t.Errorf("hashIP(%q) leaks the address: %s", ip, h)
		}
		if h != hashIP(ip) {
			t.Errorf("hashIP(%q) is not deterministic", ip)
		}
		if prev, dup := seen[h]; dup {
			t.Errorf("hashIP collision between %q and %q", prev, ip)
		}
		seen[h] = ip
	}
}

func TestBucketResult(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := bucket{prefix: "ratelimit:tour:", rate: 2, burst: 10}

	tests := []struct {
		name      string
		raw       []int64
		allowed   bool
		remaining int64
		retry     time.Duration
		resetIn   time.Duration
	}{
		{"allowed with tokens left", []int64{1, 0, 7}, true, 7, 0, 1500 * time.Millisecond},
		{"allowed at full bucket", []int64{1, 0, 10}, true, 10, 0, 0},
		{"rejected", []int64{0, 350, 0}, false, 0, 350 * time.Millisecond, 5 * time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := b.result(tt.raw, now)
			if err != nil {
				t.Fatalf("result() error = %v", err)
			}
			if got.Allowed != tt.allowed || got.Remaining != tt.remaining || got.RetryAfter != tt.retry {
				t.Errorf("result() = %+v", got)
			}
			if d := got.ResetAt.Sub(now); d != tt.resetIn {
				t.Errorf("reset in %v, want %v", d, tt.resetIn)
			}
		})
	}

	if _, err := b.result([]int64{1}, now); err == nil {
		t.Error("short script reply should be an error")
	}
}

func TestTake_DisabledSkipsRedis(t *testing.T) {
	t.Parallel()

	// A nil client would panic if the script ran.
	c := NewWithClient(nil, 0)

	res, err := c.CheckTourWriteRateLimit(context.Background(), "01HZX3J3N4W1T7G6R3B5A2C9QK", 0, 5)
	if err != nil || !res.Allowed || res.Remaining != 5 {
		t.Errorf("disabled tour limit = %+v, %v", res, err)
	}

	res, err = c.CheckIPRateLimit(context.Background(), "10.0.0.1", 0, 0)
	if err != nil || !res.Allowed {
		t.Errorf("disabled ip limit = %+v, %v", res, err)
	}
}

func TestTourKey(t *testing.T) {
	t.Parallel()

	if got := TourKey("01HZX3J3N4W1T7G6R3B5A2C9QK"); got != "tour:01HZX3J3N4W1T7G6R3B5A2C9QK" {
		t.Errorf("TourKey() = %q", got)
	}
}

func TestNewWithClient_DefaultTTL(t *testing.T) {
	t.Parallel()

	c := NewWithClient(nil, 0)
	if c.tourTTL != DefaultTourTTL {
		t.Errorf("tourTTL = %v, want %v", c.tourTTL, DefaultTourTTL)
	}

	c = NewWithClient(nil, time.Minute)
	if c.tourTTL != time.Minute {
		t.Errorf("tourTTL = %v, want 1m", c.tourTTL)
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	pkgredis "github.com/angelmondragon/fulfillment-router/pkg/redis"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) Hit(_ context.Context, key string, _ time.Duration) (pkgredis.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return pkgredis.Window{Count: f.counts[key], ResetIn: 42500 * time.Millisecond}, nil
}

func (f *fakeRateStore) RateLimitKey(scope string) string {
	return "rl:" + scope
}

func claimRequest(vendorID, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/orders/abc/claim", nil)
	req.RemoteAddr = remote
	return req.WithContext(WithVendorID(req.Context(), vendorID))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitVendorLimitTriggers(t *testing.T) {
	store := newFakeRateStore()
	handler := RateLimit(NewRateLimitPolicy("claim", time.Minute, 0, 2), store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, claimRequest("vendor-1", "1.2.3.4:5678"))

		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("expected success before limit, got %d", rec.Code)
		case i >= 2:
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
				t.Fatalf("unexpected code: %s", payload.Error.Code)
			}
			if got := rec.Header().Get("Retry-After"); got != "43" {
				t.Fatalf("expected Retry-After 43, got %q", got)
			}
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, claimRequest("vendor-2", "1.2.3.4:5678"))
	if rec.Code != http.StatusOK {
		t.Fatalf("other vendors keep their own budget, got %d", rec.Code)
	}
}

func TestRateLimitIPLimitTriggers(t *testing.T) {
	store := newFakeRateStore()
	handler := RateLimit(NewRateLimitPolicy("claim", time.Minute, 1, 0), store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, claimRequest("vendor-"+string(rune('a'+i)), "5.6.7.8:1234"))
		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("expected success, got %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("claim", 0, 1, 1), newFakeRateStore(), nil)(okHandler())
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, claimRequest("vendor-1", "1.2.3.4:5678"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := []struct {
		resetIn, window time.Duration
		want            int
	}{
		{1500 * time.Millisecond, time.Minute, 2},
		{0, time.Minute, 60},
		{-time.Second, 30 * time.Second, 30},
		{time.Millisecond, time.Minute, 1},
	}
	for _, tc := range cases {
		if got := retryAfterSeconds(tc.resetIn, tc.window); got != tc.want {
			t.Fatalf("retryAfterSeconds(%v, %v) = %d, want %d", tc.resetIn, tc.window, got, tc.want)
		}
	}
}

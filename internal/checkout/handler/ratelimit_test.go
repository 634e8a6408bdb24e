package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/course-checkout/pkg/auth"
)

// memoryZSets keeps sorted-set scores per key for the limiter pipeline
type memoryZSets struct {
	redis.Cmdable
	sets    map[string][]float64
	expires map[string]time.Duration
}

func newMemoryZSets() *memoryZSets {
	return &memoryZSets{sets: map[string][]float64{}, expires: map[string]time.Duration{}}
}

func (m *memoryZSets) Pipeline() redis.Pipeliner {
	return &memoryPipeline{store: m}
}

// memoryPipeline applies each queued command immediately
type memoryPipeline struct {
	redis.Pipeliner
	store *memoryZSets
}

func (p *memoryPipeline) ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd {
	lo, _ := strconv.ParseFloat(min, 64)
	hi, _ := strconv.ParseFloat(max, 64)
	var kept []float64
	var removed int64
	for _, score := range p.store.sets[key] {
		if score >= lo && score <= hi {
			removed++
			continue
		}
		kept = append(kept, score)
	}
	p.store.sets[key] = kept
	return redis.NewIntResult(removed, nil)
}

func (p *memoryPipeline) ZCard(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(p.store.sets[key])), nil)
}

func (p *memoryPipeline) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	for _, m := range members {
		p.store.sets[key] = append(p.store.sets[key], m.Score)
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (p *memoryPipeline) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	p.store.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (p *memoryPipeline) Exec(ctx context.Context) ([]redis.Cmder, error) {
	return nil, nil
}

func countingHandler(calls *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	}
}

func requestAs(userID uint, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/orders", nil)
	req.RemoteAddr = remoteAddr
	if userID != 0 {
		req = req.WithContext(context.WithValue(req.Context(), claimsKey, &auth.Claims{UserID: userID}))
	}
	return req
}

func TestRateLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	calls := 0
	h := NewRateLimiter(client, "checkout", 1, time.Minute).Middleware(countingHandler(&calls))
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, requestAs(1, "10.0.0.1:1234"))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200 while redis is down", i+1, rr.Code)
		}
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	store := newMemoryZSets()
	calls := 0
	h := NewRateLimiter(store, "checkout", 2, time.Minute).Middleware(countingHandler(&calls))

	for i, wantRemaining := range []string{"1", "0"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, requestAs(7, "10.0.0.1:1234"))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rr.Code)
		}
		if got := rr.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("request %d X-RateLimit-Remaining = %q, want %q", i+1, got, wantRemaining)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs(7, "10.0.0.1:1234"))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rr.Code)
	}
	retry, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 61 {
		t.Errorf("Retry-After = %q, want 1..61 seconds", rr.Header().Get("Retry-After"))
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want 2", got)
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
	if ttl := store.expires["ratelimit:checkout:user:7"]; ttl != 2*time.Minute {
		t.Errorf("key ttl = %v, want window plus a minute", ttl)
	}
}

func TestRateLimiterCountsPerIdentifier(t *testing.T) {
	store := newMemoryZSets()
	calls := 0
	h := NewRateLimiter(store, "checkout", 1, time.Minute).Middleware(countingHandler(&calls))

	cases := []struct {
		name       string
		userID     uint
		remoteAddr string
		want       int
	}{
		{"first user", 1, "10.0.0.1:1234", http.StatusOK},
		{"second user on the same address", 2, "10.0.0.1:1234", http.StatusOK},
		{"anonymous", 0, "10.0.0.1:1234", http.StatusOK},
		{"anonymous from another address", 0, "10.0.0.2:1234", http.StatusOK},
		{"first user again", 1, "10.0.0.9:1234", http.StatusTooManyRequests},
		{"anonymous again", 0, "10.0.0.1:1234", http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, requestAs(tc.userID, tc.remoteAddr))
		if rr.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rr.Code, tc.want)
		}
	}

	for _, key := range []string{
		"ratelimit:checkout:user:1",
		"ratelimit:checkout:user:2",
		"ratelimit:checkout:ip:10.0.0.1:1234",
		"ratelimit:checkout:ip:10.0.0.2:1234",
	} {
		if _, ok := store.sets[key]; !ok {
			t.Errorf("no counter for %s", key)
		}
	}
	if calls != 4 {
		t.Errorf("handler calls = %d, want 4", calls)
	}
}

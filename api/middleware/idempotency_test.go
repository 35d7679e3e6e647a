package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lankapos/pos-backend/pkg/logger"
)

// memoryReplayStore is an in-process stand-in for the Redis idempotency
// surface. Get returns "" with a nil error on a miss, which the middleware
// treats the same as redis.Nil.
type memoryReplayStore struct {
	mu      sync.Mutex
	records map[string]string
	sets    int
}

func newMemoryReplayStore() *memoryReplayStore {
	return &memoryReplayStore{records: make(map[string]string)}
}

func (s *memoryReplayStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[key], nil
}

func (s *memoryReplayStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return false, nil
	}
	s.records[key] = value.(string)
	s.sets++
	return true, nil
}

func (s *memoryReplayStore) IdempotencyKey(scope, id string) string {
	return "lp:idempotency:" + scope + ":" + id
}

func (s *memoryReplayStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

// newSessionRouter mounts the middleware at the group level the way the real
// router does, so matching must work against the raw request path, not a
// route pattern.
func newSessionRouter(store *memoryReplayStore, logg *logger.Logger, checkoutHits *int) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Idempotency(store, logg))
		r.Route("/sessions/{terminal}", func(r chi.Router) {
			r.Post("/scan", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"data":{"items":[]}}`))
			})
			r.Post("/checkout", func(w http.ResponseWriter, _ *http.Request) {
				*checkoutHits++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"data":{"invoice_number":"INV-20260831-0001"}}`))
			})
		})
	})
	return r
}

func TestIdempotencyRequiresKeyOnCheckout(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	hits := 0
	router := newSessionRouter(newMemoryReplayStore(), logg, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/counter-1/checkout", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d: %s", rec.Code, rec.Body.String())
	}
	if hits != 0 {
		t.Fatalf("handler must not run without a key, got %d hits", hits)
	}
}

func TestIdempotencyReplaysRepeatedCheckout(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	store := newMemoryReplayStore()
	hits := 0
	router := newSessionRouter(store, logg, &hits)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/counter-1/checkout", strings.NewReader(`{"received_amount":"2000.00"}`))
		req.Header.Set("Idempotency-Key", "key-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first submit, got %d: %s", first.Code, first.Body.String())
	}
	if hits != 1 {
		t.Fatalf("expected one handler invocation, got %d", hits)
	}
	if store.sets != 1 {
		t.Fatalf("expected one captured record, got %d", store.sets)
	}

	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d: %s", second.Code, second.Body.String())
	}
	if hits != 1 {
		t.Fatalf("retry must be replayed, not re-run; got %d invocations", hits)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", second.Body.String(), first.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	hits := 0
	router := newSessionRouter(newMemoryReplayStore(), logg, &hits)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/counter-1/checkout", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-456")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(`{"received_amount":"2000.00"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first submit, got %d", rec.Code)
	}
	rec := send(`{"received_amount":"5000.00"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for key reuse with different body, got %d: %s", rec.Code, rec.Body.String())
	}
	if hits != 1 {
		t.Fatalf("conflicting retry must not reach the handler, got %d invocations", hits)
	}
}

func TestIdempotencyLeavesUnkeyedRoutesAlone(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	hits := 0
	router := newSessionRouter(newMemoryReplayStore(), logg, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/counter-1/scan", strings.NewReader(`{"code":"4791234567890"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("scan must pass through without a key, got %d", rec.Code)
	}
}

func TestReplayTTLMatchesRawPaths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		method string
		path   string
		keyed  bool
		ttl    time.Duration
	}{
		{"checkout", http.MethodPost, "/api/v1/sessions/counter-1/checkout", true, 7 * 24 * time.Hour},
		{"hold", http.MethodPost, "/api/v1/sessions/counter-1/hold", true, 24 * time.Hour},
		{"products exact", http.MethodPost, "/api/v1/products", true, 24 * time.Hour},
		{"products trailing slash", http.MethodPost, "/api/v1/products/", true, 24 * time.Hour},
		{"get checkout", http.MethodGet, "/api/v1/sessions/counter-1/checkout", false, 0},
		{"scan", http.MethodPost, "/api/v1/sessions/counter-1/scan", false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ttl, keyed := replayTTL(tc.method, tc.path)
			if keyed != tc.keyed {
				t.Fatalf("expected keyed=%v for %s %s, got %v", tc.keyed, tc.method, tc.path, keyed)
			}
			if ttl != tc.ttl {
				t.Fatalf("expected ttl %s, got %s", tc.ttl, ttl)
			}
		})
	}
}

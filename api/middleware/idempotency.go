package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lankapos/pos-backend/api/responses"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
	pkgredis "github.com/lankapos/pos-backend/pkg/redis"
)

// replayWindow says how long a captured response stays replayable. Checkout
// mints an invoice and moves stock, so its window is a full week; the other
// write endpoints only need to survive a flaky connection retry.
type replayWindow struct {
	prefix string
	suffix string
	ttl    time.Duration
}

var replayWindows = []replayWindow{
	{prefix: "/api/v1/sessions/", suffix: "/checkout", ttl: 7 * 24 * time.Hour},
	{prefix: "/api/v1/sessions/", suffix: "/hold", ttl: 24 * time.Hour},
	{prefix: "/api/v1/sessions/", suffix: "/resume", ttl: 24 * time.Hour},
	{prefix: "/api/v1/inventory/adjust", ttl: 24 * time.Hour},
	{prefix: "/api/v1/products", ttl: 24 * time.Hour},
	{prefix: "/api/v1/customers", ttl: 24 * time.Hour},
	{prefix: "/api/v1/users", ttl: 24 * time.Hour},
}

// replayTTL matches the raw request path; the prefix/suffix pairs tolerate
// the terminal segment in session paths without needing route patterns.
func replayTTL(method, path string) (time.Duration, bool) {
	if method != http.MethodPost || path == "" {
		return 0, false
	}
	path = strings.TrimSuffix(path, "/")
	for _, window := range replayWindows {
		if window.suffix == "" {
			if path == window.prefix {
				return window.ttl, true
			}
			continue
		}
		if strings.HasPrefix(path, window.prefix) && strings.HasSuffix(path, window.suffix) {
			return window.ttl, true
		}
	}
	return 0, false
}

type replayRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency captures the first response for keyed write endpoints and
// replays it when the same cashier retries with the same Idempotency-Key.
// Reusing a key with a different payload is rejected outright.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, keyed := replayTTL(r.Method, r.URL.Path)
			if !keyed || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(err, pkgerrors.CodeDependency, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := sha256.Sum256(body)
			requestHash := base64.StdEncoding.EncodeToString(hash[:])

			// Scoped per user so two cashiers can never collide on a key.
			scope := strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
			storageKey := store.IdempotencyKey(scope, clientKey)

			stored, getErr := store.Get(r.Context(), storageKey)
			if getErr != nil && !errors.Is(getErr, redis.Nil) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(getErr, pkgerrors.CodeDependency, "check idempotency"))
				return
			}
			if stored != "" {
				var record replayRecord
				if err := json.Unmarshal([]byte(stored), &record); err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(err, pkgerrors.CodeDependency, "decode idempotency record"))
					return
				}
				if record.RequestHash != requestHash {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				replay(w, record)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			record := replayRecord{
				Status:      capture.statusOrOK(),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				ContentType: capture.Header().Get("Content-Type"),
				RequestHash: requestHash,
			}
			payload, marshalErr := json.Marshal(record)
			if marshalErr != nil {
				if logg != nil {
					logg.Error(r.Context(), "marshal idempotency record", marshalErr)
				}
				return
			}
			if _, setErr := store.SetNX(r.Context(), storageKey, string(payload), ttl); setErr != nil && logg != nil {
				logg.Error(r.Context(), "persist idempotency record", setErr)
			}
		})
	}
}

func replay(w http.ResponseWriter, record replayRecord) {
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

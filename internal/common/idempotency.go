package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/technyks/checkout/internal/obs"
)

// Idem guards write endpoints against duplicate delivery of one attempt.
// The first request carrying an Idempotency-Key claims it in Redis; repeated
// deliveries are rejected while the claim stands. A claim made by a request
// that failed downstream is released, so the client can retry the same
// attempt id and reach the processor with the same per-step idempotency keys.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func idemKey(header string) string {
	sum := sha256.Sum256([]byte(header))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := idemKey(header)
		claimed, err := i.R.SetNX(ctx, key, "claimed", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}

		defer func() {
			// A panic downstream must not pin the claim for the full TTL.
			if rec := recover(); rec != nil {
				_ = i.R.Del(context.Background(), key).Err()
				panic(rec)
			}
		}()

		recorder := obs.NewStatusRecorder(w)
		next.ServeHTTP(recorder, r)
		if recorder.Status() >= http.StatusBadRequest {
			// Only a successful attempt keeps the claim; failures may be
			// retried under the same key.
			_ = i.R.Del(context.Background(), key).Err()
		}
	})
}

package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionBusy is returned when a checkout session already has an
// outstanding intent request.
var ErrSessionBusy = errors.New("session: intent request already outstanding")

// Guard serialises intent creation per checkout session. The payment
// processor happily mints duplicate customers and intents for concurrent
// requests, so the serialisation has to happen on our side.
type Guard struct {
	R   *redis.Client
	TTL time.Duration
}

// Acquire claims the session for the duration of one intent request. The
// returned release function must be called when the request finishes; the
// TTL caps the claim if the server dies first. ErrSessionBusy is returned
// when another intent request for the same session is outstanding.
func (g Guard) Acquire(ctx context.Context, sessionID string) (func(), error) {
	if g.R == nil {
		return nil, errors.New("session: redis client not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session: id is required")
	}
	ttl := g.TTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	key := "session:intent:" + sessionID
	token := uuid.NewString()
	ok, err := g.R.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionBusy
	}
	release := func() {
		g.release(context.Background(), key, token)
	}
	return release, nil
}

func (g Guard) release(ctx context.Context, key, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := g.R.Eval(ctx, script, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = g.R.Del(ctx, key).Err()
		}
	}
}

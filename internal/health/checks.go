package health

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deps probes the live dependencies of the intent service.
type Deps struct {
	Redis *redis.Client
	// ProcessorConfigured reflects whether a processor secret key was
	// loaded. The key itself is never probed on the readiness path.
	ProcessorConfigured bool
}

func (d Deps) PingRedis(ctx context.Context, timeout time.Duration) error {
	// The server may deliberately run without Redis (guard and idempotency
	// disabled); readiness follows that decision instead of failing forever.
	if d.Redis == nil {
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(pctx).Err()
}

func (d Deps) PingProcessor(_ context.Context, _ time.Duration) error {
	if !d.ProcessorConfigured {
		return errors.New("processor secret key missing")
	}
	return nil
}

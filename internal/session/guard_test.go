package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) (Guard, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Guard{R: client, TTL: time.Minute}, mr
}

func TestGuardRejectsSecondAcquire(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "sess-1")
	require.NoError(t, err)

	_, err = guard.Acquire(ctx, "sess-1")
	require.ErrorIs(t, err, ErrSessionBusy)

	release()

	release2, err := guard.Acquire(ctx, "sess-1")
	require.NoError(t, err)
	release2()
}

func TestGuardIsolatesSessions(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	release1, err := guard.Acquire(ctx, "sess-a")
	require.NoError(t, err)
	defer release1()

	release2, err := guard.Acquire(ctx, "sess-b")
	require.NoError(t, err)
	defer release2()
}

func TestGuardExpiresAbandonedClaims(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	_, err := guard.Acquire(ctx, "sess-x")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	release, err := guard.Acquire(ctx, "sess-x")
	require.NoError(t, err)
	release()
}

func TestGuardRequiresSessionID(t *testing.T) {
	guard, _ := newTestGuard(t)
	_, err := guard.Acquire(context.Background(), "  ")
	require.Error(t, err)
}

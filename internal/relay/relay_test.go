package relay_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/technyks/checkout/internal/relay"
)

func TestSubscribeBeforeEmitReceivesEvent(t *testing.T) {
	hub := relay.NewHub()
	ticket := hub.Subscribe("sheet")
	defer ticket.Close()

	delivered := hub.Emit(relay.Event{Method: "sheet", Tag: relay.TagCompleted})
	require.Equal(t, 1, delivered)

	ev, err := ticket.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, relay.TagCompleted, ev.Tag)
}

func TestEmitBeforeWaitIsBuffered(t *testing.T) {
	// The listener is registered before the intent request; the completion
	// event may fire before the controller starts waiting.
	hub := relay.NewHub()
	ticket := hub.Subscribe("applepay")
	defer ticket.Close()

	hub.Emit(relay.Event{Method: "applepay", Tag: relay.TagCompleted})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ev, err := ticket.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, relay.TagCompleted, ev.Tag)
}

func TestExactlyOnceDelivery(t *testing.T) {
	hub := relay.NewHub()
	ticket := hub.Subscribe("flow")
	defer ticket.Close()

	require.Equal(t, 1, hub.Emit(relay.Event{Method: "flow", Tag: relay.TagCompleted}))
	require.Equal(t, 0, hub.Emit(relay.Event{Method: "flow", Tag: relay.TagCanceled}), "second emit must not be delivered")

	ev, err := ticket.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, relay.TagCompleted, ev.Tag)
}

func TestMethodNamespacesAreIsolated(t *testing.T) {
	hub := relay.NewHub()
	sheet := hub.Subscribe("sheet")
	defer sheet.Close()
	gpay := hub.Subscribe("googlepay")
	defer gpay.Close()

	require.Equal(t, 1, hub.Emit(relay.Event{Method: "googlepay", Tag: relay.TagCompleted}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := sheet.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseDeregisters(t *testing.T) {
	hub := relay.NewHub()
	ticket := hub.Subscribe("sheet")
	require.Equal(t, 1, hub.Subscribers("sheet"))

	ticket.Close()
	require.Equal(t, 0, hub.Subscribers("sheet"), "closed ticket must not linger")
	require.Equal(t, 0, hub.Emit(relay.Event{Method: "sheet", Tag: relay.TagCompleted}))

	_, err := ticket.Wait(context.Background())
	require.ErrorIs(t, err, relay.ErrTicketClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	hub := relay.NewHub()
	ticket := hub.Subscribe("sheet")
	ticket.Close()
	ticket.Close()
}

func TestCloseAfterDelivery(t *testing.T) {
	hub := relay.NewHub()
	ticket := hub.Subscribe("sheet")
	hub.Emit(relay.Event{Method: "sheet", Tag: relay.TagCompleted})

	ev, err := ticket.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, relay.TagCompleted, ev.Tag)
	ticket.Close()
}

func TestWaitHonoursContext(t *testing.T) {
	hub := relay.NewHub()
	ticket := hub.Subscribe("sheet")
	defer ticket.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ticket.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

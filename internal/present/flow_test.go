package present

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/technyks/checkout/internal/relay"
)

func TestFlowCompleted(t *testing.T) {
	intents, sdk, cfg := testHarness()
	sdk.Card = CardSummary{Brand: "mastercard", MaskedNumber: "···· 4444"}

	c := NewFlow(cfg)
	out := c.Run(t.Context(), testRequest())

	require.Equal(t, OutcomeCompleted, out.Kind)
	require.Equal(t, "pi_3Abc123", out.CorrelationID)
	require.Equal(t, CardSummary{Brand: "mastercard", MaskedNumber: "···· 4444"}, c.Card())
	require.False(t, c.ConfirmPending())
	require.Equal(t, 1, intents.Calls())
	require.Equal(t, 1, sdk.ConfirmCalls())
	require.Equal(t, "Technyks", sdk.FlowOpts.MerchantDisplayName)
	require.Equal(t, 0, cfg.Events.Subscribers(string(MethodFlow)))
}

func TestFlowConfirmRequiresPresent(t *testing.T) {
	hub := relay.NewHub()
	sdk := NewSimSDK(hub)

	_, err := sdk.ConfirmPaymentFlow(t.Context())
	require.ErrorIs(t, err, ErrNotPresented)
}

func TestFlowConfirmCanceled(t *testing.T) {
	_, sdk, cfg := testHarness()
	sdk.FlowResult = Result{Tag: relay.TagCanceled}

	c := NewFlow(cfg)
	out := c.Run(t.Context(), testRequest())

	require.Equal(t, OutcomeCanceled, out.Kind)
	require.False(t, c.ConfirmPending())
	require.Equal(t, StateCanceled, c.State())
}

func TestFlowPresentTimeout(t *testing.T) {
	_, sdk, cfg := testHarness()
	sdk.PresentDelay = 200 * time.Millisecond
	cfg.PresentTimeout = 20 * time.Millisecond

	c := NewFlow(cfg)
	out := c.Run(t.Context(), testRequest())

	require.Equal(t, OutcomeFailed, out.Kind)
	require.ErrorIs(t, out.Reason, ErrPresentTimeout)
	require.Zero(t, sdk.ConfirmCalls())
}

func TestFlowSingleUse(t *testing.T) {
	_, _, cfg := testHarness()
	c := NewFlow(cfg)

	require.Equal(t, OutcomeCompleted, c.Run(t.Context(), testRequest()).Kind)

	second := c.Run(t.Context(), testRequest())
	require.ErrorIs(t, second.Reason, ErrControllerUsed)
}

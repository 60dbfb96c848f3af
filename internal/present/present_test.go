package present

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/technyks/checkout/internal/intentclient"
	"github.com/technyks/checkout/internal/relay"
)

type fakeIntents struct {
	mu     sync.Mutex
	calls  int
	lastIn intentclient.PaymentRequest
	triple intentclient.Triple
	err    error
}

func (f *fakeIntents) RequestIntent(_ context.Context, req intentclient.PaymentRequest) (intentclient.Triple, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastIn = req
	if f.err != nil {
		return intentclient.Triple{}, f.err
	}
	return f.triple, nil
}

func (f *fakeIntents) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testRequest() PaymentRequest {
	return PaymentRequest{PayerName: "A", PayerEmail: "a@x.com", Amount: 100, Currency: "inr"}
}

func testHarness() (*fakeIntents, *SimSDK, Config) {
	hub := relay.NewHub()
	sdk := NewSimSDK(hub)
	intents := &fakeIntents{
		triple: intentclient.Triple{
			ClientSecret:    "pi_3Abc123_secret_XyZ789",
			EphemeralSecret: "ek_test_abc",
			CustomerID:      "cus_Abc",
		},
	}
	cfg := Config{
		Intents:             intents,
		SDK:                 sdk,
		Events:              hub,
		Logger:              zerolog.Nop(),
		MerchantDisplayName: "Technyks",
		MerchantIdentifier:  "merchant.com.getcapacitor.stripe",
		CountryCode:         "IN",
		CurrencyCode:        "INR",
		PresentTimeout:      time.Second,
		ConfirmTimeout:      time.Second,
	}
	return intents, sdk, cfg
}

func TestCorrelationID(t *testing.T) {
	cases := []struct {
		secret string
		want   string
	}{
		{"pi_3Abc123_secret_XyZ789", "pi_3Abc123"},
		{"pi_3Abc123", "pi_3Abc123"},
		{"pi", "pi"},
		{"", ""},
		{"a_b_c_d", "a_b"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CorrelationID(tc.secret))
	}
}

func TestSheetCompleted(t *testing.T) {
	intents, sdk, cfg := testHarness()
	var hooked string
	cfg.CompletionHook = func(clientSecret string) { hooked = clientSecret }

	c := NewSheet(cfg)
	out := c.Run(t.Context(), testRequest())

	require.Equal(t, OutcomeCompleted, out.Kind)
	require.Equal(t, "pi_3Abc123", out.CorrelationID)
	require.Equal(t, StateCompleted, c.State())
	require.Equal(t, "pi_3Abc123_secret_XyZ789", hooked)
	require.Equal(t, 1, intents.Calls())
	require.Equal(t, intentclient.PaymentRequest{PayerName: "A", PayerEmail: "a@x.com", Amount: 100, Currency: "inr"}, intents.lastIn)
	require.Equal(t, SheetOptions{
		ClientSecret:        "pi_3Abc123_secret_XyZ789",
		CustomerID:          "cus_Abc",
		EphemeralKeySecret:  "ek_test_abc",
		MerchantDisplayName: "Technyks",
	}, sdk.SheetOpts)
	// The relay ticket must be released once the attempt settles.
	require.Equal(t, 0, cfg.Events.Subscribers(string(MethodSheet)))
}

func TestSheetCanceled(t *testing.T) {
	_, sdk, cfg := testHarness()
	sdk.SheetResult = Result{Tag: relay.TagCanceled}

	out := NewSheet(cfg).Run(t.Context(), testRequest())

	require.Equal(t, OutcomeCanceled, out.Kind)
	require.Empty(t, out.CorrelationID)
}

func TestSheetUnknownTagCollapsesToCanceled(t *testing.T) {
	_, sdk, cfg := testHarness()
	sdk.SheetResult = Result{Tag: "interrupted"}

	out := NewSheet(cfg).Run(t.Context(), testRequest())

	require.Equal(t, OutcomeCanceled, out.Kind)
}

func TestSheetFailedKeepsReason(t *testing.T) {
	_, sdk, cfg := testHarness()
	sdk.SheetResult = Result{Tag: relay.TagFailed, Reason: "card_declined"}

	c := NewSheet(cfg)
	out := c.Run(t.Context(), testRequest())

	require.Equal(t, OutcomeFailed, out.Kind)
	require.EqualError(t, out.Reason, "card_declined")
	require.Equal(t, StateFailed, c.State())
}

func TestSheetIntentFailureStopsBeforePresent(t *testing.T) {
	intents, sdk, cfg := testHarness()
	intents.err = &intentclient.ServiceError{Status: 502, Code: "INTENT_FAILED"}

	out := NewSheet(cfg).Run(t.Context(), testRequest())

	require.Equal(t, OutcomeFailed, out.Kind)
	var svcErr *intentclient.ServiceError
	require.ErrorAs(t, out.Reason, &svcErr)
	require.Zero(t, sdk.PresentCalls())
}

func TestSheetControllerSingleUse(t *testing.T) {
	intents, sdk, cfg := testHarness()
	c := NewSheet(cfg)

	first := c.Run(t.Context(), testRequest())
	require.Equal(t, OutcomeCompleted, first.Kind)

	second := c.Run(t.Context(), testRequest())
	require.Equal(t, OutcomeFailed, second.Kind)
	require.ErrorIs(t, second.Reason, ErrControllerUsed)
	require.Equal(t, 1, intents.Calls())
	require.Equal(t, 1, sdk.PresentCalls())
}

func TestSheetPresentTimeoutFails(t *testing.T) {
	_, sdk, cfg := testHarness()
	sdk.PresentDelay = 200 * time.Millisecond
	cfg.PresentTimeout = 20 * time.Millisecond

	out := NewSheet(cfg).Run(t.Context(), testRequest())

	require.Equal(t, OutcomeFailed, out.Kind)
	require.ErrorIs(t, out.Reason, ErrPresentTimeout)
}

func TestSheetCreateFailure(t *testing.T) {
	_, sdk, cfg := testHarness()
	sdk.CreateErr = errors.New("sdk unavailable")

	c := NewSheet(cfg)
	out := c.Run(t.Context(), testRequest())

	require.Equal(t, OutcomeFailed, out.Kind)
	require.EqualError(t, out.Reason, "sdk unavailable")
	require.Zero(t, sdk.PresentCalls())
}

package intent_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/technyks/checkout/internal/intent"
	"github.com/technyks/checkout/internal/processor"
	"github.com/technyks/checkout/internal/session"
)

func newHandler(mock *processor.Mock, guard *session.Guard) *intent.Handler {
	return &intent.Handler{
		Svc: &intent.Service{
			Processor: mock,
			Validate:  intent.NewValidator(),
			Logger:    zerolog.Nop(),
		},
		Guard: guard,
	}
}

func postSheet(t *testing.T, h *intent.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/payment-sheet", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.PaymentSheet(rec, req)
	return rec
}

func TestPaymentSheetHappyPath(t *testing.T) {
	mock := &processor.Mock{}
	h := newHandler(mock, nil)

	rec := postSheet(t, h, `{"name":"A","email":"a@x.com","amount":100,"currency":"inr"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PaymentIntent string `json:"paymentIntent"`
		EphemeralKey  string `json:"ephemeralKey"`
		Customer      string `json:"customer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.PaymentIntent)
	require.NotEmpty(t, resp.EphemeralKey)
	require.NotEmpty(t, resp.Customer)
	require.Equal(t, resp.Customer, mock.KeyCalls[0].CustomerID)
}

func TestPaymentSheetAcceptsStringAmount(t *testing.T) {
	h := newHandler(&processor.Mock{}, nil)
	rec := postSheet(t, h, `{"name":"A","email":"a@x.com","amount":"250","currency":"usd"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentSheetRejectsBadBody(t *testing.T) {
	h := newHandler(&processor.Mock{}, nil)

	rec := postSheet(t, h, `{"name":`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postSheet(t, h, `{"name":"A","email":"a@x.com","amount":10.5,"currency":"inr"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentSheetRejectsInvalidRequest(t *testing.T) {
	mock := &processor.Mock{}
	h := newHandler(mock, nil)

	rec := postSheet(t, h, `{"name":"A","email":"a@x.com","amount":0,"currency":"inr"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION")
	require.Empty(t, mock.CustomerCalls)
}

func TestPaymentSheetProcessorFailure(t *testing.T) {
	mock := &processor.Mock{FailIntent: errTest}
	h := newHandler(mock, nil)

	rec := postSheet(t, h, `{"name":"A","email":"a@x.com","amount":100,"currency":"inr"}`, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "INTENT_FAILED")
}

func TestPaymentSheetSessionGuard(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	guard := &session.Guard{R: client, TTL: time.Minute}

	// Simulate an outstanding intent request for the session.
	release, err := guard.Acquire(t.Context(), "sess-1")
	require.NoError(t, err)

	h := newHandler(&processor.Mock{}, guard)
	rec := postSheet(t, h, `{"name":"A","email":"a@x.com","amount":100,"currency":"inr"}`,
		map[string]string{"X-Checkout-Session": "sess-1"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "SESSION_BUSY")

	release()
	rec = postSheet(t, h, `{"name":"A","email":"a@x.com","amount":100,"currency":"inr"}`,
		map[string]string{"X-Checkout-Session": "sess-1"})
	require.Equal(t, http.StatusOK, rec.Code)
}

var errTest = errorString("processor unavailable")

type errorString string

func (e errorString) Error() string { return string(e) }

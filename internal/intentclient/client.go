package intentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/technyks/checkout/internal/resilience"
)

// PaymentRequest describes one charge attempt from the payer's side. It is
// immutable for the lifetime of the attempt.
type PaymentRequest struct {
	PayerName  string `json:"name"`
	PayerEmail string `json:"email"`
	// Amount is in minor units.
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Triple is the normalised response of the intent service: the three opaque
// secrets a presentation attempt needs.
type Triple struct {
	ClientSecret    string
	EphemeralSecret string
	CustomerID      string
}

// ErrRequestInFlight is returned when RequestIntent is re-invoked before the
// prior call for the same client resolved.
var ErrRequestInFlight = errors.New("intentclient: request already in flight")

// TransportError wraps a network or request-layer failure reaching the
// intent service. It is never retried automatically.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "intentclient: transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError is a business failure reported by the intent service itself.
type ServiceError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("intentclient: service %d %s: %s", e.Status, e.Code, e.Message)
}

// Client issues the single round trip to the intent service and normalises
// the response. One outstanding call per client; callers must not re-invoke
// before the prior call resolves.
type Client struct {
	BaseURL string
	HTTP    resilience.HTTPClient
	Logger  zerolog.Logger

	// SessionID, when set, is sent as the checkout-session header so the
	// server can reject concurrent intents for the same session.
	SessionID string
	// AttemptID, when set, is sent as the idempotency key.
	AttemptID string

	inflight atomic.Bool
}

// New constructs a client with a bounded per-call timeout and no automatic
// retries.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{},
			MaxAttempts: 1,
			Timeout:     timeout,
			Breaker:     resilience.NewBreaker(5, 0.8, 15*time.Second).WithTarget("intent-service").WithLogger(logger),
		},
		Logger: logger,
	}
}

type wireResp struct {
	PaymentIntent string `json:"paymentIntent"`
	EphemeralKey  string `json:"ephemeralKey"`
	Customer      string `json:"customer"`
}

type wireErr struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// RequestIntent posts the payment request and returns the triple. Transport
// failures and service-reported failures surface as distinct error types,
// and the triple is complete or the call failed.
func (c *Client) RequestIntent(ctx context.Context, req PaymentRequest) (Triple, error) {
	var zero Triple
	if !c.inflight.CompareAndSwap(false, true) {
		return zero, ErrRequestInFlight
	}
	defer c.inflight.Store(false)

	body, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("intentclient: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/payment-sheet", bytes.NewReader(body))
	if err != nil {
		return zero, fmt.Errorf("intentclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.SessionID != "" {
		httpReq.Header.Set("X-Checkout-Session", c.SessionID)
	}
	if c.AttemptID != "" {
		httpReq.Header.Set("Idempotency-Key", c.AttemptID)
	}

	resp, err := c.HTTP.Do(ctx, httpReq)
	if err != nil {
		c.Logger.Error().Err(err).Msg("intent_request_transport_failed")
		return zero, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var envelope wireErr
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		svcErr := &ServiceError{
			Status:  resp.StatusCode,
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
		}
		c.Logger.Warn().Int("status", resp.StatusCode).Str("code", svcErr.Code).Msg("intent_request_rejected")
		return zero, svcErr
	}

	var out wireResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.PaymentIntent == "" || out.EphemeralKey == "" || out.Customer == "" {
		return zero, &TransportError{Err: errors.New("incomplete intent response")}
	}
	return Triple{
		ClientSecret:    out.PaymentIntent,
		EphemeralSecret: out.EphemeralKey,
		CustomerID:      out.Customer,
	}, nil
}

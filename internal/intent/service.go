package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/technyks/checkout/internal/obs"
	"github.com/technyks/checkout/internal/processor"
)

// Triple carries the three opaque secrets the client needs to drive a
// presentation attempt. All three are populated or the request failed.
type Triple struct {
	ClientSecret    string
	EphemeralSecret string
	CustomerID      string
}

// CreateIntentParams is the validated input for one charge attempt.
type CreateIntentParams struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Amount   int64  `validate:"gt=0"`
	Currency string `validate:"required,len=3"`

	// AttemptID drives the processor idempotency keys. When empty a fresh
	// id is generated, so retries stay idempotent only when the caller
	// supplies one.
	AttemptID string
}

// ValidationError reports rejected input before any processor call is made.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "intent: invalid request: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// CreationError reports a failed processor step. The steps before it have
// already created remote resources; there is no compensating cleanup, the
// whole request is simply surfaced as failed.
type CreationError struct {
	Step string
	Err  error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("intent: create %s: %v", e.Step, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// Service mints the customer, ephemeral key and payment intent for one
// charge attempt, in that order, each step depending on the prior result.
type Service struct {
	Processor  processor.API
	APIVersion string
	Validate   *validator.Validate
	Logger     zerolog.Logger
}

// NewValidator returns the validator used for intent requests.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// CreateIntent performs the three processor calls and returns the triple.
// The caller observes all-or-nothing: any step failure aborts the request
// and no partial triple is ever returned.
func (s *Service) CreateIntent(ctx context.Context, p CreateIntentParams) (Triple, error) {
	var zero Triple
	if s == nil || s.Processor == nil {
		return zero, errors.New("intent: service not configured")
	}
	ctx, span := otel.Tracer("intent.Service").Start(ctx, "IntentService.CreateIntent")
	defer span.End()

	result := "error"
	defer func() {
		span.SetAttributes(attribute.String("intent.result", result))
		if obs.IntentCreateTotal != nil {
			obs.IntentCreateTotal.WithLabelValues(result).Inc()
		}
	}()

	if err := s.validate(p); err != nil {
		result = "invalid"
		return zero, &ValidationError{Err: err}
	}

	attemptID := strings.TrimSpace(p.AttemptID)
	if attemptID == "" {
		attemptID = uuid.NewString()
	}
	currency := strings.ToLower(p.Currency)
	span.SetAttributes(
		attribute.String("intent.attempt_id", attemptID),
		attribute.Int64("intent.amount", p.Amount),
		attribute.String("intent.currency", currency),
	)

	start := time.Now()
	cus, err := s.Processor.CreateCustomer(ctx, processor.CustomerParams{
		Name:           p.Name,
		Email:          p.Email,
		IdempotencyKey: attemptID + "-customer",
	})
	s.observeStep("customer", start, err)
	if err != nil {
		span.RecordError(err)
		return zero, &CreationError{Step: "customer", Err: err}
	}

	start = time.Now()
	key, err := s.Processor.CreateEphemeralKey(ctx, processor.EphemeralKeyParams{
		CustomerID:     cus.ID,
		APIVersion:     s.apiVersion(),
		IdempotencyKey: attemptID + "-ephemeral-key",
	})
	s.observeStep("ephemeral_key", start, err)
	if err != nil {
		span.RecordError(err)
		return zero, &CreationError{Step: "ephemeral_key", Err: err}
	}

	start = time.Now()
	pi, err := s.Processor.CreatePaymentIntent(ctx, processor.IntentParams{
		Amount:                  p.Amount,
		Currency:                currency,
		CustomerID:              cus.ID,
		AutomaticPaymentMethods: true,
		IdempotencyKey:          attemptID + "-payment-intent",
	})
	s.observeStep("payment_intent", start, err)
	if err != nil {
		span.RecordError(err)
		return zero, &CreationError{Step: "payment_intent", Err: err}
	}

	result = "success"
	s.Logger.Info().
		Str("attempt_id", attemptID).
		Str("customer_id", cus.ID).
		Str("intent_id", pi.ID).
		Int64("amount", p.Amount).
		Str("currency", currency).
		Msg("intent_created")

	return Triple{
		ClientSecret:    pi.ClientSecret,
		EphemeralSecret: key.Secret,
		CustomerID:      cus.ID,
	}, nil
}

func (s *Service) validate(p CreateIntentParams) error {
	v := s.Validate
	if v == nil {
		v = NewValidator()
	}
	if err := v.Struct(p); err != nil {
		return err
	}
	// Currency arrives lowercase on the wire; the ISO-4217 table is uppercase.
	return v.Var(strings.ToUpper(p.Currency), "iso4217")
}

func (s *Service) apiVersion() string {
	if strings.TrimSpace(s.APIVersion) == "" {
		return "2020-08-27"
	}
	return s.APIVersion
}

func (s *Service) observeStep(name string, start time.Time, err error) {
	if obs.IntentStepLatency != nil {
		obs.IntentStepLatency.WithLabelValues(name).Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		s.Logger.Error().Err(err).Str("step", name).Msg("intent_step_failed")
	}
}

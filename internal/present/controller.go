package present

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/technyks/checkout/internal/intentclient"
	"github.com/technyks/checkout/internal/obs"
	"github.com/technyks/checkout/internal/relay"
)

// completionGrace bounds the wait for the relay completion event after the
// SDK already reported success. The result tag stays authoritative.
const completionGrace = 2 * time.Second

// IntentRequester mints the customer, ephemeral key and payment intent for
// one attempt.
type IntentRequester interface {
	RequestIntent(ctx context.Context, req intentclient.PaymentRequest) (intentclient.Triple, error)
}

// Config carries the dependencies and merchant settings shared by all
// presentation controllers.
type Config struct {
	Intents IntentRequester
	SDK     SDK
	Events  *relay.Hub
	Logger  zerolog.Logger

	MerchantDisplayName string
	MerchantIdentifier  string
	CountryCode         string
	CurrencyCode        string

	PresentTimeout time.Duration
	ConfirmTimeout time.Duration

	// CompletionHook runs once on completion with the raw client secret.
	// When nil the controller logs the derived correlation id.
	CompletionHook func(clientSecret string)
}

// controller holds the per-attempt state shared by the four method
// controllers. A controller serves exactly one attempt.
type controller struct {
	cfg    Config
	method Method
	state  State
	used   atomic.Bool
}

func newController(cfg Config, method Method) controller {
	if cfg.PresentTimeout <= 0 {
		cfg.PresentTimeout = 5 * time.Minute
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 2 * time.Minute
	}
	return controller{cfg: cfg, method: method, state: StateIdle}
}

// State reports the controller's current lifecycle state.
func (c *controller) State() State { return c.state }

// begin claims the controller for a single attempt.
func (c *controller) begin() bool {
	return c.used.CompareAndSwap(false, true)
}

// requestIntent mints the backing intent for this attempt. The relay ticket
// must already be registered so a completion emitted during the request is
// not lost.
func (c *controller) requestIntent(ctx context.Context, req PaymentRequest) (intentclient.Triple, error) {
	return c.cfg.Intents.RequestIntent(ctx, req)
}

// present runs fn under the presentation deadline and normalizes a deadline
// overrun into ErrPresentTimeout.
func (c *controller) present(ctx context.Context, fn func(context.Context) (Result, error)) (Result, error) {
	pctx, cancel := context.WithTimeout(ctx, c.cfg.PresentTimeout)
	defer cancel()
	res, err := fn(pctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && pctx.Err() != nil {
		return Result{}, ErrPresentTimeout
	}
	return res, err
}

// finish converts an SDK result into the attempt's terminal outcome. Unknown
// tags collapse to a cancellation, matching how earlier clients treated every
// non-completed result.
func (c *controller) finish(ctx context.Context, ticket *relay.Ticket, clientSecret string, res Result) Outcome {
	switch res.Tag {
	case relay.TagCompleted:
		c.consumeCompletion(ctx, ticket)
		correlation := CorrelationID(clientSecret)
		if c.cfg.CompletionHook != nil {
			c.cfg.CompletionHook(clientSecret)
		} else {
			c.cfg.Logger.Info().
				Str("method", string(c.method)).
				Str("correlation_id", correlation).
				Msg("payment_completed")
		}
		return c.terminal(Outcome{Kind: OutcomeCompleted, CorrelationID: correlation})
	case relay.TagCanceled:
		return c.terminal(Outcome{Kind: OutcomeCanceled})
	case relay.TagFailed:
		var reason error
		if res.Reason != "" {
			reason = errors.New(res.Reason)
		}
		return c.terminal(Outcome{Kind: OutcomeFailed, Reason: reason})
	default:
		c.cfg.Logger.Warn().
			Str("method", string(c.method)).
			Str("tag", res.Tag).
			Msg("unknown_result_tag")
		return c.terminal(Outcome{Kind: OutcomeCanceled})
	}
}

// fail records a failed attempt with the given reason.
func (c *controller) fail(reason error) Outcome {
	return c.terminal(Outcome{Kind: OutcomeFailed, Reason: reason})
}

// unavailable records that the method cannot run on this device.
func (c *controller) unavailable(reason error) Outcome {
	return c.terminal(Outcome{Kind: OutcomeUnavailable, Reason: reason})
}

// terminal sets the final state, records the outcome metric and returns the
// outcome unchanged. Callers must route every exit through it exactly once.
func (c *controller) terminal(out Outcome) Outcome {
	switch out.Kind {
	case OutcomeCompleted:
		c.state = StateCompleted
	case OutcomeCanceled:
		c.state = StateCanceled
	case OutcomeFailed:
		c.state = StateFailed
	case OutcomeUnavailable:
		c.state = StateUnavailable
	}
	if obs.PresentationOutcomeTotal != nil {
		obs.PresentationOutcomeTotal.WithLabelValues(string(c.method), out.Kind.String()).Inc()
	}
	ev := c.cfg.Logger.Info()
	if out.Kind == OutcomeFailed {
		ev = c.cfg.Logger.Error().Err(out.Reason)
	}
	ev.Str("method", string(c.method)).
		Str("outcome", out.Kind.String()).
		Msg("presentation_finished")
	return out
}

// consumeCompletion drains the relay completion event so the ticket closes
// cleanly. The SDK result already settled the outcome, so a missing event is
// logged and tolerated.
func (c *controller) consumeCompletion(ctx context.Context, ticket *relay.Ticket) {
	wctx, cancel := context.WithTimeout(ctx, completionGrace)
	defer cancel()
	if _, err := ticket.Wait(wctx); err != nil {
		c.cfg.Logger.Warn().
			Str("method", string(c.method)).
			Msg("completion_event_missing")
	}
}

package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/technyks/checkout/internal/config"
	"github.com/technyks/checkout/internal/intentclient"
	"github.com/technyks/checkout/internal/obs"
	"github.com/technyks/checkout/internal/present"
	"github.com/technyks/checkout/internal/relay"
)

// Exercises all four presentation methods against a running intent service
// using the simulated device SDK.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", "info").With().Str("component", "demo").Logger()

	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}

	hub := relay.NewHub()
	sdk := present.NewSimSDK(hub)
	sessionID := uuid.NewString()

	req := present.PaymentRequest{
		PayerName:  "Abhijith",
		PayerEmail: "abhijith@example.com",
		Amount:     100,
		Currency:   "inr",
	}

	runs := []struct {
		name string
		run  func(context.Context, present.PaymentRequest) present.Outcome
	}{
		{"sheet", func(ctx context.Context, r present.PaymentRequest) present.Outcome {
			return present.NewSheet(controllerConfig(cfg, baseURL, hub, sdk, sessionID, logger)).Run(ctx, r)
		}},
		{"flow", func(ctx context.Context, r present.PaymentRequest) present.Outcome {
			return present.NewFlow(controllerConfig(cfg, baseURL, hub, sdk, sessionID, logger)).Run(ctx, r)
		}},
		{"applepay", func(ctx context.Context, r present.PaymentRequest) present.Outcome {
			return present.NewApplePay(controllerConfig(cfg, baseURL, hub, sdk, sessionID, logger)).Run(ctx, r)
		}},
		{"googlepay", func(ctx context.Context, r present.PaymentRequest) present.Outcome {
			return present.NewGooglePay(controllerConfig(cfg, baseURL, hub, sdk, sessionID, logger)).Run(ctx, r)
		}},
	}

	failed := false
	for _, attempt := range runs {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.PresentTimeout+cfg.ConfirmTimeout+cfg.IntentRequestTimeout)
		out := attempt.run(ctx, req)
		cancel()

		ev := logger.Info()
		if out.Kind == present.OutcomeFailed {
			ev = logger.Error().Err(out.Reason)
			failed = true
		}
		ev.Str("attempt", attempt.name).
			Str("outcome", out.Kind.String()).
			Str("correlation_id", out.CorrelationID).
			Msg("attempt_finished")
	}
	if failed {
		os.Exit(1)
	}
}

func controllerConfig(cfg *config.Config, baseURL string, hub *relay.Hub, sdk *present.SimSDK, sessionID string, logger zerolog.Logger) present.Config {
	client := intentclient.New(baseURL, cfg.IntentRequestTimeout, logger)
	client.SessionID = sessionID
	client.AttemptID = uuid.NewString()
	return present.Config{
		Intents:             client,
		SDK:                 sdk,
		Events:              hub,
		Logger:              logger,
		MerchantDisplayName: cfg.MerchantDisplayName,
		MerchantIdentifier:  cfg.MerchantIdentifier,
		CountryCode:         cfg.CountryCode,
		CurrencyCode:        cfg.CurrencyCode,
		PresentTimeout:      cfg.PresentTimeout,
		ConfirmTimeout:      cfg.ConfirmTimeout,
	}
}

package processor

import (
	"context"
	"errors"
	"strings"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// Stripe implements the API interface against the Stripe REST API using the
// official client.
type Stripe struct {
	sc *client.API
}

// NewStripe constructs a Stripe-backed processor with the given secret key.
func NewStripe(secretKey string) (*Stripe, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("processor: stripe secret key is required")
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{sc: sc}, nil
}

// CreateCustomer mints a new customer record. One customer is created per
// charge attempt; there is no lookup or reuse.
func (s *Stripe) CreateCustomer(ctx context.Context, p CustomerParams) (Customer, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(p.Name),
		Email: stripe.String(p.Email),
	}
	params.Context = ctx
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	cus, err := s.sc.Customers.New(params)
	if err != nil {
		return Customer{}, err
	}
	return Customer{ID: cus.ID}, nil
}

// CreateEphemeralKey issues a customer-scoped key pinned to the given API version.
func (s *Stripe) CreateEphemeralKey(ctx context.Context, p EphemeralKeyParams) (EphemeralKey, error) {
	params := &stripe.EphemeralKeyParams{
		Customer:      stripe.String(p.CustomerID),
		StripeVersion: stripe.String(p.APIVersion),
	}
	params.Context = ctx
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	key, err := s.sc.EphemeralKeys.New(params)
	if err != nil {
		return EphemeralKey{}, err
	}
	return EphemeralKey{Secret: key.Secret, APIVersion: p.APIVersion}, nil
}

// CreatePaymentIntent opens the charge attempt for the customer.
func (s *Stripe) CreatePaymentIntent(ctx context.Context, p IntentParams) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		Customer: stripe.String(p.CustomerID),
	}
	if p.AutomaticPaymentMethods {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}
	params.Context = ctx
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, err
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

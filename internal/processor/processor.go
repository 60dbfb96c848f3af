package processor

import "context"

// Customer is the processor-side payer record minted for one charge attempt.
type Customer struct {
	ID string
}

// EphemeralKey is the short-lived credential scoped to a single customer.
// The secret must not be persisted or logged beyond the attempt's lifetime.
type EphemeralKey struct {
	Secret     string
	APIVersion string
}

// Intent is the processor-side record representing one charge attempt.
type Intent struct {
	ID           string
	ClientSecret string
}

// CustomerParams captures the information required to create a customer.
type CustomerParams struct {
	Name           string
	Email          string
	IdempotencyKey string
}

// EphemeralKeyParams scopes a new ephemeral key to an existing customer
// under a pinned API version.
type EphemeralKeyParams struct {
	CustomerID     string
	APIVersion     string
	IdempotencyKey string
}

// IntentParams describes the charge attempt to open.
type IntentParams struct {
	Amount                  int64
	Currency                string
	CustomerID              string
	AutomaticPaymentMethods bool
	IdempotencyKey          string
}

// API abstracts the operations required from the upstream payment processor.
// The contents of the returned secrets are opaque to this system.
type API interface {
	CreateCustomer(ctx context.Context, p CustomerParams) (Customer, error)
	CreateEphemeralKey(ctx context.Context, p EphemeralKeyParams) (EphemeralKey, error)
	CreatePaymentIntent(ctx context.Context, p IntentParams) (Intent, error)
}

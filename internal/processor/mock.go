package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Mock is a deterministic in-memory processor. The real implementation talks
// to Stripe, but for tests and local development we synthesise tokens in the
// same shape so the rest of the flow behaves identically.
type Mock struct {
	mu sync.Mutex

	// FailCustomer, FailEphemeralKey and FailIntent script a failure for the
	// corresponding step. The first failing step aborts the call sequence.
	FailCustomer     error
	FailEphemeralKey error
	FailIntent       error

	customers int
	keys      int
	intents   int

	// Observed inputs for assertions.
	CustomerCalls []CustomerParams
	KeyCalls      []EphemeralKeyParams
	IntentCalls   []IntentParams
}

// CreateCustomer synthesises a customer id of the cus_ shape.
func (m *Mock) CreateCustomer(_ context.Context, p CustomerParams) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CustomerCalls = append(m.CustomerCalls, p)
	if m.FailCustomer != nil {
		return Customer{}, m.FailCustomer
	}
	if strings.TrimSpace(p.Email) == "" {
		return Customer{}, errors.New("processor: email is required")
	}
	m.customers++
	return Customer{ID: fmt.Sprintf("cus_Mock%06d", m.customers)}, nil
}

// CreateEphemeralKey synthesises a key secret scoped to the given customer.
func (m *Mock) CreateEphemeralKey(_ context.Context, p EphemeralKeyParams) (EphemeralKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KeyCalls = append(m.KeyCalls, p)
	if m.FailEphemeralKey != nil {
		return EphemeralKey{}, m.FailEphemeralKey
	}
	if strings.TrimSpace(p.CustomerID) == "" {
		return EphemeralKey{}, errors.New("processor: customer id is required")
	}
	m.keys++
	return EphemeralKey{
		Secret:     fmt.Sprintf("ek_test_%s_%06d", p.CustomerID, m.keys),
		APIVersion: p.APIVersion,
	}, nil
}

// CreatePaymentIntent synthesises a client secret in the pi_<id>_secret_<nonce>
// shape so correlation-id handling downstream is exercised for real.
func (m *Mock) CreatePaymentIntent(_ context.Context, p IntentParams) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IntentCalls = append(m.IntentCalls, p)
	if m.FailIntent != nil {
		return Intent{}, m.FailIntent
	}
	if strings.TrimSpace(p.CustomerID) == "" {
		return Intent{}, errors.New("processor: customer id is required")
	}
	if p.Amount < 0 {
		return Intent{}, errors.New("processor: amount must not be negative")
	}
	m.intents++
	id := fmt.Sprintf("pi_Mock%06d", m.intents)
	return Intent{
		ID:           id,
		ClientSecret: fmt.Sprintf("%s_secret_%06d", id, m.intents),
	}, nil
}

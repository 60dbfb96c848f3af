package present

import (
	"context"
	"sync"
	"time"

	"github.com/technyks/checkout/internal/relay"
)

// SimSDK is a scriptable in-process stand-in for the device payment SDK. It
// emits relay events for terminal results the way the native layer notifies
// listeners, then returns the same result from the presentation call.
type SimSDK struct {
	mu sync.Mutex

	Hub *relay.Hub

	ApplePaySupported  bool
	GooglePaySupported bool
	ProbeErr           error

	// Per-method scripted results; the zero value presents as completed.
	SheetResult     Result
	FlowResult      Result
	ApplePayResult  Result
	GooglePayResult Result

	// CreateErr fails every create call when set.
	CreateErr error
	// PresentDelay stalls presentation calls, honoring the context.
	PresentDelay time.Duration
	// Card is returned by the flow present step.
	Card CardSummary

	SheetOpts  SheetOptions
	FlowOpts   FlowOptions
	WalletOpts WalletOptions

	sheetCreated  bool
	flowCreated   bool
	flowPresented bool
	walletCreated bool
	presentCalls  int
	confirmCalls  int
}

// NewSimSDK returns a simulator that completes every method.
func NewSimSDK(hub *relay.Hub) *SimSDK {
	return &SimSDK{
		Hub:                hub,
		ApplePaySupported:  true,
		GooglePaySupported: true,
		Card:               CardSummary{Brand: "visa", MaskedNumber: "···· 4242"},
	}
}

// PresentCalls reports how many presentation calls have run.
func (s *SimSDK) PresentCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presentCalls
}

// ConfirmCalls reports how many flow confirmations have run.
func (s *SimSDK) ConfirmCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmCalls
}

func (s *SimSDK) settle(ctx context.Context, method Method, res Result) (Result, error) {
	if s.PresentDelay > 0 {
		select {
		case <-time.After(s.PresentDelay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	if res.Tag == "" {
		res.Tag = relay.TagCompleted
	}
	if s.Hub != nil {
		s.Hub.Emit(relay.Event{Method: string(method), Tag: res.Tag, Reason: res.Reason})
	}
	return res, nil
}

func (s *SimSDK) CreatePaymentSheet(_ context.Context, opts SheetOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.SheetOpts = opts
	s.sheetCreated = true
	return nil
}

func (s *SimSDK) PresentPaymentSheet(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if !s.sheetCreated {
		s.mu.Unlock()
		return Result{}, ErrNotPresented
	}
	s.presentCalls++
	res := s.SheetResult
	s.mu.Unlock()
	return s.settle(ctx, MethodSheet, res)
}

func (s *SimSDK) CreatePaymentFlow(_ context.Context, opts FlowOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.FlowOpts = opts
	s.flowCreated = true
	return nil
}

func (s *SimSDK) PresentPaymentFlow(ctx context.Context) (CardSummary, error) {
	s.mu.Lock()
	created := s.flowCreated
	s.mu.Unlock()
	if !created {
		return CardSummary{}, ErrNotPresented
	}
	if s.PresentDelay > 0 {
		select {
		case <-time.After(s.PresentDelay):
		case <-ctx.Done():
			return CardSummary{}, ctx.Err()
		}
	}
	s.mu.Lock()
	s.presentCalls++
	s.flowPresented = true
	card := s.Card
	s.mu.Unlock()
	return card, nil
}

func (s *SimSDK) ConfirmPaymentFlow(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if !s.flowPresented {
		s.mu.Unlock()
		return Result{}, ErrNotPresented
	}
	s.confirmCalls++
	res := s.FlowResult
	s.mu.Unlock()
	return s.settle(ctx, MethodFlow, res)
}

func (s *SimSDK) IsApplePayAvailable(context.Context) (bool, error) {
	if s.ProbeErr != nil {
		return false, s.ProbeErr
	}
	return s.ApplePaySupported, nil
}

func (s *SimSDK) CreateApplePay(_ context.Context, opts WalletOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.WalletOpts = opts
	s.walletCreated = true
	return nil
}

func (s *SimSDK) PresentApplePay(ctx context.Context) (Result, error) {
	s.mu.Lock()
	s.presentCalls++
	res := s.ApplePayResult
	s.mu.Unlock()
	return s.settle(ctx, MethodApplePay, res)
}

func (s *SimSDK) IsGooglePayAvailable(context.Context) (bool, error) {
	if s.ProbeErr != nil {
		return false, s.ProbeErr
	}
	return s.GooglePaySupported, nil
}

func (s *SimSDK) CreateGooglePay(_ context.Context, opts WalletOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.WalletOpts = opts
	s.walletCreated = true
	return nil
}

func (s *SimSDK) PresentGooglePay(ctx context.Context) (Result, error) {
	s.mu.Lock()
	s.presentCalls++
	res := s.GooglePayResult
	s.mu.Unlock()
	return s.settle(ctx, MethodGooglePay, res)
}

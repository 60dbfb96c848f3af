package present

import "context"

// Result is the raw outcome tag reported by the payment SDK after a
// presentation or confirmation step. Tag values follow the relay event tags.
type Result struct {
	Tag    string
	Reason string
}

// CardSummary describes the payment method a flow presentation collected,
// shown to the payer before the explicit confirm step.
type CardSummary struct {
	Brand        string
	MaskedNumber string
}

// SheetOptions configures a payment sheet before it is shown.
type SheetOptions struct {
	ClientSecret        string
	CustomerID          string
	EphemeralKeySecret  string
	MerchantDisplayName string
}

// FlowOptions configures a two-step payment flow before it is shown.
type FlowOptions struct {
	ClientSecret        string
	CustomerID          string
	EphemeralKeySecret  string
	MerchantDisplayName string
}

// WalletLineItem is one row of the summary a wallet sheet displays.
// Amount is in the smallest currency unit.
type WalletLineItem struct {
	Label  string
	Amount int64
}

// WalletOptions configures an Apple Pay or Google Pay presentation.
type WalletOptions struct {
	ClientSecret       string
	MerchantIdentifier string
	CountryCode        string
	CurrencyCode       string
	SummaryItems       []WalletLineItem
}

// SDK abstracts the device payment SDK. Implementations emit relay events for
// terminal results in addition to returning them, mirroring how the native
// layer notifies listeners.
type SDK interface {
	CreatePaymentSheet(ctx context.Context, opts SheetOptions) error
	PresentPaymentSheet(ctx context.Context) (Result, error)

	CreatePaymentFlow(ctx context.Context, opts FlowOptions) error
	PresentPaymentFlow(ctx context.Context) (CardSummary, error)
	ConfirmPaymentFlow(ctx context.Context) (Result, error)

	IsApplePayAvailable(ctx context.Context) (bool, error)
	CreateApplePay(ctx context.Context, opts WalletOptions) error
	PresentApplePay(ctx context.Context) (Result, error)

	IsGooglePayAvailable(ctx context.Context) (bool, error)
	CreateGooglePay(ctx context.Context, opts WalletOptions) error
	PresentGooglePay(ctx context.Context) (Result, error)
}

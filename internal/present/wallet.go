package present

import "context"

// walletOps binds the availability probe and SDK calls of one wallet method.
type walletOps struct {
	available func(context.Context) (bool, error)
	create    func(context.Context, WalletOptions) error
	present   func(context.Context) (Result, error)
}

// ApplePayController drives an Apple Pay attempt. The availability probe runs
// before any network call; an unsupported device short-circuits silently.
type ApplePayController struct {
	controller
}

func NewApplePay(cfg Config) *ApplePayController {
	return &ApplePayController{controller: newController(cfg, MethodApplePay)}
}

func (c *ApplePayController) Run(ctx context.Context, req PaymentRequest) Outcome {
	return c.runWallet(ctx, req, walletOps{
		available: c.cfg.SDK.IsApplePayAvailable,
		create:    c.cfg.SDK.CreateApplePay,
		present:   c.cfg.SDK.PresentApplePay,
	})
}

// GooglePayController drives a Google Pay attempt with the same availability
// gate as Apple Pay.
type GooglePayController struct {
	controller
}

func NewGooglePay(cfg Config) *GooglePayController {
	return &GooglePayController{controller: newController(cfg, MethodGooglePay)}
}

func (c *GooglePayController) Run(ctx context.Context, req PaymentRequest) Outcome {
	return c.runWallet(ctx, req, walletOps{
		available: c.cfg.SDK.IsGooglePayAvailable,
		create:    c.cfg.SDK.CreateGooglePay,
		present:   c.cfg.SDK.PresentGooglePay,
	})
}

func (c *controller) runWallet(ctx context.Context, req PaymentRequest, ops walletOps) Outcome {
	if !c.begin() {
		return Outcome{Kind: OutcomeFailed, Reason: ErrControllerUsed}
	}

	ok, err := ops.available(ctx)
	if err != nil || !ok {
		// A failed probe counts as unavailable, not as an error.
		return c.unavailable(err)
	}
	c.state = StateAvailabilityChecked

	ticket := c.cfg.Events.Subscribe(string(c.method))
	defer ticket.Close()

	triple, err := c.requestIntent(ctx, req)
	if err != nil {
		return c.fail(err)
	}

	opts := WalletOptions{
		ClientSecret:       triple.ClientSecret,
		MerchantIdentifier: c.cfg.MerchantIdentifier,
		CountryCode:        c.cfg.CountryCode,
		CurrencyCode:       c.cfg.CurrencyCode,
		SummaryItems: []WalletLineItem{
			{Label: c.cfg.MerchantDisplayName, Amount: req.Amount},
		},
	}
	if err := ops.create(ctx, opts); err != nil {
		return c.fail(err)
	}
	c.state = StatePrepared

	c.state = StatePresented
	res, err := c.present(ctx, ops.present)
	if err != nil {
		return c.fail(err)
	}

	return c.finish(ctx, ticket, triple.ClientSecret, res)
}

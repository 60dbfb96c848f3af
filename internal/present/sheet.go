package present

import "context"

// SheetController drives a single-step payment sheet attempt: the sheet
// collects the payment method and confirms in one presentation.
type SheetController struct {
	controller
}

func NewSheet(cfg Config) *SheetController {
	return &SheetController{controller: newController(cfg, MethodSheet)}
}

// Run executes one payment sheet attempt and returns its terminal outcome.
func (c *SheetController) Run(ctx context.Context, req PaymentRequest) Outcome {
	if !c.begin() {
		return Outcome{Kind: OutcomeFailed, Reason: ErrControllerUsed}
	}

	ticket := c.cfg.Events.Subscribe(string(MethodSheet))
	defer ticket.Close()

	triple, err := c.requestIntent(ctx, req)
	if err != nil {
		return c.fail(err)
	}

	opts := SheetOptions{
		ClientSecret:        triple.ClientSecret,
		CustomerID:          triple.CustomerID,
		EphemeralKeySecret:  triple.EphemeralSecret,
		MerchantDisplayName: c.cfg.MerchantDisplayName,
	}
	if err := c.cfg.SDK.CreatePaymentSheet(ctx, opts); err != nil {
		return c.fail(err)
	}
	c.state = StatePrepared

	c.state = StatePresented
	res, err := c.present(ctx, c.cfg.SDK.PresentPaymentSheet)
	if err != nil {
		return c.fail(err)
	}

	return c.finish(ctx, ticket, triple.ClientSecret, res)
}

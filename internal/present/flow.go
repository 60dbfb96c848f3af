package present

import (
	"context"
	"errors"
)

// FlowController drives a two-step flow attempt: presenting collects the
// payment method, then an explicit confirm charges it.
type FlowController struct {
	controller
	confirmPending bool
	card           CardSummary
}

func NewFlow(cfg Config) *FlowController {
	return &FlowController{controller: newController(cfg, MethodFlow)}
}

// ConfirmPending reports whether the flow collected a payment method and is
// waiting on the confirm step.
func (c *FlowController) ConfirmPending() bool { return c.confirmPending }

// Card returns the payment method summary collected by the present step.
func (c *FlowController) Card() CardSummary { return c.card }

// Run executes one flow attempt: present to collect, then confirm to charge.
func (c *FlowController) Run(ctx context.Context, req PaymentRequest) Outcome {
	if !c.begin() {
		return Outcome{Kind: OutcomeFailed, Reason: ErrControllerUsed}
	}

	ticket := c.cfg.Events.Subscribe(string(MethodFlow))
	defer ticket.Close()

	triple, err := c.requestIntent(ctx, req)
	if err != nil {
		return c.fail(err)
	}

	opts := FlowOptions{
		ClientSecret:        triple.ClientSecret,
		CustomerID:          triple.CustomerID,
		EphemeralKeySecret:  triple.EphemeralSecret,
		MerchantDisplayName: c.cfg.MerchantDisplayName,
	}
	if err := c.cfg.SDK.CreatePaymentFlow(ctx, opts); err != nil {
		return c.fail(err)
	}
	c.state = StatePrepared

	c.state = StatePresented
	pctx, cancel := context.WithTimeout(ctx, c.cfg.PresentTimeout)
	card, err := c.cfg.SDK.PresentPaymentFlow(pctx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.fail(ErrPresentTimeout)
		}
		return c.fail(err)
	}
	c.card = card
	c.confirmPending = true
	c.cfg.Logger.Info().
		Str("method", string(MethodFlow)).
		Str("brand", card.Brand).
		Str("card", card.MaskedNumber).
		Msg("flow_method_selected")

	cctx, cancel := context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
	res, err := c.cfg.SDK.ConfirmPaymentFlow(cctx)
	cancel()
	c.confirmPending = false
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.fail(ErrConfirmTimeout)
		}
		return c.fail(err)
	}

	return c.finish(ctx, ticket, triple.ClientSecret, res)
}

package intent

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	stripe "github.com/stripe/stripe-go/v74"

	"github.com/technyks/checkout/internal/common"
	"github.com/technyks/checkout/internal/obs"
	"github.com/technyks/checkout/internal/session"
)

// Handler exposes the payment-sheet endpoint consumed by the mobile client.
type Handler struct {
	Svc   *Service
	Guard *session.Guard
}

type sheetReq struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

type sheetResp struct {
	PaymentIntent string `json:"paymentIntent"`
	EphemeralKey  string `json:"ephemeralKey"`
	Customer      string `json:"customer"`
}

// PaymentSheet mints the customer, ephemeral key and payment intent for one
// charge attempt and returns the three secrets. The response is all-or-nothing.
func (h *Handler) PaymentSheet(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTENT_NOT_CONFIGURED", "intent handler unavailable", nil)
		return
	}
	var req sheetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	amount, err := req.Amount.Int64()
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "amount must be an integer in minor units", nil)
		return
	}

	// At most one outstanding intent request per checkout session. The
	// processor itself provides no such guard and would mint duplicates.
	if sessionID := strings.TrimSpace(r.Header.Get("X-Checkout-Session")); sessionID != "" && h.Guard != nil {
		release, err := h.Guard.Acquire(r.Context(), sessionID)
		if errors.Is(err, session.ErrSessionBusy) {
			if obs.SessionGuardRejections != nil {
				obs.SessionGuardRejections.Inc()
			}
			common.JSONError(w, http.StatusConflict, "SESSION_BUSY", "an intent request for this session is already in progress", nil)
			return
		}
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "SESSION_GUARD_ERROR", "session guard unavailable", nil)
			return
		}
		defer release()
	}

	triple, err := h.Svc.CreateIntent(r.Context(), CreateIntentParams{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Amount:    amount,
		Currency:  strings.TrimSpace(req.Currency),
		AttemptID: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	})
	if err != nil {
		writeIntentError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, sheetResp{
		PaymentIntent: triple.ClientSecret,
		EphemeralKey:  triple.EphemeralSecret,
		Customer:      triple.CustomerID,
	})
}

func writeIntentError(w http.ResponseWriter, err error) {
	appErr := asAppError(err)
	common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
}

// asAppError maps intent creation failures onto the wire error surface.
func asAppError(err error) *common.AppError {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return common.NewAppError("VALIDATION", "invalid payment request", http.StatusBadRequest, err).
			WithDetails(map[string]any{"error": vErr.Err.Error()})
	}
	// Processor errors are passed through with their own status when known.
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		status := sErr.HTTPStatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		return common.NewAppError("PROCESSOR_ERROR", sErr.Msg, status, err).
			WithDetails(map[string]any{"processorCode": string(sErr.Code)})
	}
	var cErr *CreationError
	if errors.As(err, &cErr) {
		return common.NewAppError("INTENT_FAILED", "payment intent creation failed", http.StatusBadGateway, err).
			WithDetails(map[string]any{"step": cErr.Step})
	}
	return common.NewAppError("INTERNAL", "unexpected error", http.StatusInternalServerError, err)
}

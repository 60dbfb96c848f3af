package present

import (
	"errors"
	"strings"

	"github.com/technyks/checkout/internal/intentclient"
)

// PaymentRequest is the immutable description of one charge attempt.
type PaymentRequest = intentclient.PaymentRequest

// Method identifies one of the four presentation methods.
type Method string

const (
	MethodSheet     Method = "sheet"
	MethodFlow      Method = "flow"
	MethodApplePay  Method = "applepay"
	MethodGooglePay Method = "googlepay"
)

// State tracks a controller through its attempt.
type State int

const (
	StateIdle State = iota
	StateAvailabilityChecked
	StatePrepared
	StatePresented
	StateCompleted
	StateCanceled
	StateFailed
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAvailabilityChecked:
		return "availability_checked"
	case StatePrepared:
		return "prepared"
	case StatePresented:
		return "presented"
	case StateCompleted:
		return "completed"
	case StateCanceled:
		return "canceled"
	case StateFailed:
		return "failed"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// OutcomeKind classifies the terminal result of an attempt. Cancellation and
// failure are reported as distinct kinds.
type OutcomeKind int

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeCanceled
	OutcomeFailed
	OutcomeUnavailable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeFailed:
		return "failed"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of one presentation attempt.
type Outcome struct {
	Kind   OutcomeKind
	Reason error
	// CorrelationID is derived from the client secret on completion.
	CorrelationID string
}

var (
	// ErrControllerUsed is returned when a controller is run twice. A fresh
	// controller is required per attempt.
	ErrControllerUsed = errors.New("present: controller already used")
	// ErrPresentTimeout marks a presentation that exceeded its deadline.
	ErrPresentTimeout = errors.New("present: presentation timed out")
	// ErrConfirmTimeout marks a flow confirmation that exceeded its deadline.
	ErrConfirmTimeout = errors.New("present: confirmation timed out")
	// ErrNotPresented is returned when a flow confirm is attempted before
	// the present step collected payment details.
	ErrNotPresented = errors.New("present: flow not presented")
)

// CorrelationID derives the short reconciliation id from a payment intent
// client secret: the first two underscore-separated segments rejoined, e.g.
// "pi_3Abc123_secret_XyZ789" becomes "pi_3Abc123".
func CorrelationID(clientSecret string) string {
	parts := strings.Split(clientSecret, "_")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "_")
}

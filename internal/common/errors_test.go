package common_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/technyks/checkout/internal/common"
)

func TestAppErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := common.NewAppError("INTENT_FAILED", "payment intent creation failed", http.StatusBadGateway, cause)

	require.EqualError(t, appErr, "connection refused")
	require.ErrorIs(t, appErr, cause)
	require.True(t, common.IsAppError(fmt.Errorf("create intent: %w", appErr)))
	require.False(t, common.IsAppError(cause))
}

func TestAppErrorMessageWithoutCause(t *testing.T) {
	appErr := common.NewAppError("VALIDATION", "invalid payment request", http.StatusBadRequest, nil)
	require.EqualError(t, appErr, "invalid payment request")
}

func TestAppErrorWithDetails(t *testing.T) {
	appErr := common.NewAppError("PROCESSOR_ERROR", "card declined", http.StatusPaymentRequired, nil).
		WithDetails(map[string]any{"processorCode": "card_declined"})
	require.Equal(t, map[string]any{"processorCode": "card_declined"}, appErr.Details)
	require.Equal(t, http.StatusPaymentRequired, appErr.HTTPStatus)
}

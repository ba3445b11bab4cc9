//go:build !integration

package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestPaymentError(t *testing.T) {
	t.Run("error string carries provider, type and code", func(t *testing.T) {
		err := ValidationError("mock-in", CodeInvalidAmount, "amount must be positive, got %d", -5)

		want := "mock-in [validation/INVALID_AMOUNT]: amount must be positive, got -5"
		if err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
		if NewPaymentError(CodeTimeout, "slow", ErrorTypeNetwork, "").Error() != "[network/TIMEOUT]: slow" {
			t.Error("unexpected format without provider")
		}
	})

	t.Run("errors.Is matches on code through wrapping", func(t *testing.T) {
		// --- Arrange ---
		base := AuthenticationError("stripe-us", CodeInvalidSignature, "bad signature")
		wrapped := fmt.Errorf("webhook: %w", base)

		// --- Act & Assert ---
		if !errors.Is(wrapped, &PaymentError{Code: CodeInvalidSignature}) {
			t.Error("expected code match")
		}
		if errors.Is(wrapped, &PaymentError{Code: CodeInvalidPayload}) {
			t.Error("different code must not match")
		}
		if errors.Is(wrapped, &PaymentError{}) {
			t.Error("empty code must not match")
		}
	})

	t.Run("helpers unwrap", func(t *testing.T) {
		err := fmt.Errorf("confirm: %w", NetworkError("mock-in", CodeTimeout, "deadline"))

		pe, ok := AsPaymentError(err)
		if !ok || pe.ProviderID != "mock-in" {
			t.Fatalf("expected payment error, got %v", err)
		}
		if ErrorCode(err) != CodeTimeout || ErrorTypeOf(err) != ErrorTypeNetwork || !IsCode(err, CodeTimeout) {
			t.Error("helpers disagree with the wrapped error")
		}
	})

	t.Run("helpers on foreign errors", func(t *testing.T) {
		err := errors.New("boom")

		if _, ok := AsPaymentError(err); ok {
			t.Error("plain error is not a payment error")
		}
		if ErrorCode(err) != "" || ErrorTypeOf(err) != "" || IsCode(err, CodeTimeout) {
			t.Error("expected empty code and type")
		}
	})

	t.Run("WithDetail attaches details", func(t *testing.T) {
		err := ValidationError("mock-in", CodeRefundExceedsAmount, "too much").
			WithDetail("requested", int64(500)).
			WithDetail("refundable", int64(200))

		if err.Details["requested"] != int64(500) || err.Details["refundable"] != int64(200) {
			t.Errorf("unexpected details %v", err.Details)
		}
	})
}

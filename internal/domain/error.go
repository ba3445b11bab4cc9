package domain

import (
	"errors"
	"fmt"
)

// ErrorType is the coarse category of a PaymentError. Callers branch on it
// together with Code; Message is diagnostic only.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeProcessing     ErrorType = "processing"
	ErrorTypeNetwork        ErrorType = "network"
)

// Stable machine-readable error codes.
const (
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeUnsupportedCurrency    = "UNSUPPORTED_CURRENCY"
	CodeIntentNotFound         = "INTENT_NOT_FOUND"
	CodeTransactionNotFound    = "TRANSACTION_NOT_FOUND"
	CodeSubscriptionNotFound   = "SUBSCRIPTION_NOT_FOUND"
	CodePaymentMethodNotFound  = "PAYMENT_METHOD_NOT_FOUND"
	CodeInvalidSignature       = "INVALID_SIGNATURE"
	CodeNotInitialized         = "NOT_INITIALIZED"
	CodeProviderMismatch       = "PROVIDER_MISMATCH"
	CodeMissingUserID          = "MISSING_USER_ID"
	CodeIntentAlreadyFinalized = "INTENT_ALREADY_FINALIZED"
	CodeIntentProcessing       = "INTENT_PROCESSING"
	CodeRefundExceedsAmount    = "REFUND_EXCEEDS_AMOUNT"
	CodeTransactionNotRefund   = "TRANSACTION_NOT_REFUNDABLE"
	CodeInvalidTransition      = "INVALID_STATUS_TRANSITION"
	CodeInvalidBillingTerms    = "INVALID_BILLING_TERMS"
	CodeInvalidPaymentMethod   = "INVALID_PAYMENT_METHOD"
	CodeInvalidPayload         = "INVALID_PAYLOAD"
	CodeProviderInactive       = "PROVIDER_INACTIVE"
	CodeProviderNotFound       = "PROVIDER_NOT_FOUND"
	CodeFeatureNotSupported    = "FEATURE_NOT_SUPPORTED"
	CodeTimeout                = "TIMEOUT"
)

// PaymentError is the only error kind returned by gateway operations for
// business-rule failures.
type PaymentError struct {
	Code       string
	Message    string
	Type       ErrorType
	ProviderID string
	Details    map[string]any
}

func (e *PaymentError) Error() string {
	if e.ProviderID != "" {
		return fmt.Sprintf("%s [%s/%s]: %s", e.ProviderID, e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s/%s]: %s", e.Type, e.Code, e.Message)
}

// Is matches on Code so errors.Is(err, &PaymentError{Code: ...}) works
// without comparing messages or providers.
func (e *PaymentError) Is(target error) bool {
	t, ok := target.(*PaymentError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithDetail returns the error with an extra detail attached.
func (e *PaymentError) WithDetail(key string, value any) *PaymentError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func NewPaymentError(code, message string, typ ErrorType, providerID string) *PaymentError {
	return &PaymentError{Code: code, Message: message, Type: typ, ProviderID: providerID}
}

func ValidationError(providerID, code, format string, args ...any) *PaymentError {
	return NewPaymentError(code, fmt.Sprintf(format, args...), ErrorTypeValidation, providerID)
}

func AuthenticationError(providerID, code, format string, args ...any) *PaymentError {
	return NewPaymentError(code, fmt.Sprintf(format, args...), ErrorTypeAuthentication, providerID)
}

func NetworkError(providerID, code, format string, args ...any) *PaymentError {
	return NewPaymentError(code, fmt.Sprintf(format, args...), ErrorTypeNetwork, providerID)
}

// AsPaymentError unwraps err into a *PaymentError if it is one.
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ErrorCode returns the code of a PaymentError, or "" for any other error.
func ErrorCode(err error) string {
	if pe, ok := AsPaymentError(err); ok {
		return pe.Code
	}
	return ""
}

// ErrorTypeOf returns the type of a PaymentError, or "" for any other error.
func ErrorTypeOf(err error) ErrorType {
	if pe, ok := AsPaymentError(err); ok {
		return pe.Type
	}
	return ""
}

func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing" // confirmation in flight
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// IsTerminal reports whether confirmation is no longer possible.
// Refunded states descend from succeeded and are terminal as well.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled,
		PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

type PaymentMetadata struct {
	UserID         string            `json:"user_id"`
	CarePlanID     string            `json:"care_plan_id,omitempty"`
	SubscriptionID string            `json:"subscription_id,omitempty"`
	Description    string            `json:"description,omitempty"`
	Custom         map[string]string `json:"custom,omitempty"`
}

func (m PaymentMetadata) Clone() PaymentMetadata {
	m.Custom = cloneStrings(m.Custom)
	return m
}

// CreatePaymentIntentRequest carries the input of CreatePaymentIntent.
type CreatePaymentIntentRequest struct {
	Amount     int64           `json:"amount"` // smallest currency unit
	Currency   string          `json:"currency"`
	ProviderID string          `json:"provider_id"`
	Metadata   PaymentMetadata `json:"metadata"`
}

// PaymentIntent is one attempt to collect Amount in Currency.
type PaymentIntent struct {
	ID              string          `json:"id"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	ProviderID      string          `json:"provider_id"`
	Status          PaymentStatus   `json:"status"`
	PaymentMethodID string          `json:"payment_method_id,omitempty"`
	RefundedAmount  int64           `json:"refunded_amount"`
	Metadata        PaymentMetadata `json:"metadata"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (pi *PaymentIntent) Clone() *PaymentIntent {
	if pi == nil {
		return nil
	}
	cp := *pi
	cp.Metadata = pi.Metadata.Clone()
	return &cp
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

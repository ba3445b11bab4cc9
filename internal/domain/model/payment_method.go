package model

import (
	"strings"
	"time"
)

type PaymentMethodType string

const (
	PaymentMethodCard        PaymentMethodType = "card"
	PaymentMethodBankAccount PaymentMethodType = "bank_account"
	PaymentMethodWallet      PaymentMethodType = "wallet"
	PaymentMethodUPI         PaymentMethodType = "upi"
)

func (t PaymentMethodType) Valid() bool {
	switch t {
	case PaymentMethodCard, PaymentMethodBankAccount, PaymentMethodWallet, PaymentMethodUPI:
		return true
	}
	return false
}

// PaymentMethodDetails only ever holds masked instrument data.
type PaymentMethodDetails struct {
	Last4          string `json:"last4,omitempty"`
	Brand          string `json:"brand,omitempty"`
	ExpiryMonth    int    `json:"expiry_month,omitempty"`
	ExpiryYear     int    `json:"expiry_year,omitempty"`
	HolderName     string `json:"holder_name,omitempty"`
	BankName       string `json:"bank_name,omitempty"`
	UPIHandle      string `json:"upi_handle,omitempty"`
	WalletProvider string `json:"wallet_provider,omitempty"`
}

// PaymentMethodData is the input of CreatePaymentMethod. Number, when set,
// is reduced to its last four digits and dropped.
type PaymentMethodData struct {
	Type      PaymentMethodType    `json:"type"`
	Number    string               `json:"number,omitempty"`
	Details   PaymentMethodDetails `json:"details"`
	IsDefault bool                 `json:"is_default"`
}

// MaskedDetails returns Details with Last4 derived from Number if present.
func (d PaymentMethodData) MaskedDetails() PaymentMethodDetails {
	out := d.Details
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, d.Number)
	if len(digits) >= 4 {
		out.Last4 = digits[len(digits)-4:]
	}
	return out
}

type PaymentMethod struct {
	ID         string               `json:"id"`
	UserID     string               `json:"user_id"`
	ProviderID string               `json:"provider_id"`
	Type       PaymentMethodType    `json:"type"`
	Details    PaymentMethodDetails `json:"details"`
	IsDefault  bool                 `json:"is_default"`
	IsActive   bool                 `json:"is_active"`
	CreatedAt  time.Time            `json:"created_at"`
}

func (pm *PaymentMethod) Clone() *PaymentMethod {
	if pm == nil {
		return nil
	}
	cp := *pm
	return &cp
}

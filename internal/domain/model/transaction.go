package model

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	PlatformFeeRate = decimal.RequireFromString("0.02")
	ProviderFeeRate = decimal.RequireFromString("0.029")
)

type TransactionType string

const (
	TransactionTypeCharge TransactionType = "charge"
	TransactionTypeRefund TransactionType = "refund"
)

// Fees is the fee breakdown of a transaction, in the transaction currency's
// smallest unit. Values are exact decimals since percentages of integer
// amounts are generally fractional.
type Fees struct {
	PlatformFee decimal.Decimal `json:"platform_fee"`
	ProviderFee decimal.Decimal `json:"provider_fee"`
	TotalFee    decimal.Decimal `json:"total_fee"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

// ChargeFees applies the platform (2%) and provider (2.9%) rates to amount.
func ChargeFees(amount int64) Fees {
	a := decimal.NewFromInt(amount)
	platform := a.Mul(PlatformFeeRate)
	provider := a.Mul(ProviderFeeRate)
	total := platform.Add(provider)
	return Fees{
		PlatformFee: platform,
		ProviderFee: provider,
		TotalFee:    total,
		NetAmount:   a.Sub(total),
	}
}

// RefundFees carries no fees; the net amount is the (negative) refund itself.
func RefundFees(amount int64) Fees {
	return Fees{
		PlatformFee: decimal.Zero,
		ProviderFee: decimal.Zero,
		TotalFee:    decimal.Zero,
		NetAmount:   decimal.NewFromInt(amount),
	}
}

// PaymentTransaction records money that actually moved. Never mutated after
// creation; refunds are new transactions pointing at the original.
type PaymentTransaction struct {
	ID                    string            `json:"id"`
	PaymentIntentID       string            `json:"payment_intent_id"`
	Type                  TransactionType   `json:"type"`
	Amount                int64             `json:"amount"` // negative for refunds
	Currency              string            `json:"currency"`
	Status                PaymentStatus     `json:"status"`
	ProviderTransactionID string            `json:"provider_transaction_id"`
	Fees                  Fees              `json:"fees"`
	Metadata              map[string]string `json:"metadata,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	ProcessedAt           time.Time         `json:"processed_at"`
}

func (t *PaymentTransaction) Clone() *PaymentTransaction {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Metadata = cloneStrings(t.Metadata)
	return &cp
}

const MetaOriginalTransactionID = "original_transaction_id"

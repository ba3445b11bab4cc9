package adapter

import (
	"context"
	"time"

	"carepay-gateway/internal/domain/model"
)

// PaymentGateway is the hex port every provider adapter implements.
// Business failures are returned as *domain.PaymentError.
type PaymentGateway interface {
	Provider() model.PaymentProvider

	// Initialize performs the startup handshake. Must run before any other
	// mutating call; calling it again is a no-op.
	Initialize(ctx context.Context) error

	CreatePaymentIntent(ctx context.Context, req model.CreatePaymentIntentRequest) (*model.PaymentIntent, error)
	// ConfirmPaymentIntent attempts to collect the intent. paymentMethodID is optional.
	ConfirmPaymentIntent(ctx context.Context, intentID, paymentMethodID string) (*model.PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, intentID string) (*model.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*model.PaymentIntent, error)

	// RefundPayment refunds amount (full amount when nil) of a charge transaction.
	RefundPayment(ctx context.Context, transactionID string, amount *int64) (*model.PaymentTransaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*model.PaymentTransaction, error)
	ListTransactions(ctx context.Context, intentID string) ([]*model.PaymentTransaction, error)

	CreateSubscription(ctx context.Context, req model.CreateSubscriptionRequest) (*model.Subscription, error)
	UpdateSubscription(ctx context.Context, id string, upd model.SubscriptionUpdate) (*model.Subscription, error)
	CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*model.Subscription, error)
	PauseSubscription(ctx context.Context, id string) (*model.Subscription, error)
	ResumeSubscription(ctx context.Context, id string) (*model.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*model.Subscription, error)

	CreatePaymentMethod(ctx context.Context, userID string, data model.PaymentMethodData) (*model.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, id string) error
	SetDefaultPaymentMethod(ctx context.Context, userID, id string) (*model.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, userID string) ([]*model.PaymentMethod, error)

	// HandleWebhook verifies the signature before parsing anything.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
}

// PeriodAdvancer is implemented by gateways that keep subscription periods
// themselves and need an external clock tick to roll them.
type PeriodAdvancer interface {
	AdvancePeriods(ctx context.Context, now time.Time) (PeriodReport, error)
}

type PeriodReport struct {
	Renewed     int
	TrialsEnded int
	Cancelled   int
}

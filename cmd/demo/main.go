package main

import (
	"context"
	"flag"
	"log"
	"time"

	"carepay-gateway/internal/config"
	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
	"carepay-gateway/internal/domain/ports/adapter"
	payAdapters "carepay-gateway/internal/infra/adapters/payment"
	"carepay-gateway/internal/infra/logging"
)

// demo walks one provider through the main gateway flows and prints the
// results. It needs no network and no database.
func main() {
	providerID := flag.String("provider", "mock-in", "provider id to use")
	flag.Parse()

	logger := logging.New(config.LogConfig{Level: "warn", Format: "console"}, true)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg := payAdapters.NewRegistry(payAdapters.MockConstructor(payAdapters.MockOptions{
		Outcome:      payAdapters.AlwaysSucceed(),
		ConfirmDelay: 200 * time.Millisecond,
		Logger:       logger,
		Dev:          true,
	}), logger)

	gw, err := reg.CreateGateway(ctx, model.PaymentProvider{
		ID:                  *providerID,
		Name:                "Demo provider",
		Type:                model.ProviderTypeRazorpay,
		Active:              true,
		SupportedCurrencies: []string{"INR", "USD"},
		SupportedCountries:  []string{"IN"},
	})
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}

	// 1. One-off payment and a partial refund
	pi, err := gw.CreatePaymentIntent(ctx, model.CreatePaymentIntentRequest{
		Amount:   50000,
		Currency: "INR",
		Metadata: model.PaymentMetadata{UserID: "user-42", CarePlanID: "plan-family", Description: "consultation"},
	})
	if err != nil {
		log.Fatalf("create intent: %v", err)
	}
	pi, err = gw.ConfirmPaymentIntent(ctx, pi.ID, "")
	if err != nil {
		log.Fatalf("confirm: %v", err)
	}
	log.Printf("intent %s -> %s", pi.ID, pi.Status)

	txns, _ := gw.ListTransactions(ctx, pi.ID)
	charge := txns[0]
	log.Printf("charge %s amount=%d fees=%s net=%s", charge.ID, charge.Amount, charge.Fees.TotalFee, charge.Fees.NetAmount)

	part := int64(10000)
	refund, err := gw.RefundPayment(ctx, charge.ID, &part)
	if err != nil {
		log.Fatalf("refund: %v", err)
	}
	pi, _ = gw.GetPaymentIntent(ctx, pi.ID)
	log.Printf("refund %s amount=%d, intent now %s", refund.ID, refund.Amount, pi.Status)

	// 2. Errors are typed
	if _, err := gw.ConfirmPaymentIntent(ctx, pi.ID, ""); err != nil {
		log.Printf("second confirm rejected: code=%s type=%s", domain.ErrorCode(err), domain.ErrorTypeOf(err))
	}

	// 3. Payment methods, single default
	if _, err := gw.CreatePaymentMethod(ctx, "user-42", model.PaymentMethodData{
		Type: model.PaymentMethodCard, Number: "4111 1111 1111 1111", IsDefault: true,
		Details: model.PaymentMethodDetails{Brand: "visa", ExpiryMonth: 8, ExpiryYear: 2029},
	}); err != nil {
		log.Fatalf("card: %v", err)
	}
	upi, _ := gw.CreatePaymentMethod(ctx, "user-42", model.PaymentMethodData{
		Type: model.PaymentMethodUPI, Details: model.PaymentMethodDetails{UPIHandle: "user42@okbank"},
	})
	if _, err := gw.SetDefaultPaymentMethod(ctx, "user-42", upi.ID); err != nil {
		log.Fatalf("set default: %v", err)
	}
	methods, _ := gw.ListPaymentMethods(ctx, "user-42")
	for _, m := range methods {
		log.Printf("method %s type=%s last4=%q default=%v", m.ID, m.Type, m.Details.Last4, m.IsDefault)
	}

	// 4. Subscription with a trial, rolled forward by the period advancer
	sub, err := gw.CreateSubscription(ctx, model.CreateSubscriptionRequest{
		UserID:     "user-42",
		CarePlanID: "plan-family",
		Billing: model.BillingTerms{
			Amount: 99900, Currency: "INR", Interval: model.BillingIntervalMonthly, IntervalCount: 1, TrialPeriodDays: 7,
		},
	})
	if err != nil {
		log.Fatalf("subscription: %v", err)
	}
	log.Printf("subscription %s %s until %s", sub.ID, sub.Status, sub.CurrentPeriodEnd.Format(time.DateOnly))

	if pa, ok := gw.(adapter.PeriodAdvancer); ok {
		rep, err := pa.AdvancePeriods(ctx, time.Now().AddDate(0, 2, 0))
		if err != nil {
			log.Fatalf("advance: %v", err)
		}
		sub, _ = gw.GetSubscription(ctx, sub.ID)
		log.Printf("after two months: %+v -> %s until %s", rep, sub.Status, sub.CurrentPeriodEnd.Format(time.DateOnly))
	}

	// 5. Webhooks
	if _, err := gw.HandleWebhook(ctx, []byte(`{"id":"evt_1"}`), "forged"); err != nil {
		log.Printf("forged webhook rejected: %s", domain.ErrorCode(err))
	}
	res, err := gw.HandleWebhook(ctx, []byte(`{"id":"evt_2","type":"payment.captured"}`), payAdapters.MockWebhookSignature)
	if err != nil {
		log.Fatalf("webhook: %v", err)
	}
	log.Printf("webhook processed=%v event=%s/%s", res.Processed, res.Event.ID, res.Event.Type)
}

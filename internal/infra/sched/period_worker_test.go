//go:build !integration

package sched

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
	"carepay-gateway/internal/domain/ports/adapter"
	"carepay-gateway/internal/infra/adapters/payment"
)

type staticSource []adapter.PaymentGateway

func (s staticSource) Gateways() []adapter.PaymentGateway { return s }

// plainGateway hides the PeriodAdvancer extension of the wrapped gateway.
type plainGateway struct{ adapter.PaymentGateway }

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func newGateway(t *testing.T, id string, start time.Time) *payment.MockGateway {
	t.Helper()
	g := payment.NewMockGateway(model.PaymentProvider{
		ID:                  id,
		Type:                model.ProviderTypeMock,
		Active:              true,
		SupportedCurrencies: []string{"INR"},
	}, payment.MockOptions{
		Outcome: payment.AlwaysSucceed(),
		Now:     func() time.Time { return start },
		Logger:  newTestLogger(),
	})
	if err := g.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	_, err := g.CreateSubscription(context.Background(), model.CreateSubscriptionRequest{
		UserID:     "u1",
		CarePlanID: "plan-basic",
		Billing: model.BillingTerms{
			Amount: 49900, Currency: "INR", Interval: model.BillingIntervalMonthly, IntervalCount: 1,
		},
	})
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return g
}

func TestPeriodWorker_RunOnce(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

	t.Run("advances every period-keeping gateway", func(t *testing.T) {
		// --- Arrange ---
		a := newGateway(t, "a", start)
		b := newGateway(t, "b", start)
		hidden := newGateway(t, "c", start)
		w := NewPeriodWorker(time.Hour, staticSource{a, b, plainGateway{hidden}}, newTestLogger())
		w.now = func() time.Time { return start.AddDate(0, 1, 1) }

		// --- Act ---
		rep, err := w.RunOnce(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rep.Renewed != 2 {
			t.Errorf("expected two renewals, got %+v", rep)
		}
	})

	t.Run("errors of one gateway do not stop the others", func(t *testing.T) {
		ok := newGateway(t, "ok", start)
		cold := payment.NewMockGateway(model.PaymentProvider{ID: "cold", Active: true, SupportedCurrencies: []string{"INR"}},
			payment.MockOptions{Logger: newTestLogger()})
		w := NewPeriodWorker(time.Hour, staticSource{cold, ok}, newTestLogger())
		w.now = func() time.Time { return start.AddDate(0, 2, 0) }

		rep, err := w.RunOnce(ctx)

		if !domain.IsCode(err, domain.CodeNotInitialized) {
			t.Errorf("expected NOT_INITIALIZED to surface, got %v", err)
		}
		if rep.Renewed != 1 {
			t.Errorf("expected the initialized gateway to renew, got %+v", rep)
		}
	})
}

func TestPeriodWorker_RunStopsOnCancel(t *testing.T) {
	w := NewPeriodWorker(time.Hour, staticSource{}, newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

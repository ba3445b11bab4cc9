//go:build !integration

package payment

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func testProvider(id string) model.PaymentProvider {
	return model.PaymentProvider{
		ID:                  id,
		Name:                "Mock " + id,
		Type:                model.ProviderTypeMock,
		Active:              true,
		SupportedCurrencies: []string{"INR", "USD"},
		SupportedCountries:  []string{"IN", "US"},
		Features:            map[string]bool{"subscriptions": true, "refunds": true},
	}
}

// fakeClock is a settable clock for period arithmetic.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGateway(t *testing.T, outcome Outcome) (*MockGateway, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)}
	g := NewMockGateway(testProvider("mock-in"), MockOptions{
		Outcome: outcome,
		Now:     clock.Now,
		Logger:  newTestLogger(),
	})
	if err := g.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return g, clock
}

func intentRequest(amount int64, currency string) model.CreatePaymentIntentRequest {
	return model.CreatePaymentIntentRequest{
		Amount:   amount,
		Currency: currency,
		Metadata: model.PaymentMetadata{UserID: "u1", CarePlanID: "plan-basic"},
	}
}

func requireCode(t *testing.T, err error, code string, typ domain.ErrorType) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	pe, ok := domain.AsPaymentError(err)
	if !ok {
		t.Fatalf("expected *PaymentError, got %T: %v", err, err)
	}
	if pe.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, pe.Code, pe.Message)
	}
	if pe.Type != typ {
		t.Errorf("expected type %s, got %s", typ, pe.Type)
	}
}

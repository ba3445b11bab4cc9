//go:build !integration

package payment

import (
	"context"
	"testing"

	"carepay-gateway/internal/domain"
)

func TestMockGateway_HandleWebhook(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"amount":1000}}`)

	t.Run("wrong signature is rejected", func(t *testing.T) {
		g, _ := newTestGateway(t, AlwaysSucceed())

		_, err := g.HandleWebhook(ctx, payload, "wrong_sig")

		requireCode(t, err, domain.CodeInvalidSignature, domain.ErrorTypeAuthentication)
	})

	t.Run("signature is checked before parsing", func(t *testing.T) {
		g, _ := newTestGateway(t, AlwaysSucceed())

		_, err := g.HandleWebhook(ctx, []byte("not json"), "")

		requireCode(t, err, domain.CodeInvalidSignature, domain.ErrorTypeAuthentication)
	})

	t.Run("valid signature returns the parsed event", func(t *testing.T) {
		g, _ := newTestGateway(t, AlwaysSucceed())

		res, err := g.HandleWebhook(ctx, payload, MockWebhookSignature)

		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if !res.Processed {
			t.Error("expected processed")
		}
		if res.Event.ID != "evt_1" || res.Event.Type != "payment_intent.succeeded" {
			t.Errorf("unexpected event %+v", res.Event)
		}
		data, ok := res.Event.Payload["data"].(map[string]any)
		if !ok || data["amount"] != float64(1000) {
			t.Errorf("payload not preserved: %v", res.Event.Payload)
		}
	})

	t.Run("event key is used when type is absent", func(t *testing.T) {
		g, _ := newTestGateway(t, AlwaysSucceed())

		res, err := g.HandleWebhook(ctx, []byte(`{"event":"charge.success"}`), MockWebhookSignature)

		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if res.Event.Type != "charge.success" {
			t.Errorf("expected charge.success, got %q", res.Event.Type)
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		g, _ := newTestGateway(t, AlwaysSucceed())

		_, err := g.HandleWebhook(ctx, []byte("{"), MockWebhookSignature)
		requireCode(t, err, domain.CodeInvalidPayload, domain.ErrorTypeValidation)

		_, err = g.HandleWebhook(ctx, []byte("null"), MockWebhookSignature)
		requireCode(t, err, domain.CodeInvalidPayload, domain.ErrorTypeValidation)
	})

	t.Run("verify is a pure predicate", func(t *testing.T) {
		g := NewMockGateway(testProvider("p"), MockOptions{Logger: newTestLogger()})

		if !g.VerifyWebhookSignature(nil, "mock_signature") {
			t.Error("sentinel signature should verify without initialization")
		}
		if g.VerifyWebhookSignature(payload, "mock_signature ") {
			t.Error("near-miss signature must not verify")
		}
	})
}

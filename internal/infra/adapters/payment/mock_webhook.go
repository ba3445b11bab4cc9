package payment

import (
	"context"
	"crypto/subtle"
	"encoding/json"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
	"carepay-gateway/internal/infra/logging"
	"carepay-gateway/internal/infra/metrics"
)

// MockWebhookSignature is the only signature the mock accepts. Real adapters
// verify an HMAC of the payload with Config.WebhookSecret instead.
const MockWebhookSignature = "mock_signature"

func (g *MockGateway) VerifyWebhookSignature(_ []byte, signature string) bool {
	return subtle.ConstantTimeCompare([]byte(signature), []byte(MockWebhookSignature)) == 1
}

// HandleWebhook verifies the signature before touching the payload.
func (g *MockGateway) HandleWebhook(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error) {
	if err := g.EnsureInitialized(); err != nil {
		return nil, err
	}
	if !g.VerifyWebhookSignature(payload, signature) {
		metrics.IncWebhook(g.ProviderID(), "invalid_signature")
		logging.With(ctx, g.log).Warn().Int("bytes", len(payload)).Msg("webhook rejected: invalid signature")
		return nil, domain.AuthenticationError(g.ProviderID(), domain.CodeInvalidSignature,
			"invalid webhook signature")
	}

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil || body == nil {
		metrics.IncWebhook(g.ProviderID(), "invalid_payload")
		msg := "webhook payload is not a JSON object"
		if err != nil {
			msg = "webhook payload: " + err.Error()
		}
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeInvalidPayload, "%s", msg)
	}

	ev := model.WebhookEvent{
		ID:         stringField(body, "id"),
		Type:       stringField(body, "type"),
		Payload:    body,
		ReceivedAt: g.now(),
	}
	if ev.Type == "" {
		ev.Type = stringField(body, "event")
	}

	metrics.IncWebhook(g.ProviderID(), "processed")
	logging.With(ctx, g.log).Info().
		Str("event_id", ev.ID).
		Str("event_type", ev.Type).
		Msg("webhook processed")
	return &model.WebhookResult{Processed: true, Event: ev}, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

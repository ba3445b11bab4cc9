package payment

import (
	"context"
	"sort"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
	"carepay-gateway/internal/infra/logging"
)

func (g *MockGateway) CreatePaymentMethod(ctx context.Context, userID string, data model.PaymentMethodData) (*model.PaymentMethod, error) {
	if err := g.EnsureInitialized(); err != nil {
		return nil, err
	}
	if err := g.validateUser(userID); err != nil {
		return nil, err
	}
	if !data.Type.Valid() {
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeInvalidPaymentMethod,
			"unsupported payment method type %q", data.Type)
	}
	details := data.MaskedDetails()
	if details.Last4 != "" && !isDigits(details.Last4, 4) {
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeInvalidPaymentMethod,
			"last4 must be four digits")
	}

	pm := &model.PaymentMethod{
		ID:         newID("pm"),
		UserID:     userID,
		ProviderID: g.ProviderID(),
		Type:       data.Type,
		Details:    details,
		IsDefault:  data.IsDefault,
		IsActive:   true,
		CreatedAt:  g.now(),
	}

	g.methodsMu.Lock()
	if pm.IsDefault {
		g.resetDefaultLocked(userID, pm.ID)
	}
	g.methods[pm.ID] = pm
	out := pm.Clone()
	g.methodsMu.Unlock()

	logging.With(ctx, g.log).Info().
		Str("payment_method_id", pm.ID).
		Str("user_id", userID).
		Str("type", string(pm.Type)).
		Str("holder", logging.Redact(details.HolderName, g.dev)).
		Bool("default", pm.IsDefault).
		Msg("payment method created")
	return out, nil
}

func (g *MockGateway) DeletePaymentMethod(ctx context.Context, id string) error {
	if err := g.EnsureInitialized(); err != nil {
		return err
	}
	g.methodsMu.Lock()
	defer g.methodsMu.Unlock()
	if _, ok := g.methods[id]; !ok {
		return g.methodNotFound(id)
	}
	delete(g.methods, id)
	logging.With(ctx, g.log).Info().Str("payment_method_id", id).Msg("payment method deleted")
	return nil
}

// SetDefaultPaymentMethod makes id the only default among the user's methods.
func (g *MockGateway) SetDefaultPaymentMethod(ctx context.Context, userID, id string) (*model.PaymentMethod, error) {
	if err := g.EnsureInitialized(); err != nil {
		return nil, err
	}
	g.methodsMu.Lock()
	defer g.methodsMu.Unlock()
	pm, ok := g.methods[id]
	if !ok || pm.UserID != userID || !pm.IsActive {
		return nil, g.methodNotFound(id)
	}
	g.resetDefaultLocked(userID, id)
	logging.With(ctx, g.log).Debug().
		Str("payment_method_id", id).
		Str("user_id", userID).
		Msg("default payment method set")
	return pm.Clone(), nil
}

// ListPaymentMethods returns the user's methods, oldest first.
func (g *MockGateway) ListPaymentMethods(_ context.Context, userID string) ([]*model.PaymentMethod, error) {
	g.methodsMu.Lock()
	defer g.methodsMu.Unlock()
	out := make([]*model.PaymentMethod, 0)
	for _, pm := range g.methods {
		if pm.UserID == userID {
			out = append(out, pm.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// resetDefaultLocked sets IsDefault = (id == target) on every method of the
// user. Caller holds methodsMu.
func (g *MockGateway) resetDefaultLocked(userID, target string) {
	for id, pm := range g.methods {
		if pm.UserID == userID {
			pm.IsDefault = id == target
		}
	}
}

func (g *MockGateway) ownsMethod(userID, id string) bool {
	g.methodsMu.Lock()
	defer g.methodsMu.Unlock()
	pm, ok := g.methods[id]
	return ok && pm.IsActive && pm.UserID == userID
}

func (g *MockGateway) methodNotFound(id string) error {
	return domain.ValidationError(g.ProviderID(), domain.CodePaymentMethodNotFound,
		"payment method %s not found", id)
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

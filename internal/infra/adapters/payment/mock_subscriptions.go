package payment

import (
	"context"
	"sort"
	"time"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
	"carepay-gateway/internal/domain/ports/adapter"
	"carepay-gateway/internal/infra/logging"
	"carepay-gateway/internal/infra/metrics"
)

func (g *MockGateway) CreateSubscription(ctx context.Context, req model.CreateSubscriptionRequest) (*model.Subscription, error) {
	if err := g.EnsureInitialized(); err != nil {
		return nil, err
	}
	if err := g.requireFeature(model.FeatureSubscriptions); err != nil {
		return nil, err
	}
	if err := g.validateBilling(req.Billing); err != nil {
		return nil, err
	}
	if err := g.validateProvider(req.ProviderID); err != nil {
		return nil, err
	}
	if err := g.validateUser(req.UserID); err != nil {
		return nil, err
	}

	now := g.now()
	sub := &model.Subscription{
		ID:                 newID("sub"),
		UserID:             req.UserID,
		CarePlanID:         req.CarePlanID,
		ProviderID:         g.ProviderID(),
		Status:             model.SubscriptionStatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   model.PeriodEnd(now, req.Billing.Interval, req.Billing.IntervalCount),
		BillingAnchor:      now,
		Billing:            req.Billing,
		Metadata:           copyMeta(req.Metadata),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	sub.Billing.Currency = normCurrency(sub.Billing.Currency)
	if d := req.Billing.Discount; d != nil {
		dc := *d
		sub.Billing.Discount = &dc
	}
	if days := req.Billing.TrialPeriodDays; days > 0 {
		te := now.AddDate(0, 0, days)
		sub.TrialEnd = &te
		sub.Status = model.SubscriptionStatusTrialing
	}

	g.subsMu.Lock()
	g.subscriptions[sub.ID] = sub
	out := sub.Clone()
	g.subsMu.Unlock()

	metrics.IncSubscriptionTransition(g.ProviderID(), string(sub.Status))
	logging.With(ctx, g.log).Info().
		Str("subscription_id", sub.ID).
		Str("care_plan_id", sub.CarePlanID).
		Str("status", string(sub.Status)).
		Time("period_end", sub.CurrentPeriodEnd).
		Msg("subscription created")
	return out, nil
}

// UpdateSubscription applies a partial update. Validation happens before any
// field changes so a rejected update leaves the subscription untouched.
func (g *MockGateway) UpdateSubscription(ctx context.Context, id string, upd model.SubscriptionUpdate) (*model.Subscription, error) {
	if err := g.EnsureInitialized(); err != nil {
		return nil, err
	}
	g.subsMu.Lock()
	defer g.subsMu.Unlock()
	sub, ok := g.subscriptions[id]
	if !ok {
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeSubscriptionNotFound,
			"subscription %s not found", id)
	}

	if upd.Status != nil {
		next := *upd.Status
		if !next.Valid() || !sub.Status.CanTransitionTo(next) {
			return nil, g.invalidTransition(sub, string(next))
		}
	}
	closed := sub.Status.IsTerminal() || (upd.Status != nil && upd.Status.IsTerminal())
	if upd.CancelAtPeriodEnd != nil && *upd.CancelAtPeriodEnd && closed {
		return nil, g.invalidTransition(sub, "cancel_at_period_end")
	}
	if upd.Billing != nil {
		if sub.Status.IsTerminal() {
			return nil, g.invalidTransition(sub, "billing update")
		}
		if err := g.validateBilling(*upd.Billing); err != nil {
			return nil, err
		}
	}

	now := g.now()
	prev := sub.Status
	if upd.Status != nil && *upd.Status != prev {
		sub.Status = *upd.Status
		if sub.Status == model.SubscriptionStatusCancelled {
			sub.CancelledAt = &now
			sub.CancelAtPeriodEnd = false
		}
		metrics.IncSubscriptionTransition(g.ProviderID(), string(sub.Status))
	}
	if upd.CancelAtPeriodEnd != nil && !sub.Status.IsTerminal() {
		sub.CancelAtPeriodEnd = *upd.CancelAtPeriodEnd
	}
	if upd.Billing != nil {
		b := *upd.Billing
		b.Currency = normCurrency(b.Currency)
		if b.Discount != nil {
			dc := *b.Discount
			b.Discount = &dc
		}
		sub.Billing = b
	}
	if len(upd.Metadata) > 0 {
		if sub.Metadata == nil {
			sub.Metadata = make(map[string]string, len(upd.Metadata))
		}
		for k, v := range upd.Metadata {
			sub.Metadata[k] = v
		}
	}
	sub.UpdatedAt = now

	logging.With(ctx, g.log).Debug().
		Str("subscription_id", sub.ID).
		Str("from", string(prev)).
		Str("to", string(sub.Status)).
		Bool("cancel_at_period_end", sub.CancelAtPeriodEnd).
		Msg("subscription updated")
	return sub.Clone(), nil
}

// CancelSubscription cancels now, or only flags the subscription so the
// period worker cancels it once the current period ends.
func (g *MockGateway) CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*model.Subscription, error) {
	if atPeriodEnd {
		flag := true
		return g.UpdateSubscription(ctx, id, model.SubscriptionUpdate{CancelAtPeriodEnd: &flag})
	}
	return g.setSubscriptionStatus(ctx, id, model.SubscriptionStatusCancelled)
}

func (g *MockGateway) PauseSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	return g.setSubscriptionStatus(ctx, id, model.SubscriptionStatusPaused)
}

func (g *MockGateway) ResumeSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	return g.setSubscriptionStatus(ctx, id, model.SubscriptionStatusActive)
}

func (g *MockGateway) setSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus) (*model.Subscription, error) {
	return g.UpdateSubscription(ctx, id, model.SubscriptionUpdate{Status: &status})
}

func (g *MockGateway) GetSubscription(_ context.Context, id string) (*model.Subscription, error) {
	g.subsMu.Lock()
	defer g.subsMu.Unlock()
	sub, ok := g.subscriptions[id]
	if !ok {
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeSubscriptionNotFound,
			"subscription %s not found", id)
	}
	return sub.Clone(), nil
}

// AdvancePeriods applies period boundaries that have passed by now:
// trials end, flagged subscriptions are cancelled, and active ones roll
// forward until their period covers now. Paused, past_due and unpaid
// subscriptions keep their period.
func (g *MockGateway) AdvancePeriods(ctx context.Context, now time.Time) (adapter.PeriodReport, error) {
	var rep adapter.PeriodReport
	if err := g.EnsureInitialized(); err != nil {
		return rep, err
	}
	g.subsMu.Lock()
	defer g.subsMu.Unlock()

	ids := make([]string, 0, len(g.subscriptions))
	for id := range g.subscriptions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		sub := g.subscriptions[id]
		if sub.Status.IsTerminal() {
			continue
		}
		changed := false
		if sub.Status == model.SubscriptionStatusTrialing && sub.TrialEnd != nil && !now.Before(*sub.TrialEnd) {
			sub.Status = model.SubscriptionStatusActive
			rep.TrialsEnded++
			changed = true
			metrics.IncSubscriptionTransition(g.ProviderID(), string(sub.Status))
		}
		if !now.Before(sub.CurrentPeriodEnd) {
			switch {
			case sub.CancelAtPeriodEnd:
				end := sub.CurrentPeriodEnd
				sub.Status = model.SubscriptionStatusCancelled
				sub.CancelledAt = &end
				sub.CancelAtPeriodEnd = false
				rep.Cancelled++
				changed = true
				metrics.IncSubscriptionTransition(g.ProviderID(), string(sub.Status))
			case sub.Status == model.SubscriptionStatusActive || sub.Status == model.SubscriptionStatusTrialing:
				for !now.Before(sub.CurrentPeriodEnd) {
					sub.NextPeriod()
				}
				rep.Renewed++
				changed = true
			}
		}
		if changed {
			sub.UpdatedAt = now
		}
	}
	if rep.Renewed+rep.TrialsEnded+rep.Cancelled > 0 {
		g.log.Info().
			Int("renewed", rep.Renewed).
			Int("trials_ended", rep.TrialsEnded).
			Int("cancelled", rep.Cancelled).
			Msg("subscription periods advanced")
	}
	return rep, nil
}

func (g *MockGateway) validateBilling(b model.BillingTerms) error {
	if err := g.ValidateAmount(b.Amount); err != nil {
		return err
	}
	if err := g.ValidateCurrency(b.Currency); err != nil {
		return err
	}
	if b.Interval.Months() == 0 {
		return domain.ValidationError(g.ProviderID(), domain.CodeInvalidBillingTerms,
			"unknown billing interval %q", b.Interval)
	}
	if b.IntervalCount < 1 {
		return domain.ValidationError(g.ProviderID(), domain.CodeInvalidBillingTerms,
			"interval count must be at least 1, got %d", b.IntervalCount)
	}
	if b.TrialPeriodDays < 0 {
		return domain.ValidationError(g.ProviderID(), domain.CodeInvalidBillingTerms,
			"trial period must not be negative, got %d days", b.TrialPeriodDays)
	}
	if d := b.Discount; d != nil {
		if d.PercentOff < 0 || d.PercentOff > 100 || d.AmountOff < 0 || d.AmountOff > b.Amount {
			return domain.ValidationError(g.ProviderID(), domain.CodeInvalidBillingTerms, "invalid discount")
		}
	}
	return nil
}

func (g *MockGateway) invalidTransition(sub *model.Subscription, to string) error {
	return domain.ValidationError(g.ProviderID(), domain.CodeInvalidTransition,
		"subscription %s: %s not allowed from %s", sub.ID, to, sub.Status).
		WithDetail("status", string(sub.Status))
}

func copyMeta(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

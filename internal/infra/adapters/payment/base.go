package payment

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
)

// Base carries the provider descriptor and the guards shared by every
// adapter. Adapters embed it.
type Base struct {
	provider    model.PaymentProvider
	initialized atomic.Bool
}

func NewBase(provider model.PaymentProvider) Base {
	return Base{provider: provider}
}

func (b *Base) Provider() model.PaymentProvider { return b.provider }

func (b *Base) ProviderID() string { return b.provider.ID }

func (b *Base) IsInitialized() bool { return b.initialized.Load() }

// markInitialized flips the flag and reports whether this call did it.
func (b *Base) markInitialized() bool {
	return b.initialized.CompareAndSwap(false, true)
}

// EnsureInitialized must be the first call of every mutating operation.
func (b *Base) EnsureInitialized() error {
	if !b.initialized.Load() {
		return domain.AuthenticationError(b.provider.ID, domain.CodeNotInitialized,
			"gateway %s used before Initialize", b.provider.ID)
	}
	return nil
}

func (b *Base) ValidateAmount(amount int64) error {
	if amount <= 0 {
		return domain.ValidationError(b.provider.ID, domain.CodeInvalidAmount,
			"amount must be positive, got %d", amount).WithDetail("amount", amount)
	}
	return nil
}

func (b *Base) ValidateCurrency(currency string) error {
	if !b.provider.SupportsCurrency(currency) {
		return domain.ValidationError(b.provider.ID, domain.CodeUnsupportedCurrency,
			"currency %q is not supported by %s", currency, b.provider.ID).
			WithDetail("supported", b.provider.SupportedCurrencies)
	}
	return nil
}

// validateProvider rejects requests addressed to another provider. An empty
// id means "this gateway".
func (b *Base) validateProvider(providerID string) error {
	if providerID != "" && providerID != b.provider.ID {
		return domain.ValidationError(b.provider.ID, domain.CodeProviderMismatch,
			"request for provider %q sent to %q", providerID, b.provider.ID)
	}
	return nil
}

func (b *Base) validateUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ValidationError(b.provider.ID, domain.CodeMissingUserID, "user id is required")
	}
	return nil
}

// requireFeature rejects operations behind a flag the provider declares
// off. A provider without any features configured allows everything.
func (b *Base) requireFeature(name string) error {
	if len(b.provider.Features) > 0 && !b.provider.HasFeature(name) {
		return domain.ValidationError(b.provider.ID, domain.CodeFeatureNotSupported,
			"provider %s does not support %s", b.provider.ID, name).WithDetail("feature", name)
	}
	return nil
}

func normCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package model

import "strings"

type ProviderType string

const (
	ProviderTypeRazorpay ProviderType = "razorpay"
	ProviderTypeStripe   ProviderType = "stripe"
	ProviderTypePayPal   ProviderType = "paypal"
	ProviderTypeMock     ProviderType = "mock"
)

// ProviderConfig holds the credentials and environment of a provider.
type ProviderConfig struct {
	PublicKey     string `yaml:"public_key" json:"-"`
	SecretKey     string `yaml:"secret_key" json:"-"`
	WebhookSecret string `yaml:"webhook_secret" json:"-"`
	Environment   string `yaml:"environment" json:"environment"` // sandbox | production
}

type WebhookEndpoint struct {
	URL    string   `yaml:"url" json:"url"`
	Events []string `yaml:"events" json:"events"`
}

// PaymentProvider is the static descriptor of a payment processor.
// It is loaded once from configuration and not mutated afterwards.
type PaymentProvider struct {
	ID                  string            `yaml:"id" json:"id"`
	Name                string            `yaml:"name" json:"name"`
	Type                ProviderType      `yaml:"type" json:"type"`
	Active              bool              `yaml:"active" json:"active"`
	SupportedCurrencies []string          `yaml:"supported_currencies" json:"supported_currencies"`
	SupportedCountries  []string          `yaml:"supported_countries" json:"supported_countries"`
	Features            map[string]bool   `yaml:"features" json:"features"`
	Config              ProviderConfig    `yaml:"config" json:"config"`
	Webhooks            []WebhookEndpoint `yaml:"webhooks" json:"webhooks"`
}

// SupportsCurrency reports whether the ISO currency code is accepted.
func (p PaymentProvider) SupportsCurrency(currency string) bool {
	c := strings.TrimSpace(currency)
	if c == "" {
		return false
	}
	for _, s := range p.SupportedCurrencies {
		if strings.EqualFold(s, c) {
			return true
		}
	}
	return false
}

// Feature flag names understood by the adapters.
const (
	FeatureSubscriptions = "subscriptions"
	FeatureRefunds       = "refunds"
)

func (p PaymentProvider) HasFeature(name string) bool {
	return p.Features[name]
}

// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"carepay-gateway/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// MockConfig tunes the in-memory reference gateway.
type MockConfig struct {
	SuccessRate  *float64      `yaml:"success_rate"`  // probability a confirmation succeeds; unset = 0.9
	Seed         int64         `yaml:"seed"`          // 0 = time based
	InitDelay    time.Duration `yaml:"init_delay"`    // simulated handshake
	ConfirmDelay time.Duration `yaml:"confirm_delay"` // simulated provider round trip
}

type PaymentConfig struct {
	Providers []model.PaymentProvider `yaml:"providers"`
	Mock      MockConfig              `yaml:"mock"`
}

type SchedulerConfig struct {
	PeriodCheckInterval time.Duration `yaml:"period_check_interval"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Payment   PaymentConfig   `yaml:"payment"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 10 * time.Second
	}
	if c.Payment.Mock.SuccessRate == nil {
		rate := 0.9
		c.Payment.Mock.SuccessRate = &rate
	}
	if c.Payment.Mock.ConfirmDelay == 0 {
		c.Payment.Mock.ConfirmDelay = time.Second
	}
	if c.Payment.Mock.InitDelay == 0 {
		c.Payment.Mock.InitDelay = 100 * time.Millisecond
	}
	if c.Scheduler.PeriodCheckInterval <= 0 {
		c.Scheduler.PeriodCheckInterval = time.Hour
	}
	for i := range c.Payment.Providers {
		p := &c.Payment.Providers[i]
		if p.Type == "" {
			p.Type = model.ProviderTypeMock
		}
		for j, cur := range p.SupportedCurrencies {
			p.SupportedCurrencies[j] = strings.ToUpper(strings.TrimSpace(cur))
		}
	}
}

func (c *Config) validate() error {
	if len(c.Payment.Providers) == 0 {
		return errors.New("payment.providers: at least one provider is required")
	}
	seen := make(map[string]bool, len(c.Payment.Providers))
	for i, p := range c.Payment.Providers {
		if p.ID == "" {
			return fmt.Errorf("payment.providers[%d].id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("payment.providers[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
		if len(p.SupportedCurrencies) == 0 {
			return fmt.Errorf("payment.providers[%d] (%s): supported_currencies is empty", i, p.ID)
		}
	}
	if r := *c.Payment.Mock.SuccessRate; r < 0 || r > 1 {
		return fmt.Errorf("payment.mock.success_rate must be within [0,1], got %v", r)
	}
	if c.Payment.Mock.ConfirmDelay < 0 || c.Payment.Mock.InitDelay < 0 {
		return errors.New("payment.mock delays must not be negative")
	}
	return nil
}

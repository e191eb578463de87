package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything main needs to wire the service. Values come from
// environment variables so deployments stay twelve-factor; the Paystack keys
// here are only fallbacks — the settings store overrides them at runtime.
type Config struct {
	Addr        string `env:"CONFREG_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	AdminToken string `env:"ADMIN_TOKEN"`
	// AppSecret derives the encryption key for secrets at rest and signs
	// check-in tokens.
	AppSecret string `env:"APP_SECRET"`

	PaystackSecretKey string `env:"PAYSTACK_SECRET_KEY"`
	PaystackPublicKey string `env:"PAYSTACK_PUBLIC_KEY"`
	PaystackBaseURL   string `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co"`
	FrontendURL       string `env:"FRONTEND_URL"`

	ReferencePrefix      string    `env:"REFERENCE_PREFIX" envDefault:"CONF"`
	RegistrationDeadline time.Time `env:"REGISTRATION_DEADLINE" envDefault:"2026-04-30T23:59:59Z"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	MailFrom string `env:"EMAIL_FROM"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

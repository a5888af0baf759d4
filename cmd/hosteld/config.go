package main

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment at startup.
type Config struct {
	Addr  string `env:"HOSTEL_ADDR" envDefault:":8572"`
	Debug bool   `env:"HOSTEL_DEBUG" envDefault:"false"`

	DatabaseDSN string `env:"HOSTEL_DATABASE_DSN" envDefault:"file:hostel.db?cache=shared&mode=rwc"`

	// RedisAddr enables the durable auth artifact scope. Empty means
	// memory-only storage; sessions then die with the process.
	RedisAddr     string `env:"HOSTEL_REDIS_ADDR"`
	RedisPassword string `env:"HOSTEL_REDIS_PASSWORD"`
	RedisDB       int    `env:"HOSTEL_REDIS_DB" envDefault:"0"`

	// Provider selects the identity backend: "gotrue" for a hosted auth
	// service, "local" for the built-in account table.
	Provider string `env:"HOSTEL_AUTH_PROVIDER" envDefault:"local"`

	GoTrueURL    string `env:"HOSTEL_GOTRUE_URL"`
	GoTrueAPIKey string `env:"HOSTEL_GOTRUE_API_KEY"`

	SigningKey  string        `env:"HOSTEL_SIGNING_KEY" envDefault:"dev-signing-key-change-me"`
	TokenTTL    time.Duration `env:"HOSTEL_TOKEN_TTL" envDefault:"1h"`
	AutoConfirm bool          `env:"HOSTEL_AUTO_CONFIRM" envDefault:"true"`

	SignUpRedirect string `env:"HOSTEL_SIGNUP_REDIRECT" envDefault:"http://localhost:8572/login"`
	PhoneRegion    string `env:"HOSTEL_PHONE_REGION" envDefault:"US"`
}

func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}

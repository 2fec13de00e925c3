// Package config loads application settings from the environment, with an
// optional .env file for local development.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// App holds every knob the server reads. Values come from environment
// variables; defaults suit local development only.
type App struct {
	Name  string `env:"APP_NAME" envDefault:"go-saas"`
	Host  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port  int    `env:"APP_PORT" envDefault:"8000"`
	Debug bool   `env:"APP_DEBUG" envDefault:"false"`

	JWTSecretKey     string `env:"JWT_SECRET_KEY" envDefault:"secret"`
	JWTSecretName    string `env:"JWT_SECRET_NAME"`
	JWTAlgorithm     string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTExpirySeconds int    `env:"JWT_EXPIRES" envDefault:"1800"`
	JWTIssuer        string `env:"JWT_ISSUER" envDefault:"go-saas"`
	JWTAudience      string `env:"JWT_AUDIENCE" envDefault:"go-saas"`

	// ClaimStorage selects the claim store backend: memory, redis or dynamodb.
	ClaimStorage   string `env:"CLAIM_STORAGE" envDefault:"memory"`
	ClaimTableName string `env:"CLAIM_TABLE_NAME" envDefault:"claims"`

	AWSRegion string `env:"AWS_REGION" envDefault:"us-east-1"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file::memory:?cache=shared"`
}

// Load reads a .env file when present, then parses the environment. A missing
// .env file is not an error.
func Load() (*App, error) {
	_ = godotenv.Load()

	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetSigningKey returns the JWT signing secret.
func (a *App) GetSigningKey() string { return a.JWTSecretKey }

// GetSigningMethod returns the JWT signing algorithm name.
func (a *App) GetSigningMethod() string { return a.JWTAlgorithm }

// GetIssuer returns the token issuer claim.
func (a *App) GetIssuer() string { return a.JWTIssuer }

// GetAudience returns the token audience claim.
func (a *App) GetAudience() string { return a.JWTAudience }

// GetTokenExpiration returns the token TTL in seconds.
func (a *App) GetTokenExpiration() int { return a.JWTExpirySeconds }

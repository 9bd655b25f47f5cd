// Package config loads paygate settings from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/layer-3/paygate/adapters/txnid"
	"github.com/layer-3/paygate/core"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string `mapstructure:"PORT"`

	// BaseURL is the provider API root; the token and payment paths are appended to it.
	BaseURL string `mapstructure:"AIRTM_BASE_URL"`
	// ClientID and ClientSecret are the OAuth2 client credentials. Not validated here:
	// a missing value surfaces as a failed token request.
	ClientID     string `mapstructure:"AIRTM_API_KEY"`
	ClientSecret string `mapstructure:"AIRTM_API_SECRET"`
	Country      string `mapstructure:"AIRTM_COUNTRY"`
	Currency     string `mapstructure:"AIRTM_CURRENCY"`

	TokenSafetyMargin time.Duration `mapstructure:"TOKEN_SAFETY_MARGIN"`
	ProviderTimeout   time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	// TxnIDStrategy is "uuid" or "timestamp".
	TxnIDStrategy string `mapstructure:"TXN_ID_STRATEGY"`

	// RedisURL enables publishing payment events to Redis streams. Empty keeps events in process.
	RedisURL string `mapstructure:"REDIS_URL"`

	// APIJWTSecret enables bearer-token auth on /api when set.
	APIJWTSecret   string `mapstructure:"API_JWT_SECRET"`
	APIJWTAudience string `mapstructure:"API_JWT_AUDIENCE"`

	LogDebug bool `mapstructure:"LOG_DEBUG"`
}

// Load reads .env (if present), then builds and validates Config from the environment.
// Env vars override .env.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !envFileMissing(err) {
		return nil, fmt.Errorf("config: %w", err)
	}

	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("AIRTM_BASE_URL", "https://openapiuat.airtel.africa")
	v.SetDefault("AIRTM_API_KEY", "")
	v.SetDefault("AIRTM_API_SECRET", "")
	v.SetDefault("AIRTM_COUNTRY", "")
	v.SetDefault("AIRTM_CURRENCY", "")
	v.SetDefault("TOKEN_SAFETY_MARGIN", "60s")
	v.SetDefault("PROVIDER_TIMEOUT", "30s")
	v.SetDefault("TXN_ID_STRATEGY", txnid.StrategyUUID)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("API_JWT_SECRET", "")
	v.SetDefault("API_JWT_AUDIENCE", "paygate")
	v.SetDefault("LOG_DEBUG", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Port == "" {
		return nil, errors.New("config: PORT must be set")
	}
	if cfg.TokenSafetyMargin < 0 {
		return nil, errors.New("config: TOKEN_SAFETY_MARGIN must not be negative")
	}
	if _, err := txnid.New(cfg.TxnIDStrategy); err != nil {
		return nil, fmt.Errorf("config: TXN_ID_STRATEGY: %w", err)
	}

	return &cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Market returns the country and currency payments are made in.
func (c *Config) Market() core.Market {
	return core.Market{Country: c.Country, Currency: c.Currency}
}

// envFileMissing reports whether err only says the .env file is absent.
func envFileMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}

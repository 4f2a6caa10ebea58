package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

const (
	_portDefault       = "8000"
	_corsOriginDefault = "*"
)

func (c *ServerConfig) Setup() {
	if c.Port == "" {
		c.Port = _portDefault
	}
	if c.CORSOrigin == "" {
		c.CORSOrigin = _corsOriginDefault
	}
}

type OracleConfig struct {
	Address       string        `yaml:"address"`
	QuoteCurrency string        `yaml:"quote_currency"`
	QuoteTimeout  time.Duration `yaml:"quote_timeout"`
	RatePerMinute int           `yaml:"rate_per_minute"`
}

const (
	_oracleAddressDefault = "https://api.binance.com"
	_quoteCurrencyDefault = "USDT"
	_quoteTimeoutDefault  = 5 * time.Second
	_ratePerMinuteDefault = 1200
)

func (c *OracleConfig) Setup() error {
	if c.Address == "" {
		c.Address = _oracleAddressDefault
	}
	if _, err := url.Parse(c.Address); err != nil {
		return fmt.Errorf("%w: invalid oracle address", err)
	}
	if c.QuoteCurrency == "" {
		c.QuoteCurrency = _quoteCurrencyDefault
	}
	if c.QuoteTimeout <= 0 {
		c.QuoteTimeout = _quoteTimeoutDefault
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = _ratePerMinuteDefault
	}
	return nil
}

type AuthConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl"`

	// Secret is read from SECRET_KEY, never from the config file.
	Secret string `yaml:"-"`
}

const _tokenTTLDefault = 24 * time.Hour

func (c *AuthConfig) Setup() error {
	if c.TokenTTL <= 0 {
		c.TokenTTL = _tokenTTLDefault
	}
	c.Secret = os.Getenv("SECRET_KEY")
	if c.Secret == "" {
		return fmt.Errorf("empty SECRET_KEY")
	}
	return nil
}

type JournalBackend string

const (
	JournalMemory   JournalBackend = "memory"
	JournalPostgres JournalBackend = "postgres"
)

type JournalConfig struct {
	Backend JournalBackend `yaml:"backend"`
}

func (c *JournalConfig) Setup() error {
	switch c.Backend {
	case "":
		c.Backend = JournalMemory
	case JournalMemory, JournalPostgres:
	default:
		return fmt.Errorf("unknown journal backend %q", c.Backend)
	}
	return nil
}

type ServiceConfig struct {
	LogLevel string        `yaml:"log_level"`
	Server   ServerConfig  `yaml:"server"`
	Oracle   OracleConfig  `yaml:"oracle"`
	Auth     AuthConfig    `yaml:"auth"`
	Journal  JournalConfig `yaml:"journal"`
}

func (c *ServiceConfig) ValidateAndSetup() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.Server.Setup()

	if err := c.Oracle.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup oracle cfg", err)
	}
	if err := c.Auth.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup auth cfg", err)
	}
	if err := c.Journal.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup journal cfg", err)
	}

	return nil
}

func LoadServiceConfig(filename string) (ServiceConfig, error) {
	var cfg ServiceConfig
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}

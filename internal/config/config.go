// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Duration is a time.Duration that decodes from strings such as "15s" in both
// JSON config files and environment variables.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `json:"addr" env:"SERVER_ADDRESS"`

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_DSN"`

	// Config is the path to the Config file.
	Config string `json:"-" env:"CONFIG"`

	// JWTSecret signs and verifies session tokens. Required.
	JWTSecret string `json:"jwt_secret" env:"JWT_SECRET"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL Duration `json:"token_ttl" env:"TOKEN_TTL"`

	// BcryptCost is the work factor for password hashes.
	BcryptCost int `json:"bcrypt_cost" env:"BCRYPT_COST"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`

	// RequestTimeout bounds the handling time of a single request.
	RequestTimeout Duration `json:"request_timeout" env:"REQUEST_TIMEOUT"`

	// AllowedOrigins lists origins permitted by CORS.
	AllowedOrigins []string `json:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	// TrustedProxies lists the IPs or CIDR ranges of reverse proxies whose
	// X-Forwarded-For / X-Real-IP headers are believed. Empty means none.
	TrustedProxies []string `json:"trusted_proxies" env:"TRUSTED_PROXIES" envSeparator:","`

	// RedisAddr enables rate limiting of auth endpoints when set.
	RedisAddr string `json:"redis_addr" env:"REDIS_ADDR"`

	// AuthRateLimit is the number of auth requests allowed per client per window.
	AuthRateLimit int `json:"auth_rate_limit" env:"AUTH_RATE_LIMIT"`

	// AuthRateWindow is the rate limiting window.
	AuthRateWindow Duration `json:"auth_rate_window" env:"AUTH_RATE_WINDOW"`

	// Seed inserts the starter modules into an empty database.
	Seed bool `json:"seed" env:"SEED"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert" env:"TLS_CERT"`
	TLSKey  string `json:"tls_key" env:"TLS_KEY"`
}

var (
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrMissingDSN    = errors.New("database dsn is not configured")
	ErrPartialTLS    = errors.New("both tls cert and tls key must be set")
)

func defaults() *Options {
	return &Options{
		Addr:           "localhost:3001",
		Config:         "config.json",
		TokenTTL:       Duration{7 * 24 * time.Hour},
		BcryptCost:     10,
		LogLevel:       "info",
		RequestTimeout: Duration{15 * time.Second},
		AllowedOrigins: []string{"http://localhost:5173"},
		AuthRateLimit:  20,
		AuthRateWindow: Duration{time.Minute},
	}
}

// Parse parses os.Args and the environment, exiting the process on malformed input.
func Parse() *Options {
	options, err := ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("error while parsing configuration: %v", err)
	}
	return options
}

// ParseArgs builds Options from defaults, then command-line flags, then the JSON
// config file (if present), then environment variables; later sources win.
func ParseArgs(args []string) (*Options, error) {
	options := defaults()

	fs := flag.NewFlagSet("handmind", flag.ContinueOnError)
	fs.StringVar(&options.Addr, "a", options.Addr, "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", options.DatabaseDSN, "db address")
	fs.StringVar(&options.Config, "config", options.Config, "path to config file")
	fs.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	fs.StringVar(&options.JWTSecret, "s", options.JWTSecret, "token signing secret")
	fs.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	fs.BoolVar(&options.Seed, "seed", options.Seed, "seed starter modules into an empty database")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := env.Parse(options); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return options, nil
}

// Validate reports the first missing setting the server cannot start without.
func (o *Options) Validate() error {
	if o.JWTSecret == "" {
		return ErrMissingSecret
	}
	if o.DatabaseDSN == "" {
		return ErrMissingDSN
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return ErrPartialTLS
	}
	return nil
}

// TLSEnabled reports whether the server should listen with HTTPS.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}
